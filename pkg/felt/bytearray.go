package felt

import (
	"fmt"
	"math/big"
)

// wordSize is the number of bytes packed into a single field element word
// of the rollup's byte-array calldata layout.
const wordSize = 31

var errByteArrayShape = fmt.Errorf("felt: malformed byte-array calldata")

func bigIntFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// EncodeByteArray produces the rollup's canonical byte-array calldata
// layout: [num_full_31_byte_words, word_0 .. word_{n-1}, trailing_chunk,
// trailing_len]. The trailing chunk is the zero felt when the input length
// is an exact multiple of 31.
func EncodeByteArray(s string) []Felt {
	data := []byte(s)
	fullWords := len(data) / wordSize
	remainder := data[fullWords*wordSize:]

	out := make([]Felt, 0, fullWords+3)
	out = append(out, FromUint64(uint64(fullWords)))
	for i := 0; i < fullWords; i++ {
		word := data[i*wordSize : (i+1)*wordSize]
		out = append(out, feltFromBigEndianBytes(word))
	}
	if len(remainder) == 0 {
		out = append(out, Zero)
	} else {
		out = append(out, feltFromBigEndianBytes(remainder))
	}
	out = append(out, FromUint64(uint64(len(remainder))))
	return out
}

// DecodeByteArray reverses EncodeByteArray, reconstructing the original
// UTF-8 string from its layout.
func DecodeByteArray(words []Felt) (string, error) {
	if len(words) < 2 {
		return "", errByteArrayShape
	}
	fullWords := words[0].BigInt().Int64()
	if fullWords < 0 {
		return "", errByteArrayShape
	}
	want := int(fullWords) + 3
	if len(words) != want {
		return "", errByteArrayShape
	}

	out := make([]byte, 0, int(fullWords)*wordSize+wordSize)
	for i := int64(0); i < fullWords; i++ {
		word := words[1+i].Bytes()
		out = append(out, word[len(word)-wordSize:]...)
	}

	trailingLen := words[len(words)-1].BigInt().Int64()
	if trailingLen < 0 || trailingLen > wordSize {
		return "", errByteArrayShape
	}
	if trailingLen > 0 {
		chunk := words[len(words)-2].Bytes()
		out = append(out, chunk[len(chunk)-int(trailingLen):]...)
	}

	return string(out), nil
}

func feltFromBigEndianBytes(b []byte) Felt {
	padded := leftPad(b, wordSize)
	return FromBigInt(bigIntFromBytes(padded))
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
