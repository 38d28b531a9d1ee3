package felt

import "fmt"

// Call is a single inner invocation of an account-abstraction multicall:
// target contract, entrypoint selector, and flattened calldata.
type Call struct {
	To       Felt
	Selector Felt
	Data     []Felt
}

// ErrMulticallShape is returned by decoders when the calldata does not
// match either known layout.
var ErrMulticallShape = fmt.Errorf("felt: malformed multicall calldata")

// EncodeMulticallOffset produces the offset layout:
// [calls_len, (to, selector, data_offset, data_len) x calls_len,
//
//	flattened_len, flattened...]
func EncodeMulticallOffset(calls []Call) []Felt {
	out := []Felt{FromUint64(uint64(len(calls)))}

	flattened := make([]Felt, 0)
	offset := uint64(0)
	headers := make([]Felt, 0, len(calls)*4)
	for _, c := range calls {
		headers = append(headers,
			c.To,
			c.Selector,
			FromUint64(offset),
			FromUint64(uint64(len(c.Data))),
		)
		flattened = append(flattened, c.Data...)
		offset += uint64(len(c.Data))
	}

	out = append(out, headers...)
	out = append(out, FromUint64(uint64(len(flattened))))
	out = append(out, flattened...)
	return out
}

// EncodeMulticallInline produces the inline layout:
// [calls_len, (to, selector, data_len, data...) x calls_len]
func EncodeMulticallInline(calls []Call) []Felt {
	out := []Felt{FromUint64(uint64(len(calls)))}
	for _, c := range calls {
		out = append(out, c.To, c.Selector, FromUint64(uint64(len(c.Data))))
		out = append(out, c.Data...)
	}
	return out
}

// EncodeMulticall is an alias for EncodeMulticallOffset, the layout used
// when no caller preference is given.
func EncodeMulticall(calls []Call) []Felt {
	return EncodeMulticallOffset(calls)
}

// DecodeMulticall tries the offset layout first, then the inline layout,
// returning ErrMulticallShape if neither parses cleanly.
func DecodeMulticall(calldata []Felt) ([]Call, error) {
	if calls, err := decodeMulticallOffset(calldata); err == nil {
		return calls, nil
	}
	if calls, err := decodeMulticallInline(calldata); err == nil {
		return calls, nil
	}
	return nil, ErrMulticallShape
}

func decodeMulticallOffset(calldata []Felt) ([]Call, error) {
	if len(calldata) < 1 {
		return nil, ErrMulticallShape
	}
	callsLen, ok := smallUint(calldata[0])
	if !ok {
		return nil, ErrMulticallShape
	}

	headerEnd := 1 + callsLen*4
	if uint64(len(calldata)) < headerEnd+1 {
		return nil, ErrMulticallShape
	}

	type header struct {
		to, selector Felt
		offset, n    uint64
	}
	headers := make([]header, 0, callsLen)
	for i := uint64(0); i < callsLen; i++ {
		base := 1 + i*4
		off, ok1 := smallUint(calldata[base+2])
		n, ok2 := smallUint(calldata[base+3])
		if !ok1 || !ok2 {
			return nil, ErrMulticallShape
		}
		headers = append(headers, header{
			to:       calldata[base],
			selector: calldata[base+1],
			offset:   off,
			n:        n,
		})
	}

	flattenedLen, ok := smallUint(calldata[headerEnd])
	if !ok {
		return nil, ErrMulticallShape
	}
	flatStart := headerEnd + 1
	if uint64(len(calldata)) != flatStart+flattenedLen {
		return nil, ErrMulticallShape
	}
	flattened := calldata[flatStart:]

	calls := make([]Call, 0, callsLen)
	for _, h := range headers {
		if h.offset+h.n > uint64(len(flattened)) {
			return nil, ErrMulticallShape
		}
		data := make([]Felt, h.n)
		copy(data, flattened[h.offset:h.offset+h.n])
		calls = append(calls, Call{To: h.to, Selector: h.selector, Data: data})
	}
	return calls, nil
}

func decodeMulticallInline(calldata []Felt) ([]Call, error) {
	if len(calldata) < 1 {
		return nil, ErrMulticallShape
	}
	callsLen, ok := smallUint(calldata[0])
	if !ok {
		return nil, ErrMulticallShape
	}

	pos := uint64(1)
	calls := make([]Call, 0, callsLen)
	for i := uint64(0); i < callsLen; i++ {
		if pos+3 > uint64(len(calldata)) {
			return nil, ErrMulticallShape
		}
		to := calldata[pos]
		selector := calldata[pos+1]
		n, ok := smallUint(calldata[pos+2])
		if !ok {
			return nil, ErrMulticallShape
		}
		pos += 3
		if pos+n > uint64(len(calldata)) {
			return nil, ErrMulticallShape
		}
		data := make([]Felt, n)
		copy(data, calldata[pos:pos+n])
		pos += n
		calls = append(calls, Call{To: to, Selector: selector, Data: data})
	}
	if pos != uint64(len(calldata)) {
		return nil, ErrMulticallShape
	}
	return calls, nil
}

// smallUint projects a Felt believed to encode a small length/offset value
// into a uint64, failing if it would overflow.
func smallUint(f Felt) (uint64, bool) {
	v := f.BigInt()
	if v.BitLen() > 63 {
		return 0, false
	}
	return v.Uint64(), true
}
