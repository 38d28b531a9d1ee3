package rollup

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// LocalSigner signs relayer invokes with a key held in process memory,
// loaded the same way the teacher's Ethereum client loads its relayer
// key (crypto.HexToECDSA on a hex string from Config.RelayerSigningKey).
// No production stark-curve signer is in scope here, so SignInvoke
// produces an ECDSA secp256k1 signature over the call batch's digest as
// a two-felt (r, s) pair; a deployment targeting a real account
// contract would swap this for that contract's native curve.
type LocalSigner struct {
	key *ecdsa.PrivateKey
}

// NewLocalSigner parses a hex-encoded private key (with or without a 0x
// prefix) into a LocalSigner.
func NewLocalSigner(hexKey string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInvalidRequest, "parse relayer signing key", err)
	}
	return &LocalSigner{key: key}, nil
}

// SignInvoke hashes the call batch with Keccak256 and signs the digest,
// returning the (r, s) signature components as two felts in the order
// the relayer-signed INVOKE transaction's signature array expects.
func (s *LocalSigner) SignInvoke(ctx context.Context, account felt.Felt, calls []Call) ([]felt.Felt, error) {
	digest := digestCalls(account, calls)
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternalInvariant, "sign relayer invoke", err)
	}
	r := felt.FromBigInt(new(big.Int).SetBytes(sig[:32]))
	sComponent := felt.FromBigInt(new(big.Int).SetBytes(sig[32:64]))
	return []felt.Felt{r, sComponent}, nil
}

func digestCalls(account felt.Felt, calls []Call) []byte {
	buf := account.Bytes()
	for _, call := range calls {
		buf = append(buf, call.ContractAddress.Bytes()...)
		buf = append(buf, call.Selector.Bytes()...)
		for _, d := range call.Calldata {
			buf = append(buf, d.Bytes()...)
		}
	}
	return crypto.Keccak256(buf)
}
