// Package privacy implements the Privacy Action Pipeline (C3): proof
// acquisition, binding verification, V1/V2 calldata construction, the
// two-call wallet batch, and the intent state machine.
package privacy

import (
	"strings"

	"github.com/zkcarel/core/pkg/cerr"
)

// VerifierKind identifies which privacy-router family produced a proof.
type VerifierKind string

const (
	VerifierGaraga    VerifierKind = "garaga"
	VerifierTongo     VerifierKind = "tongo"
	VerifierSemaphore VerifierKind = "semaphore"
)

// ParseVerifierKind trims and lowercases raw, defaulting to garaga when
// empty, and accepting "sema" as a Semaphore alias.
func ParseVerifierKind(raw string) (VerifierKind, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return VerifierGaraga, nil
	}
	switch value {
	case string(VerifierGaraga):
		return VerifierGaraga, nil
	case string(VerifierTongo):
		return VerifierTongo, nil
	case string(VerifierSemaphore), "sema":
		return VerifierSemaphore, nil
	default:
		return "", cerr.New(cerr.KindUnsupportedVerifier, "unsupported privacy verifier '"+raw+"', use garaga|tongo|semaphore")
	}
}

// RouterResolver selects the configured router address for a verifier
// kind, falling back to a legacy single-router address for Garaga when
// no per-kind entry is configured.
type RouterResolver struct {
	perKind map[string]string
	legacy  string
}

// NewRouterResolver builds a resolver from Config.PrivacyRouterAddresses
// (keyed by lowercase kind) and Config.PrivacyRouterAddressLegacy.
func NewRouterResolver(perKind map[string]string, legacy string) *RouterResolver {
	return &RouterResolver{perKind: perKind, legacy: legacy}
}

// Resolve returns the router address for kind, or UnsupportedVerifier if
// none is configured (and, for Garaga only, the legacy fallback is also
// absent or invalid).
func (r *RouterResolver) Resolve(kind VerifierKind) (string, error) {
	if addr, ok := r.perKind[string(kind)]; ok && isValidRouterAddress(addr) {
		return addr, nil
	}
	if kind == VerifierGaraga && isValidRouterAddress(r.legacy) {
		return r.legacy, nil
	}
	return "", cerr.New(cerr.KindUnsupportedVerifier,
		"router for verifier '"+string(kind)+"' is not configured")
}

func isValidRouterAddress(address string) bool {
	address = strings.TrimSpace(address)
	if address == "" || !strings.HasPrefix(address, "0x") {
		return false
	}
	return !strings.HasPrefix(address, "0x0000")
}
