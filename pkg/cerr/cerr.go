// Package cerr defines the error-kind taxonomy shared across the gateway,
// privacy pipeline, verifier, and accounting engine. It follows the
// teacher's sentinel-error idiom (pkg/database/errors.go) generalized into
// a closed set of kinds so callers can branch with errors.Is/As instead of
// string matching.
package cerr

import "errors"

// Kind is a closed tag identifying the semantic category of an error.
type Kind string

const (
	// KindInvalidRequest covers client-side shape errors.
	KindInvalidRequest Kind = "invalid_request"
	// KindUnsupportedVerifier marks an unconfigured privacy verifier kind.
	KindUnsupportedVerifier Kind = "unsupported_verifier"
	// KindUnsupportedPair marks an unconfigured token pair.
	KindUnsupportedPair Kind = "unsupported_pair"
	// KindUnsupportedFlow marks an unrecognized action flow.
	KindUnsupportedFlow Kind = "unsupported_flow"
	// KindBindingMismatch covers nullifier/commitment/intent-hash binding failures.
	KindBindingMismatch Kind = "binding_mismatch"
	// KindDummyPayloadRejected marks the [0x1] placeholder payload.
	KindDummyPayloadRejected Kind = "dummy_payload_rejected"
	// KindProverUnavailable covers external prover failure/timeout/malformed output.
	KindProverUnavailable Kind = "prover_unavailable"
	// KindTransientUpstream covers retried-then-exhausted RPC failures.
	KindTransientUpstream Kind = "transient_upstream"
	// KindReverted marks a finalized-but-reverted on-chain transaction.
	KindReverted Kind = "reverted"
	// KindTxNotFinalizedYet marks a receipt still PreConfirmed after the retry budget.
	KindTxNotFinalizedYet Kind = "tx_not_finalized_yet"
	// KindRateLimitExceeded marks a Redis counter breach.
	KindRateLimitExceeded Kind = "rate_limit_exceeded"
	// KindWashTradingDetected is internal-only; never surfaced to the end user.
	KindWashTradingDetected Kind = "wash_trading_detected"
	// KindInternalInvariant marks an invariant violation that must not corrupt state.
	KindInternalInvariant Kind = "internal_invariant"
)

// Error wraps an underlying error with a semantic Kind.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Reason + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, target) match when target is an *Error of the
// same Kind, whatever its Reason, e.g. errors.Is(err, cerr.New(kind, ""));
// callers should prefer cerr.HasKind(err, Kind) for clarity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Wrap builds an *Error of the given kind, wrapping an underlying error.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// HasKind reports whether err (or any error in its chain) carries the given Kind.
func HasKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// Reverted is the terminal error for a transaction whose receipt reports a revert.
func Reverted(reason string) *Error {
	return New(KindReverted, reason)
}
