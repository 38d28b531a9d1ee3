package privacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/zkcarel/core/pkg/cerr"
	"github.com/zkcarel/core/pkg/felt"
)

// ProverRequest is the stdin payload handed to the external prover
// command.
type ProverRequest struct {
	UserAddress     string `json:"user_address"`
	Verifier        string `json:"verifier"`
	RequestedAtUnix int64  `json:"requested_at_unix"`
	TxContext       any    `json:"tx_context,omitempty"`

	// RequestID correlates one prover invocation across CmdProver's logs
	// and the external prover process's own logs, the same role the
	// teacher's batchID/proofID/jobID play for its HTTP handlers.
	// Callers generate it (uuid.New().String()); empty is valid and just
	// means the caller doesn't need correlation (e.g. MockProver in tests).
	RequestID string `json:"request_id,omitempty"`
}

// proverResponse is the JSON shape the external prover must write to
// stdout. Fields are intentionally loose (strings) since felts arrive
// as hex/decimal text before parsing.
type proverResponse struct {
	Nullifier    string   `json:"nullifier"`
	Commitment   string   `json:"commitment"`
	Proof        []string `json:"proof"`
	PublicInputs []string `json:"public_inputs"`
}

// Prover acquires a ProofPayload for a pending intent. CmdProver is the
// production implementation; MockProver exists for tests and local
// development without a real prover binary.
type Prover interface {
	Acquire(ctx context.Context, req ProverRequest) (*ProofPayload, error)
}

// CmdProver shells out to a configured external prover command, feeding
// it req as JSON on stdin and reading a ProofPayload as JSON from
// stdout, matching the teacher's exec.CommandContext + timeout idiom.
type CmdProver struct {
	cmd     string
	timeout time.Duration
}

// NewCmdProver builds a CmdProver. cmd is run via "sh -c", matching the
// original prover invocation's shell-wrapped command string; timeoutMS
// of 0 falls back to the spec's 45s default.
func NewCmdProver(cmd string, timeoutMS int) *CmdProver {
	if timeoutMS <= 0 {
		timeoutMS = 45_000
	}
	return &CmdProver{cmd: cmd, timeout: time.Duration(timeoutMS) * time.Millisecond}
}

// Acquire runs the configured prover command and parses its response.
func (p *CmdProver) Acquire(ctx context.Context, req ProverRequest) (*ProofPayload, error) {
	if p.cmd == "" {
		return nil, cerr.New(cerr.KindProverUnavailable, "no prover command configured")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdinPayload, err := json.Marshal(req)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindInternalInvariant, "marshal prover request", err)
	}

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", p.cmd)
	cmd.Stdin = bytes.NewReader(stdinPayload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() != nil {
		return nil, cerr.New(cerr.KindProverUnavailable, fmt.Sprintf("prover command timed out after %s [request_id=%s]", p.timeout, req.RequestID))
	}
	if runErr != nil {
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = runErr.Error()
		}
		return nil, cerr.New(cerr.KindProverUnavailable, fmt.Sprintf("prover command failed [request_id=%s]: %s", req.RequestID, reason))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if trimmed == "" {
		return nil, cerr.New(cerr.KindProverUnavailable, "prover command returned empty stdout")
	}

	var raw proverResponse
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, cerr.New(cerr.KindProverUnavailable, "prover command returned invalid JSON: "+err.Error())
	}

	return parseProverResponse(VerifierKind(req.Verifier), raw)
}

func parseProverResponse(verifier VerifierKind, raw proverResponse) (*ProofPayload, error) {
	if strings.TrimSpace(raw.Nullifier) == "" {
		return nil, cerr.New(cerr.KindProverUnavailable, "prover response missing non-empty nullifier")
	}
	if strings.TrimSpace(raw.Commitment) == "" {
		return nil, cerr.New(cerr.KindProverUnavailable, "prover response missing non-empty commitment")
	}
	if len(raw.Proof) == 0 || len(raw.PublicInputs) == 0 {
		return nil, cerr.New(cerr.KindProverUnavailable, "prover response has empty proof/public_inputs")
	}

	nullifier, err := felt.Parse(raw.Nullifier)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindProverUnavailable, "prover response nullifier", err)
	}
	commitment, err := felt.Parse(raw.Commitment)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindProverUnavailable, "prover response commitment", err)
	}
	proof, err := parseFeltStrings(raw.Proof)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindProverUnavailable, "prover response proof", err)
	}
	publicInputs, err := parseFeltStrings(raw.PublicInputs)
	if err != nil {
		return nil, cerr.Wrap(cerr.KindProverUnavailable, "prover response public_inputs", err)
	}

	payload := &ProofPayload{
		VerifierKind: verifier,
		Proof:        proof,
		PublicInputs: publicInputs,
		Commitment:   commitment,
		Nullifier:    nullifier,
	}
	if IsDummyPayload(payload) {
		return nil, cerr.New(cerr.KindDummyPayloadRejected, "prover response is still the dummy [0x1] placeholder")
	}
	return payload, nil
}

func parseFeltStrings(values []string) ([]felt.Felt, error) {
	out := make([]felt.Felt, len(values))
	for i, v := range values {
		f, err := felt.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// MockProver returns a fixed payload or error, for tests and local
// development without a real prover binary.
type MockProver struct {
	Payload *ProofPayload
	Err     error
}

// Acquire returns the configured fixed result.
func (p *MockProver) Acquire(ctx context.Context, req ProverRequest) (*ProofPayload, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Payload, nil
}
