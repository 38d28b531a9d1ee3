// Command proofcli shells out to a configured prover binary and prints
// the resulting ProofPayload as JSON, for operators debugging prover
// integration without running the full server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zkcarel/core/pkg/config"
	"github.com/zkcarel/core/pkg/privacy"
)

func main() {
	var (
		userAddress = flag.String("user", "", "user address the proof is requested for")
		verifier    = flag.String("verifier", "garaga", "verifier kind: garaga|tongo|semaphore")
		proverCmd   = flag.String("prover-cmd", "", "override PROVER_CMD for this invocation")
	)
	flag.Parse()

	if *userAddress == "" {
		fmt.Fprintln(os.Stderr, "error: -user is required")
		flag.Usage()
		os.Exit(2)
	}

	kind, err := privacy.ParseVerifierKind(*verifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cmd := cfg.ProverCmd
	if *proverCmd != "" {
		cmd = *proverCmd
	}

	prover := privacy.NewCmdProver(cmd, cfg.ProverTimeoutMS)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ProverTimeoutMS)*time.Millisecond+time.Second)
	defer cancel()

	requestID := uuid.New().String()
	payload, err := prover.Acquire(ctx, privacy.ProverRequest{
		UserAddress:     *userAddress,
		Verifier:        string(kind),
		RequestedAtUnix: time.Now().Unix(),
		RequestID:       requestID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "prover error [request_id=%s]: %v\n", requestID, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error encoding proof payload: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
