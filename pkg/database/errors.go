// Package database provides sentinel errors for repository operations,
// returned instead of bare nils so callers can branch with errors.Is.

package database

import "errors"

var (
	// ErrTransactionNotFound is returned when no ledger row matches a tx_hash.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrEpochPointsNotFound is returned when no (user, epoch) row exists.
	ErrEpochPointsNotFound = errors.New("epoch points not found")

	// ErrLinkedWalletNotFound is returned when no (user, chain) row exists.
	ErrLinkedWalletNotFound = errors.New("linked wallet not found")

	// ErrMerkleRootNotFound is returned when no root has been persisted for an epoch.
	ErrMerkleRootNotFound = errors.New("merkle root not found")

	// ErrCursorNotFound is returned when the indexer cursor has never been persisted.
	ErrCursorNotFound = errors.New("indexer cursor not found")
)
