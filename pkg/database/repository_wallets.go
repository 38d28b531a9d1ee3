package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WalletRepository enforces the at-most-one-address-per-chain invariant
// over linked_wallets.
type WalletRepository struct {
	client *Client
}

// NewWalletRepository builds a repository bound to client.
func NewWalletRepository(client *Client) *WalletRepository {
	return &WalletRepository{client: client}
}

// Link upserts the address a user has registered for a chain, replacing
// any previously linked address for that (user, chain) pair.
func (r *WalletRepository) Link(ctx context.Context, w LinkedWallet) error {
	_, err := r.client.ExecContext(ctx, `
		INSERT INTO linked_wallets (user_address, chain, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_address, chain) DO UPDATE SET address = EXCLUDED.address`,
		w.UserAddress, w.Chain, w.Address,
	)
	if err != nil {
		return fmt.Errorf("link wallet %s/%s: %w", w.UserAddress, w.Chain, err)
	}
	return nil
}

// ListForUser returns every linked address across chains for a user,
// the allowed_senders surface C4 checks a tx's sender against.
func (r *WalletRepository) ListForUser(ctx context.Context, userAddress string) ([]LinkedWallet, error) {
	rows, err := r.client.QueryContext(ctx,
		`SELECT user_address, chain, address FROM linked_wallets WHERE user_address = $1`, userAddress)
	if err != nil {
		return nil, fmt.Errorf("list wallets for %s: %w", userAddress, err)
	}
	defer rows.Close()

	var out []LinkedWallet
	for rows.Next() {
		var w LinkedWallet
		if err := rows.Scan(&w.UserAddress, &w.Chain, &w.Address); err != nil {
			return nil, fmt.Errorf("scan linked wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Get fetches the address a user has linked for a specific chain.
func (r *WalletRepository) Get(ctx context.Context, userAddress, chain string) (*LinkedWallet, error) {
	row := r.client.QueryRowContext(ctx,
		`SELECT user_address, chain, address FROM linked_wallets WHERE user_address = $1 AND chain = $2`,
		userAddress, chain)

	var w LinkedWallet
	err := row.Scan(&w.UserAddress, &w.Chain, &w.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkedWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get linked wallet %s/%s: %w", userAddress, chain, err)
	}
	return &w, nil
}
