package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TransactionRepository provides at-most-once ingestion and lookups over
// the transactions table.
type TransactionRepository struct {
	client *Client
}

// NewTransactionRepository builds a repository bound to client.
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{client: client}
}

// Insert inserts a Transaction, returning (inserted=false, nil) when the
// tx_hash already exists instead of erroring, enforcing at-most-once
// ingestion by primary key.
func (r *TransactionRepository) Insert(ctx context.Context, tx Transaction) (bool, error) {
	res, err := r.client.ExecContext(ctx, `
		INSERT INTO transactions (
			tx_hash, block_number, user_address, action_kind,
			token_in, token_out, amount_in, amount_out,
			usd_value, fee_paid, points_earned, occurred_at, processed, is_private
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (tx_hash) DO NOTHING`,
		tx.TxHash, tx.BlockNumber, tx.UserAddress, tx.ActionKind,
		tx.TokenIn, tx.TokenOut, tx.AmountIn, tx.AmountOut,
		tx.USDValue, tx.FeePaid, tx.PointsEarned, tx.OccurredAt, tx.Processed, tx.IsPrivate,
	)
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", tx.TxHash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for %s: %w", tx.TxHash, err)
	}
	return n > 0, nil
}

// Get fetches a Transaction by tx_hash.
func (r *TransactionRepository) Get(ctx context.Context, txHash string) (*Transaction, error) {
	row := r.client.QueryRowContext(ctx, `
		SELECT tx_hash, block_number, user_address, action_kind,
		       token_in, token_out, amount_in, amount_out,
		       usd_value, fee_paid, points_earned, occurred_at, processed, is_private
		FROM transactions WHERE tx_hash = $1`, txHash)

	var tx Transaction
	err := row.Scan(
		&tx.TxHash, &tx.BlockNumber, &tx.UserAddress, &tx.ActionKind,
		&tx.TokenIn, &tx.TokenOut, &tx.AmountIn, &tx.AmountOut,
		&tx.USDValue, &tx.FeePaid, &tx.PointsEarned, &tx.OccurredAt, &tx.Processed, &tx.IsPrivate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", txHash, err)
	}
	return &tx, nil
}

// ListUnprocessed returns unprocessed rows in occurred_at ASC order, the
// order the point calculator is expected to apply them in (advisory, not
// causal).
func (r *TransactionRepository) ListUnprocessed(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := r.client.QueryContext(ctx, `
		SELECT tx_hash, block_number, user_address, action_kind,
		       token_in, token_out, amount_in, amount_out,
		       usd_value, fee_paid, points_earned, occurred_at, processed, is_private
		FROM transactions WHERE processed = false
		ORDER BY occurred_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.TxHash, &tx.BlockNumber, &tx.UserAddress, &tx.ActionKind,
			&tx.TokenIn, &tx.TokenOut, &tx.AmountIn, &tx.AmountOut,
			&tx.USDValue, &tx.FeePaid, &tx.PointsEarned, &tx.OccurredAt, &tx.Processed, &tx.IsPrivate,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CountRecentSwaps counts swap-kind transactions for a user that occurred
// at or after since, excluding the transaction identified by
// excludeTxHash, for the wash-trading guard.
func (r *TransactionRepository) CountRecentSwaps(ctx context.Context, userAddress string, since time.Time, excludeTxHash string) (int, error) {
	var count int
	err := r.client.QueryRowContext(ctx, `
		SELECT count(*) FROM transactions
		WHERE user_address = $1 AND action_kind = 'swap'
		  AND occurred_at >= $2 AND tx_hash != $3`,
		userAddress, since, excludeTxHash,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recent swaps for %s: %w", userAddress, err)
	}
	return count, nil
}

// MarkProcessed flips processed=true for a transaction, the only mutation
// permitted on a ledger row after it is written.
func (r *TransactionRepository) MarkProcessed(ctx context.Context, txHash string, pointsEarned float64) error {
	_, err := r.client.ExecContext(ctx,
		`UPDATE transactions SET processed = true, points_earned = $2 WHERE tx_hash = $1`,
		txHash, pointsEarned)
	if err != nil {
		return fmt.Errorf("mark processed %s: %w", txHash, err)
	}
	return nil
}
