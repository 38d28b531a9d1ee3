package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CursorRepository persists the indexer's last_indexed_block so that a
// restart resumes from where it left off instead of replaying or
// skipping blocks.
type CursorRepository struct {
	client *Client
}

// NewCursorRepository builds a repository bound to client.
func NewCursorRepository(client *Client) *CursorRepository {
	return &CursorRepository{client: client}
}

// Get returns the last persisted cursor for watcherName, or
// ErrCursorNotFound if indexing has never run.
func (r *CursorRepository) Get(ctx context.Context, watcherName string) (int64, error) {
	var block int64
	err := r.client.QueryRowContext(ctx,
		`SELECT last_indexed_block FROM indexer_cursor WHERE watcher_name = $1`, watcherName,
	).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCursorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get cursor %s: %w", watcherName, err)
	}
	return block, nil
}

// Advance persists the new cursor value. The indexer only calls this
// after a tick's block range has been fully, successfully ingested.
func (r *CursorRepository) Advance(ctx context.Context, watcherName string, block int64) error {
	_, err := r.client.ExecContext(ctx, `
		INSERT INTO indexer_cursor (watcher_name, last_indexed_block)
		VALUES ($1, $2)
		ON CONFLICT (watcher_name) DO UPDATE SET last_indexed_block = EXCLUDED.last_indexed_block`,
		watcherName, block,
	)
	if err != nil {
		return fmt.Errorf("advance cursor %s to %d: %w", watcherName, block, err)
	}
	return nil
}
