package api

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresContactStore is a ContactStore backed by PostgreSQL.
// The pool is owned by the caller; Close is a no-op.
type PostgresContactStore struct {
	pool *pgxpool.Pool
}

// NewPostgresContactStore constructs a Postgres-backed ContactStore.
func NewPostgresContactStore(pool *pgxpool.Pool) (*PostgresContactStore, error) {
	if pool == nil {
		return nil, errors.New("api: nil pool")
	}
	return &PostgresContactStore{pool: pool}, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresContactStore) Close() error { return nil }

// AddContact stores both directions of the link in one transaction.
func (s *PostgresContactStore) AddContact(ctx context.Context, userID, contactID string, now time.Time) error {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO forever.contacts (user_id, contact_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, contact_id) DO NOTHING`,
		userID, contactID, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactExists
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO forever.contacts (user_id, contact_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, contact_id) DO NOTHING`,
		contactID, userID, now,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ContactsOf returns the contact ids of the user ordered by add time.
func (s *PostgresContactStore) ContactsOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT contact_id FROM forever.contacts WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
