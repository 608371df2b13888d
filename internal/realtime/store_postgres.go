package realtime

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a MessageStore backed by PostgreSQL.
//
// Ownership model:
// - PostgresStore does NOT own the pgx pool. The caller must close the pool.
// - Close() is therefore a no-op.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the DB schema used by this store (default: "forever").
// The schema name is validated and safely quoted in queries.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("realtime: empty schema")
		}
		if !isValidPGIdent(schema) {
			return errors.New("realtime: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed MessageStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "forever",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("realtime: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// SaveMessage inserts the message and returns the durable record. The id is
// a ULID allocated here; created_at is the server clock at insert time.
func (s *PostgresStore) SaveMessage(ctx context.Context, in SaveMessageInput) (ChatMessage, error) {
	if s == nil || s.pool == nil {
		return ChatMessage{}, errors.New("realtime: nil store")
	}
	if in.Sender == "" || in.Recipient == "" || in.Content == "" {
		return ChatMessage{}, errors.New("invalid input")
	}
	if err := ctx.Err(); err != nil {
		return ChatMessage{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewMessageID(now)
	if err != nil {
		return ChatMessage{}, err
	}

	ct := in.ContentType
	if ct == "" {
		ct = "text"
	}

	messages := pgIdent(s.schema, "messages")

	var m ChatMessage
	err = s.pool.QueryRow(ctx,
		`INSERT INTO `+messages+` (id, sender, recipient, content, content_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, sender, recipient, content, content_type, created_at`,
		id, in.Sender, in.Recipient, in.Content, ct, now,
	).Scan(&m.ID, &m.Sender, &m.Recipient, &m.Content, &m.ContentType, &m.CreatedAt)
	if err != nil {
		return ChatMessage{}, err
	}
	return m, nil
}

// History returns the two-party conversation window ordered by created_at ASC.
// The query fetches limit+1 rows descending from the cursor, then reverses.
func (s *PostgresStore) History(ctx context.Context, in HistoryInput) (HistoryResult, error) {
	if s == nil || s.pool == nil {
		return HistoryResult{}, errors.New("realtime: nil store")
	}
	if in.UserA == "" || in.UserB == "" {
		return HistoryResult{}, errors.New("invalid input")
	}
	if err := ctx.Err(); err != nil {
		return HistoryResult{}, err
	}

	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}

	messages := pgIdent(s.schema, "messages")

	q := `SELECT id, sender, recipient, content, content_type, created_at
	        FROM ` + messages + `
	       WHERE ((sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1))`
	args := []any{in.UserA, in.UserB}
	if !in.Before.IsZero() {
		q += ` AND created_at < $3`
		args = append(args, in.Before)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit+1)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return HistoryResult{}, err
	}
	defer rows.Close()

	var desc []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Content, &m.ContentType, &m.CreatedAt); err != nil {
			return HistoryResult{}, err
		}
		desc = append(desc, m)
	}
	if err := rows.Err(); err != nil {
		return HistoryResult{}, err
	}

	hasMore := false
	if len(desc) > limit {
		hasMore = true
		desc = desc[:limit]
	}

	out := make([]ChatMessage, len(desc))
	for i, m := range desc {
		out[len(desc)-1-i] = m
	}
	return HistoryResult{Messages: out, HasMore: hasMore}, nil
}

var pgIdentRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isValidPGIdent(s string) bool {
	return pgIdentRE.MatchString(s)
}

func pgIdent(schema, table string) string {
	// pgx.Identifier safely quotes identifiers, preventing SQL injection.
	return pgx.Identifier{schema, table}.Sanitize()
}
