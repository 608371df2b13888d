package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MSC-0013/FOREVER/internal/ids"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore is a UserStore backed by PostgreSQL.
// The pool is owned by the caller; Close is a no-op.
type PostgresUserStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresUserStore constructs a Postgres-backed UserStore.
func NewPostgresUserStore(pool *pgxpool.Pool) (*PostgresUserStore, error) {
	if pool == nil {
		return nil, errors.New("auth: nil pool")
	}
	return &PostgresUserStore{pool: pool, schema: "forever"}, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresUserStore) Close() error { return nil }

// CreateUser inserts a new account; ErrUsernameTaken on unique violation.
func (s *PostgresUserStore) CreateUser(ctx context.Context, u User) (User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return User{}, errors.New("auth: empty username")
	}

	if u.ID == "" {
		id, err := ids.NewULID(time.Now().UTC())
		if err != nil {
			return User{}, err
		}
		u.ID = id
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO forever.users (id, username, display_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.DisplayName, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

// UserByUsername returns the account or ErrUserNotFound.
func (s *PostgresUserStore) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanOne(ctx,
		`SELECT id, username, display_name, password_hash, created_at
		   FROM forever.users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username),
	)
}

// UserByID returns the account or ErrUserNotFound.
func (s *PostgresUserStore) UserByID(ctx context.Context, id string) (User, error) {
	return s.scanOne(ctx,
		`SELECT id, username, display_name, password_hash, created_at
		   FROM forever.users WHERE id = $1`,
		id,
	)
}

// SearchUsers returns accounts matching the username prefix, excluding excludeID.
func (s *PostgresUserStore) SearchUsers(ctx context.Context, prefix, excludeID string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 20
	}
	prefix = strings.TrimSpace(prefix)

	rows, err := s.pool.Query(ctx,
		`SELECT id, username, display_name, password_hash, created_at
		   FROM forever.users
		  WHERE username ILIKE $1 || '%' AND id <> $2
		  ORDER BY username ASC
		  LIMIT $3`,
		prefix, excludeID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresUserStore) scanOne(ctx context.Context, q string, arg any) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
