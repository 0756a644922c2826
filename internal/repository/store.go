// Package repository provides the persistence layer over the document store:
// quiz word records, user records and the root configuration record.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imorozov/wordquiz/internal/models"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrStoreUnavailable is returned when the store connection was never
	// established and the server runs with an empty cache.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store implements durable key/value access against a PostgreSQL database.
// A Store constructed with a nil handle stays usable: every operation
// reports ErrStoreUnavailable, which is what degraded mode relies on.
type Store struct {
	// DB is the database handle for executing queries. Nil in degraded mode.
	DB *sql.DB
}

// NewStore creates a new Store with the given database connection.
// db may be nil, in which case all operations fail with ErrStoreUnavailable.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Available reports whether the store connection was established.
func (s *Store) Available() bool {
	return s != nil && s.DB != nil
}

// Load reads the root configuration record and enumerates every quiz
// collection with its full word contents. It is called once during startup
// to seed the in-memory cache.
//
// A missing root record is not an error: a zero-valued RootConfig is
// returned so a fresh database still boots.
func (s *Store) Load(ctx context.Context) (*models.RootConfig, map[string]models.QuizCollection, error) {
	if !s.Available() {
		return nil, nil, ErrStoreUnavailable
	}

	cfg := &models.RootConfig{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT version, jwt_secret,
		       mail_host, mail_port, mail_username, mail_password, mail_from,
		       oauth_client_id, oauth_client_secret
		FROM app_config WHERE id = 1
	`).Scan(
		&cfg.Version, &cfg.JWTSecret,
		&cfg.Mail.Host, &cfg.Mail.Port, &cfg.Mail.Username, &cfg.Mail.Password, &cfg.Mail.From,
		&cfg.OAuth.ClientID, &cfg.OAuth.ClientSecret,
	)
	if errors.Is(err, sql.ErrNoRows) {
		cfg = &models.RootConfig{Version: "0.0.0"}
	} else if err != nil {
		return nil, nil, fmt.Errorf("load root config: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT collection, word, meaning FROM words`)
	if err != nil {
		return nil, nil, fmt.Errorf("enumerate collections: %w", err)
	}
	defer rows.Close()

	collections := make(map[string]models.QuizCollection)
	for rows.Next() {
		var entry models.WordEntry
		if err := rows.Scan(&entry.Collection, &entry.Word, &entry.Meaning); err != nil {
			return nil, nil, fmt.Errorf("scan word: %w", err)
		}
		col, ok := collections[entry.Collection]
		if !ok {
			col = models.QuizCollection{}
			collections[entry.Collection] = col
		}
		col[entry.Word] = entry.Meaning
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("enumerate collections: %w", err)
	}

	return cfg, collections, nil
}

// UpsertWord writes or replaces the record keyed by word within collection,
// creating the collection implicitly if absent. Idempotent.
func (s *Store) UpsertWord(ctx context.Context, collection, word, meaning string) error {
	if !s.Available() {
		return ErrStoreUnavailable
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO words (collection, word, meaning)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, word) DO UPDATE SET meaning = EXCLUDED.meaning
	`, collection, word, meaning)
	if err != nil {
		return fmt.Errorf("upsert word: %w", err)
	}
	return nil
}

// GetUser fetches the user record keyed by email.
// Returns ErrNotFound when no such user exists.
func (s *Store) GetUser(ctx context.Context, email string) (*models.User, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}

	var (
		user    models.User
		maxTime sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT email, password_hash, verified, session_hash, max_session_time, created_at
		FROM users WHERE email = $1
	`, email).Scan(&user.Email, &user.PasswordHash, &user.Verified, &user.SessionHash, &maxTime, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if maxTime.Valid {
		user.MaxSessionTime = maxTime.Time
	}
	return &user, nil
}

// UpsertUser merge-writes the user record keyed by email: only non-nil
// fields of upd overwrite stored values, everything else is preserved.
// The record is created if absent.
func (s *Store) UpsertUser(ctx context.Context, email string, upd models.UserUpdate) error {
	if !s.Available() {
		return ErrStoreUnavailable
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, verified, session_hash, max_session_time)
		VALUES ($1, $2, COALESCE($3, FALSE), $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			password_hash    = COALESCE($2, users.password_hash),
			verified         = COALESCE($3, users.verified),
			session_hash     = COALESCE($4, users.session_hash),
			max_session_time = COALESCE($5, users.max_session_time)
	`, email, upd.PasswordHash, upd.Verified, upd.SessionHash, upd.MaxSessionTime)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// IsAdmin checks whether the given email is a member of the privileged set.
func (s *Store) IsAdmin(ctx context.Context, email string) (bool, error) {
	if !s.Available() {
		return false, ErrStoreUnavailable
	}

	var admin bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`,
		email,
	).Scan(&admin)
	if err != nil {
		return false, fmt.Errorf("admin lookup: %w", err)
	}
	return admin, nil
}

// Close releases the store connection. Safe to call multiple times and on
// a Store that never connected.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.DB.Close()
}
