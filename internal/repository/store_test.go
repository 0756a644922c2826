package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/imorozov/wordquiz/internal/models"
)

func setupStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	store := NewStore(db)
	cleanup := func() { db.Close() }
	return store, mock, cleanup
}

func TestLoad_RootConfigAndCollections(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT version, jwt_secret").
		WillReturnRows(sqlmock.NewRows([]string{
			"version", "jwt_secret",
			"mail_host", "mail_port", "mail_username", "mail_password", "mail_from",
			"oauth_client_id", "oauth_client_secret",
		}).AddRow("1.2.0", "secret", "smtp.example.com", 587, "relay", "pw", "quiz@example.com", "cid", "csecret"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT collection, word, meaning FROM words`)).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "word", "meaning"}).
			AddRow("animals", "cat", "feline pet").
			AddRow("animals", "dog", "canine pet").
			AddRow("colors", "red", "color of blood"))

	cfg, collections, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Version != "1.2.0" {
		t.Errorf("version = %q; want %q", cfg.Version, "1.2.0")
	}
	if cfg.Mail.Host != "smtp.example.com" || cfg.Mail.Port != 587 {
		t.Errorf("mail credentials not loaded: %+v", cfg.Mail)
	}
	if len(collections) != 2 {
		t.Fatalf("got %d collections; want 2", len(collections))
	}
	if collections["animals"]["dog"] != "canine pet" {
		t.Errorf("animals/dog = %q; want %q", collections["animals"]["dog"], "canine pet")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestLoad_MissingRootConfig(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT version, jwt_secret").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT collection, word, meaning FROM words`)).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "word", "meaning"}))

	cfg, collections, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Version != "0.0.0" {
		t.Errorf("version = %q; want default %q", cfg.Version, "0.0.0")
	}
	if len(collections) != 0 {
		t.Errorf("got %d collections; want 0", len(collections))
	}
}

func TestUpsertWord(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO words").
		WithArgs("animals", "cat", "feline pet").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpsertWord(context.Background(), "animals", "cat", "feline pet"); err != nil {
		t.Fatalf("UpsertWord returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUser_Found(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	maxTime := created.Add(12 * time.Hour)

	mock.ExpectQuery("SELECT email, password_hash").
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"email", "password_hash", "verified", "session_hash", "max_session_time", "created_at",
		}).AddRow("a@b.com", []byte("pw-hash"), true, []byte("sess-hash"), maxTime, created))

	user, err := store.GetUser(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if user.Email != "a@b.com" || !user.Verified {
		t.Errorf("unexpected user: %+v", user)
	}
	if !user.MaxSessionTime.Equal(maxTime) {
		t.Errorf("MaxSessionTime = %v; want %v", user.MaxSessionTime, maxTime)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT email, password_hash").
		WithArgs("ghost@b.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"email", "password_hash", "verified", "session_hash", "max_session_time", "created_at",
		}))

	_, err := store.GetUser(context.Background(), "ghost@b.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser error = %v; want ErrNotFound", err)
	}
}

func TestUpsertUser_PartialFields(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	verified := true
	mock.ExpectExec("INSERT INTO users").
		WithArgs("a@b.com", nil, &verified, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertUser(context.Background(), "a@b.com", models.UserUpdate{Verified: &verified})
	if err != nil {
		t.Fatalf("UpsertUser returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	store, mock, cleanup := setupStoreMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM admins WHERE email = $1)`)).
		WithArgs("root@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	admin, err := store.IsAdmin(context.Background(), "root@b.com")
	if err != nil {
		t.Fatalf("IsAdmin returned error: %v", err)
	}
	if !admin {
		t.Errorf("expected admin, got false")
	}
}

func TestDegradedStore(t *testing.T) {
	store := NewStore(nil)

	if _, _, err := store.Load(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Load error = %v; want ErrStoreUnavailable", err)
	}
	if err := store.UpsertWord(context.Background(), "c", "w", "m"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("UpsertWord error = %v; want ErrStoreUnavailable", err)
	}
	if _, err := store.GetUser(context.Background(), "a@b.com"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("GetUser error = %v; want ErrStoreUnavailable", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close on degraded store returned error: %v", err)
	}
	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}
