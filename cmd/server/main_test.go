package main

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func TestBootstrapStore_NilHandle(t *testing.T) {
	store, rootCfg, collections := bootstrapStore(context.Background(), nil, zap.NewNop())

	if store.Available() {
		t.Error("expected a disconnected store for a nil handle")
	}
	if rootCfg.Version != "0.0.0" {
		t.Errorf("version = %q; want default %q", rootCfg.Version, "0.0.0")
	}
	if len(collections) != 0 {
		t.Errorf("got %d collections; want 0", len(collections))
	}
}

func TestBootstrapStore_LoadFailureDegrades(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}

	mock.ExpectQuery("SELECT version, jwt_secret").
		WillReturnError(fmt.Errorf("relation does not exist"))
	mock.ExpectClose()

	store, rootCfg, collections := bootstrapStore(context.Background(), sqlDB, zap.NewNop())

	if store.Available() {
		t.Error("load failure must leave a disconnected store, not a crashed process")
	}
	if rootCfg.Version != "0.0.0" {
		t.Errorf("version = %q; want default %q", rootCfg.Version, "0.0.0")
	}
	if len(collections) != 0 {
		t.Errorf("got %d collections; want 0", len(collections))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestBootstrapStore_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT version, jwt_secret").
		WillReturnRows(sqlmock.NewRows([]string{
			"version", "jwt_secret",
			"mail_host", "mail_port", "mail_username", "mail_password", "mail_from",
			"oauth_client_id", "oauth_client_secret",
		}).AddRow("1.4.0", "secret", "", 0, "", "", "", "", ""))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT collection, word, meaning FROM words`)).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "word", "meaning"}).
			AddRow("animals", "cat", "feline pet"))

	store, rootCfg, collections := bootstrapStore(context.Background(), sqlDB, zap.NewNop())

	if !store.Available() {
		t.Error("expected a connected store")
	}
	if rootCfg.Version != "1.4.0" {
		t.Errorf("version = %q; want %q", rootCfg.Version, "1.4.0")
	}
	if collections["animals"]["cat"] != "feline pet" {
		t.Errorf("animals/cat = %q; want %q", collections["animals"]["cat"], "feline pet")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
