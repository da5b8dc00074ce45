// Package sqlite opens the embedded single-file storage backend.
package sqlite

import (
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/openclinic-br/consultorio-api/internal/config"
	"github.com/openclinic-br/consultorio-api/internal/repository/sqlstore"
)

func NewStore(cfg config.SQLiteConfig) (*sqlstore.Store, error) {
	// case_sensitive_like keeps name search behaviour identical to the
	// PostgreSQL backend.
	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_case_sensitive_like=on&_loc=UTC&_busy_timeout=5000",
		url.PathEscape(cfg.Path),
	)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	return sqlstore.New(db), nil
}
