// Package sqlstore implements the repository contract over database/sql via
// sqlx. Queries are written with ? placeholders and rebound per driver, so a
// single implementation serves both the PostgreSQL and the SQLite backend.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/openclinic-br/consultorio-api/internal/repository"
)

type Store struct {
	db  *sqlx.DB
	ext sqlx.ExtContext
}

// New wraps an open sqlx handle. The caller owns driver-specific setup
// (DSN, pragmas); see the postgres and sqlite packages.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, ext: db}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{store: s}
}

func (s *Store) Consultations() repository.ConsultationRepository {
	return &consultationRepository{store: s}
}

// WithTx executes fn against a transaction-scoped Store
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, ok := s.ext.(*sqlx.Tx); ok {
		// Already inside a transaction, reuse it.
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, ext: tx}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema for the handle's driver if it is not present.
func (s *Store) Migrate(ctx context.Context) error {
	var ddl string
	switch s.db.DriverName() {
	case "postgres":
		ddl = schemaPostgres
	case "sqlite3":
		ddl = schemaSQLite
	default:
		return fmt.Errorf("unsupported driver %q", s.db.DriverName())
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// rebind translates ? placeholders into the driver's bindvar style.
func (s *Store) rebind(query string) string {
	return s.ext.Rebind(query)
}

// isUniqueViolation reports whether err is a unique-constraint failure in
// either backend.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
