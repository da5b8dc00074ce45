// Package postgres opens the client/server storage backend.
package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/openclinic-br/consultorio-api/internal/config"
	"github.com/openclinic-br/consultorio-api/internal/repository/sqlstore"
)

func NewStore(cfg config.PostgresConfig) (*sqlstore.Store, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return sqlstore.New(db), nil
}
