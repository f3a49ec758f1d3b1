// Package database opens the storefront's SQLite file and bootstraps its
// schema on first run.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/voltcart/storefront-api/internal/config"
)

func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates tables if they do not exist and applies idempotent seed
// data (categories and the admin account).
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, seedSQL); err != nil {
		return fmt.Errorf("apply seed data: %w", err)
	}
	return nil
}

// EnsureAdmin creates the admin account if it does not exist yet. The
// password is stored as a bcrypt hash like every other account.
func EnsureAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check admin account: %w", err)
	}
	if exists > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (email, password, name, role) VALUES (?, ?, 'Administrator', 'admin')`,
		email, hashed,
	)
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	return nil
}
