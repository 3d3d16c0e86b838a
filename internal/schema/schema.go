package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// DDL holds the CREATE TABLE statements for the three logical cache tables
// backing the Postgres Store implementation: authentication vectors, IMS
// subscription/registration-state documents, and the IMPI-to-IRS reverse
// index used to resolve associated primary public IDs during deregistration.
var DDL = []string{
	`CREATE TABLE IF NOT EXISTS impi_av (
		impi TEXT PRIMARY KEY,
		scheme TEXT NOT NULL,
		ha1 TEXT NOT NULL DEFAULT '',
		realm TEXT NOT NULL DEFAULT '',
		qop TEXT NOT NULL DEFAULT '',
		preferred_scheme TEXT NOT NULL DEFAULT '',
		challenge TEXT NOT NULL DEFAULT '',
		response TEXT NOT NULL DEFAULT '',
		cryptkey TEXT NOT NULL DEFAULT '',
		integritykey TEXT NOT NULL DEFAULT '',
		ts BIGINT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS impu_subscription (
		impu TEXT PRIMARY KEY,
		xml TEXT NOT NULL,
		reg_state TEXT NOT NULL,
		associated_impis TEXT[] NOT NULL DEFAULT '{}',
		charging_addresses TEXT NOT NULL DEFAULT '',
		ts BIGINT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS impi_impu_mapping (
		impi TEXT NOT NULL,
		default_impu TEXT NOT NULL,
		PRIMARY KEY (impi, default_impu)
	)`,
	`CREATE INDEX IF NOT EXISTS impi_impu_mapping_default_impu_idx ON impi_impu_mapping (default_impu)`,
}

// EnsureSchema applies the DDL against the given database, creating the
// cache tables if they do not already exist. Safe to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range DDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
