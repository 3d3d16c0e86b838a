package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearwater-ims/homestead/internal/config"
	"github.com/clearwater-ims/homestead/internal/schema"
	"github.com/lib/pq"
	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL, against the fixed
// three-table schema applied by internal/schema.EnsureSchema.
type PostgresStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewPostgresStore opens a new connection pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, pool config.PostgresPoolConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	config.ApplyPostgresPoolSettings(db, pool)

	if err := schema.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{db: db, ownsDB: true}, nil
}

// NewPostgresStoreWithDB builds a PostgresStore over a pool owned elsewhere
// (e.g. internal/dbpool.SharedPool), so Close is a no-op.
func NewPostgresStoreWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if err := schema.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db, ownsDB: false}, nil
}

// GetAV returns the stored AV for impi, or ErrNotFound.
func (s *PostgresStore) GetAV(ctx context.Context, impi string) (AV, error) {
	const query = `
		SELECT scheme, ha1, realm, qop, preferred_scheme, challenge, response, cryptkey, integritykey, expires_at
		FROM impi_av
		WHERE impi = $1
	`
	var av AV
	var scheme string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx, query, impi).Scan(
		&scheme, &av.HA1, &av.Realm, &av.QOP, &av.PreferredScheme,
		&av.Challenge, &av.Response, &av.CryptKey, &av.IntegrityKey, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return AV{}, ErrNotFound
	}
	if err != nil {
		return AV{}, fmt.Errorf("get av: %w", err)
	}
	if time.Now().After(expiresAt) {
		return AV{}, ErrNotFound
	}
	av.Scheme = AVScheme(scheme)
	return av, nil
}

// PutAV upserts the AV for impi, last-write-wins by ts.
func (s *PostgresStore) PutAV(ctx context.Context, impi string, av AV, ts int64, ttl time.Duration) error {
	const query = `
		INSERT INTO impi_av (impi, scheme, ha1, realm, qop, preferred_scheme, challenge, response, cryptkey, integritykey, ts, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (impi) DO UPDATE SET
			scheme = EXCLUDED.scheme,
			ha1 = EXCLUDED.ha1,
			realm = EXCLUDED.realm,
			qop = EXCLUDED.qop,
			preferred_scheme = EXCLUDED.preferred_scheme,
			challenge = EXCLUDED.challenge,
			response = EXCLUDED.response,
			cryptkey = EXCLUDED.cryptkey,
			integritykey = EXCLUDED.integritykey,
			ts = EXCLUDED.ts,
			expires_at = EXCLUDED.expires_at
		WHERE impi_av.ts <= EXCLUDED.ts
	`
	_, err := s.db.ExecContext(ctx, query,
		impi, string(av.Scheme), av.HA1, av.Realm, av.QOP, av.PreferredScheme,
		av.Challenge, av.Response, av.CryptKey, av.IntegrityKey, ts, time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("put av: %w", err)
	}
	return nil
}

// GetIMSSubscription returns the subscription row for impu, or ErrNotFound.
func (s *PostgresStore) GetIMSSubscription(ctx context.Context, impu string) (IMSSubscription, error) {
	const query = `
		SELECT xml, reg_state, associated_impis, charging_addresses, expires_at
		FROM impu_subscription
		WHERE impu = $1
	`
	var sub IMSSubscription
	var regState string

	err := s.db.QueryRowContext(ctx, query, impu).Scan(&sub.XML, &regState, pq.Array(&sub.AssociatedImpis), &sub.ChargingAddresses, &sub.ExpiresAt)
	if err == sql.ErrNoRows {
		return IMSSubscription{}, ErrNotFound
	}
	if err != nil {
		return IMSSubscription{}, fmt.Errorf("get ims subscription: %w", err)
	}
	if time.Now().After(sub.ExpiresAt) {
		return IMSSubscription{}, ErrNotFound
	}
	sub.RegState = RegState(regState)
	return sub, nil
}

// PutIMSSubscription writes an identical row for every IMPU in impus,
// recording associatedImpis and mapping each of them to the default IMPU
// (impus[0]) in impi_impu_mapping. A RegStateUnchanged write preserves
// whatever reg_state each row already has.
func (s *PostgresStore) PutIMSSubscription(ctx context.Context, impus []string, associatedImpis []string, xml string, chargingAddresses string, regState RegState, ts int64, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put ims subscription: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, impu := range impus {
		state := regState
		if state == RegStateUnchanged {
			var existing string
			err := tx.QueryRowContext(ctx, `SELECT reg_state FROM impu_subscription WHERE impu = $1`, impu).Scan(&existing)
			if err == sql.ErrNoRows {
				state = RegStateNotRegistered
			} else if err != nil {
				return fmt.Errorf("put ims subscription %s: read existing reg_state: %w", impu, err)
			} else {
				state = RegState(existing)
			}
		}

		const query = `
			INSERT INTO impu_subscription (impu, xml, reg_state, associated_impis, charging_addresses, ts, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (impu) DO UPDATE SET
				xml = EXCLUDED.xml,
				reg_state = EXCLUDED.reg_state,
				associated_impis = EXCLUDED.associated_impis,
				charging_addresses = EXCLUDED.charging_addresses,
				ts = EXCLUDED.ts,
				expires_at = EXCLUDED.expires_at
			WHERE impu_subscription.ts <= EXCLUDED.ts
		`
		if _, err := tx.ExecContext(ctx, query, impu, xml, string(state), pq.Array(associatedImpis), chargingAddresses, ts, expiresAt); err != nil {
			return fmt.Errorf("put ims subscription %s: %w", impu, err)
		}
	}

	if len(impus) > 0 && len(associatedImpis) > 0 {
		defaultImpu := impus[0]
		const mappingQuery = `
			INSERT INTO impi_impu_mapping (impi, default_impu)
			VALUES ($1, $2)
			ON CONFLICT (impi, default_impu) DO NOTHING
		`
		for _, impi := range associatedImpis {
			if _, err := tx.ExecContext(ctx, mappingQuery, impi, defaultImpu); err != nil {
				return fmt.Errorf("put ims subscription: map %s to %s: %w", impi, defaultImpu, err)
			}
		}
	}

	return tx.Commit()
}

// GetAssociatedPrimaryPublicIDs returns the flat union of default IMPUs
// mapped to by the given IMPIs.
func (s *PostgresStore) GetAssociatedPrimaryPublicIDs(ctx context.Context, impis []string) ([]string, error) {
	if len(impis) == 0 {
		return nil, nil
	}

	const query = `SELECT DISTINCT default_impu FROM impi_impu_mapping WHERE impi = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(impis))
	if err != nil {
		return nil, fmt.Errorf("get associated primary public ids: %w", err)
	}
	defer rows.Close()

	var impus []string
	for rows.Next() {
		var impu string
		if err := rows.Scan(&impu); err != nil {
			return nil, fmt.Errorf("scan default_impu: %w", err)
		}
		impus = append(impus, impu)
	}
	return impus, rows.Err()
}

// DissociateImplicitRegistrationSetFromImpi clears the impu_subscription
// rows for impus and their impi_impu_mapping rows against impis.
func (s *PostgresStore) DissociateImplicitRegistrationSetFromImpi(ctx context.Context, impus []string, impis []string, ts int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dissociate: begin tx: %w", err)
	}
	defer tx.Rollback()

	if len(impus) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM impu_subscription WHERE impu = ANY($1)`, pq.Array(impus)); err != nil {
			return fmt.Errorf("dissociate: delete subscriptions: %w", err)
		}
	}
	if len(impis) > 0 && len(impus) > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM impi_impu_mapping WHERE impi = ANY($1) AND default_impu = ANY($2)`,
			pq.Array(impis), pq.Array(impus),
		); err != nil {
			return fmt.Errorf("dissociate: delete mappings: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteIMPIMapping removes all impi_impu_mapping rows for the given IMPIs.
func (s *PostgresStore) DeleteIMPIMapping(ctx context.Context, impis []string, ts int64) error {
	if len(impis) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM impi_impu_mapping WHERE impi = ANY($1)`, pq.Array(impis)); err != nil {
		return fmt.Errorf("delete impi mapping: %w", err)
	}
	return nil
}

// Close closes the underlying database connection, unless it is shared.
func (s *PostgresStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
