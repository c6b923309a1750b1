package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/facwatch/internal/db"
	"github.com/sells-group/facwatch/internal/model"
)

// PoolConfig sizes the postgres connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// Statements prepared on every new connection. Keyed by name so the
// AfterConnect hook can report which one failed.
var preparedStatements = map[string]string{
	"get_target":    `SELECT id, display_name, url, mode, enabled, strategy_key, notify_email FROM targets WHERE id = $1`,
	"get_snapshot":  `SELECT data FROM person_records WHERE target_id = $1 ORDER BY first_seen, identity`,
	"delete_target": `DELETE FROM targets WHERE id = $1`,
}

// NewPostgres connects to postgres and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, cfg PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}

	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	if cfg.MinConns <= 0 {
		cfg.MinConns = 2
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS targets (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	url          TEXT NOT NULL,
	mode         TEXT NOT NULL DEFAULT 'static',
	enabled      BOOLEAN NOT NULL DEFAULT TRUE,
	strategy_key TEXT NOT NULL DEFAULT '',
	notify_email TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS person_records (
	target_id     TEXT NOT NULL REFERENCES targets(id),
	identity      TEXT NOT NULL,
	data          JSONB NOT NULL,
	status        TEXT NOT NULL,
	first_seen    TIMESTAMPTZ NOT NULL,
	last_verified TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (target_id, identity)
);

CREATE TABLE IF NOT EXISTS new_contacts (
	id        TEXT PRIMARY KEY,
	target_id TEXT NOT NULL,
	identity  TEXT NOT NULL,
	name      TEXT NOT NULL,
	email     TEXT,
	title     TEXT,
	found_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS run_outcomes (
	id          TEXT PRIMARY KEY,
	target_id   TEXT NOT NULL,
	status      TEXT NOT NULL,
	records     INTEGER NOT NULL DEFAULT 0,
	added       INTEGER NOT NULL DEFAULT 0,
	changed     INTEGER NOT NULL DEFAULT 0,
	removed     INTEGER NOT NULL DEFAULT 0,
	tier        INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_person_records_target ON person_records(target_id);
CREATE INDEX IF NOT EXISTS idx_new_contacts_target ON new_contacts(target_id, found_at);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_target ON run_outcomes(target_id, started_at);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_status ON run_outcomes(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertTarget(ctx context.Context, target model.Target) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (id, display_name, url, mode, enabled, strategy_key, notify_email)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = EXCLUDED.display_name, url = EXCLUDED.url, mode = EXCLUDED.mode,
		   enabled = EXCLUDED.enabled, strategy_key = EXCLUDED.strategy_key,
		   notify_email = EXCLUDED.notify_email, updated_at = NOW()`,
		target.ID, target.DisplayName, target.URL, string(target.Mode), target.Enabled,
		target.StrategyKey, target.NotifyEmail,
	)
	return eris.Wrapf(err, "postgres: upsert target %s", target.ID)
}

func (s *PostgresStore) GetTarget(ctx context.Context, id string) (*model.Target, error) {
	var t model.Target
	var mode string
	err := s.pool.QueryRow(ctx,
		`SELECT id, display_name, url, mode, enabled, strategy_key, notify_email FROM targets WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.DisplayName, &t.URL, &mode, &t.Enabled, &t.StrategyKey, &t.NotifyEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("target not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get target %s", id)
	}
	t.Mode = model.FetchMode(mode)
	return &t, nil
}

func (s *PostgresStore) ListTargets(ctx context.Context, enabledOnly bool) ([]model.Target, error) {
	query := `SELECT id, display_name, url, mode, enabled, strategy_key, notify_email FROM targets`
	if enabledOnly {
		query += ` WHERE enabled`
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list targets")
	}
	defer rows.Close()

	var targets []model.Target
	for rows.Next() {
		var t model.Target
		var mode string
		if err := rows.Scan(&t.ID, &t.DisplayName, &t.URL, &mode, &t.Enabled, &t.StrategyKey, &t.NotifyEmail); err != nil {
			return nil, eris.Wrap(err, "postgres: scan target")
		}
		t.Mode = model.FetchMode(mode)
		targets = append(targets, t)
	}
	return targets, eris.Wrap(rows.Err(), "postgres: list targets iterate")
}

func (s *PostgresStore) DeleteTarget(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete target %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("target not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, targetID string) ([]model.PersonRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM person_records WHERE target_id = $1 ORDER BY first_seen, identity`,
		targetID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", targetID)
	}
	defer rows.Close()

	var records []model.PersonRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec model.PersonRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: get snapshot iterate")
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, targetID string, records []model.PersonRecord) error {
	identities := make([]string, 0, len(records))
	for _, rec := range records {
		id := rec.Identity()
		identities = append(identities, id)

		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal record")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO person_records (target_id, identity, data, status, first_seen, last_verified)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (target_id, identity) DO UPDATE SET
			   data = EXCLUDED.data, status = EXCLUDED.status,
			   first_seen = EXCLUDED.first_seen, last_verified = EXCLUDED.last_verified`,
			targetID, id, data, string(rec.Status), rec.FirstSeen.UTC(), rec.LastVerified.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert record %s", id)
		}
	}

	if len(identities) == 0 {
		_, err := s.pool.Exec(ctx, `DELETE FROM person_records WHERE target_id = $1`, targetID)
		return eris.Wrapf(err, "postgres: clear snapshot %s", targetID)
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM person_records WHERE target_id = $1 AND NOT (identity = ANY($2))`,
		targetID, identities,
	)
	return eris.Wrapf(err, "postgres: prune snapshot %s", targetID)
}

var newContactColumns = []string{"id", "target_id", "identity", "name", "email", "title", "found_at"}

func (s *PostgresStore) AppendNewContacts(ctx context.Context, targetID string, records []model.PersonRecord) error {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			uuid.New().String(), targetID, rec.Identity(),
			rec.Name, rec.Email, rec.Title, rec.FirstSeen.UTC(),
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "new_contacts", newContactColumns, rows)
	return eris.Wrapf(err, "postgres: append new contacts %s", targetID)
}

func (s *PostgresStore) WriteRunOutcome(ctx context.Context, outcome model.RunOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_outcomes (id, target_id, status, records, added, changed, removed, tier, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		outcome.ID, outcome.TargetID, string(outcome.Status), outcome.Records,
		outcome.Added, outcome.Changed, outcome.Removed, outcome.Tier,
		nullIfEmpty(outcome.Error), outcome.StartedAt.UTC(), outcome.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: write run outcome %s", outcome.TargetID)
}

func (s *PostgresStore) ListRunOutcomes(ctx context.Context, filter RunFilter) ([]model.RunOutcome, error) {
	query := `SELECT id, target_id, status, records, added, changed, removed, tier, error, started_at, finished_at
	          FROM run_outcomes WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.TargetID != "" {
		query += fmt.Sprintf(` AND target_id = $%d`, argIdx)
		args = append(args, filter.TargetID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list run outcomes")
	}
	defer rows.Close()

	var outcomes []model.RunOutcome
	for rows.Next() {
		var o model.RunOutcome
		var status string
		var errText *string
		if err := rows.Scan(&o.ID, &o.TargetID, &status, &o.Records, &o.Added,
			&o.Changed, &o.Removed, &o.Tier, &errText, &o.StartedAt, &o.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run outcome")
		}
		o.Status = model.RunStatus(status)
		if errText != nil {
			o.Error = *errText
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "postgres: list run outcomes iterate")
}
