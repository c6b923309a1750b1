package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/facwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS targets (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	url          TEXT NOT NULL,
	mode         TEXT NOT NULL DEFAULT 'static',
	enabled      INTEGER NOT NULL DEFAULT 1,
	strategy_key TEXT NOT NULL DEFAULT '',
	notify_email TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS person_records (
	target_id     TEXT NOT NULL REFERENCES targets(id),
	identity      TEXT NOT NULL,
	data          TEXT NOT NULL,
	status        TEXT NOT NULL,
	first_seen    DATETIME NOT NULL,
	last_verified DATETIME NOT NULL,
	PRIMARY KEY (target_id, identity)
);

CREATE TABLE IF NOT EXISTS new_contacts (
	id        TEXT PRIMARY KEY,
	target_id TEXT NOT NULL,
	identity  TEXT NOT NULL,
	name      TEXT NOT NULL,
	email     TEXT,
	title     TEXT,
	found_at  DATETIME NOT NULL
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
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_person_records_target ON person_records(target_id);
CREATE INDEX IF NOT EXISTS idx_new_contacts_target ON new_contacts(target_id, found_at);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_target ON run_outcomes(target_id, started_at);
CREATE INDEX IF NOT EXISTS idx_run_outcomes_status ON run_outcomes(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertTarget(ctx context.Context, target model.Target) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO targets (id, display_name, url, mode, enabled, strategy_key, notify_email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = excluded.display_name, url = excluded.url, mode = excluded.mode,
		   enabled = excluded.enabled, strategy_key = excluded.strategy_key,
		   notify_email = excluded.notify_email, updated_at = excluded.updated_at`,
		target.ID, target.DisplayName, target.URL, string(target.Mode), boolToInt(target.Enabled),
		target.StrategyKey, target.NotifyEmail, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert target %s", target.ID)
}

func (s *SQLiteStore) GetTarget(ctx context.Context, id string) (*model.Target, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, url, mode, enabled, strategy_key, notify_email FROM targets WHERE id = ?`,
		id,
	)
	t, err := scanTarget(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("target not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get target %s", id)
	}
	return t, nil
}

func (s *SQLiteStore) ListTargets(ctx context.Context, enabledOnly bool) ([]model.Target, error) {
	query := `SELECT id, display_name, url, mode, enabled, strategy_key, notify_email FROM targets`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list targets")
	}
	defer rows.Close()

	var targets []model.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan target")
		}
		targets = append(targets, *t)
	}
	return targets, eris.Wrap(rows.Err(), "sqlite: list targets iterate")
}

func (s *SQLiteStore) DeleteTarget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete target %s", id)
	}
	return checkRowsAffected(res, "target", id)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, targetID string) ([]model.PersonRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM person_records WHERE target_id = ? ORDER BY first_seen, identity`,
		targetID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", targetID)
	}
	defer rows.Close()

	var records []model.PersonRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec model.PersonRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: get snapshot iterate")
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, targetID string, records []model.PersonRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin snapshot tx")
	}
	defer func() { _ = tx.Rollback() }()

	identities := make([]string, 0, len(records))
	for _, rec := range records {
		id := rec.Identity()
		identities = append(identities, id)

		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal record")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO person_records (target_id, identity, data, status, first_seen, last_verified)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (target_id, identity) DO UPDATE SET
			   data = excluded.data, status = excluded.status,
			   first_seen = excluded.first_seen, last_verified = excluded.last_verified`,
			targetID, id, string(data), string(rec.Status), rec.FirstSeen.UTC(), rec.LastVerified.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert record %s", id)
		}
	}

	// Drop rows for identities absent from the new snapshot.
	if len(identities) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM person_records WHERE target_id = ?`, targetID); err != nil {
			return eris.Wrapf(err, "sqlite: clear snapshot %s", targetID)
		}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(identities)), ",")
		args := make([]any, 0, len(identities)+1)
		args = append(args, targetID)
		for _, id := range identities {
			args = append(args, id)
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM person_records WHERE target_id = ? AND identity NOT IN (`+placeholders+`)`,
			args...,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: prune snapshot %s", targetID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

func (s *SQLiteStore) AppendNewContacts(ctx context.Context, targetID string, records []model.PersonRecord) error {
	for _, rec := range records {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO new_contacts (id, target_id, identity, name, email, title, found_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), targetID, rec.Identity(), rec.Name, rec.Email, rec.Title, rec.FirstSeen.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: append new contact %s", rec.Name)
		}
	}
	return nil
}

func (s *SQLiteStore) WriteRunOutcome(ctx context.Context, outcome model.RunOutcome) error {
	if outcome.ID == "" {
		outcome.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_outcomes (id, target_id, status, records, added, changed, removed, tier, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.ID, outcome.TargetID, string(outcome.Status), outcome.Records,
		outcome.Added, outcome.Changed, outcome.Removed, outcome.Tier,
		nullIfEmpty(outcome.Error), outcome.StartedAt.UTC(), outcome.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: write run outcome %s", outcome.TargetID)
}

func (s *SQLiteStore) ListRunOutcomes(ctx context.Context, filter RunFilter) ([]model.RunOutcome, error) {
	query := `SELECT id, target_id, status, records, added, changed, removed, tier, error, started_at, finished_at
	          FROM run_outcomes WHERE 1=1`
	var args []any

	if filter.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, filter.TargetID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list run outcomes")
	}
	defer rows.Close()

	var outcomes []model.RunOutcome
	for rows.Next() {
		var o model.RunOutcome
		var errText sql.NullString
		if err := rows.Scan(&o.ID, &o.TargetID, &o.Status, &o.Records, &o.Added,
			&o.Changed, &o.Removed, &o.Tier, &errText, &o.StartedAt, &o.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run outcome")
		}
		o.Error = errText.String
		outcomes = append(outcomes, o)
	}
	return outcomes, eris.Wrap(rows.Err(), "sqlite: list run outcomes iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTarget(row scannable) (*model.Target, error) {
	var t model.Target
	var mode string
	var enabled int
	err := row.Scan(&t.ID, &t.DisplayName, &t.URL, &mode, &enabled, &t.StrategyKey, &t.NotifyEmail)
	if err != nil {
		return nil, err
	}
	t.Mode = model.FetchMode(mode)
	t.Enabled = enabled != 0
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
