package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facwatch/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

var targetColumns = []string{"id", "display_name", "url", "mode", "enabled", "strategy_key", "notify_email"}

func TestPostgres_UpsertTarget(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO targets").
		WithArgs("physics", "Physics Faculty", "https://physics.example.edu/people",
			"static", true, "", "alerts@example.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertTarget(context.Background(), testTarget("physics"))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetTarget(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM targets WHERE id").
		WithArgs("physics").
		WillReturnRows(pgxmock.NewRows(targetColumns).
			AddRow("physics", "Physics Faculty", "https://physics.example.edu/people",
				"dynamic", true, "", "alerts@example.com"))

	got, err := s.GetTarget(context.Background(), "physics")
	require.NoError(t, err)
	assert.Equal(t, model.ModeDynamic, got.Mode)
	assert.Equal(t, "Physics Faculty", got.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetTargetNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM targets WHERE id").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetTarget(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListTargetsEnabledOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM targets WHERE enabled ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(targetColumns).
			AddRow("chemistry", "Chemistry Faculty", "https://chem.example.edu/people",
				"static", true, "", ""))

	targets, err := s.ListTargets(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "chemistry", targets[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteTargetNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM targets").
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteTarget(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveSnapshot(t *testing.T) {
	s, mock := newMockStore(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := testRecord("Jane Smith", "jsmith@example.edu", t0)

	mock.ExpectExec("INSERT INTO person_records").
		WithArgs("physics", rec.Identity(), pgxmock.AnyArg(), "active", t0, t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM person_records WHERE target_id = \$1 AND NOT`).
		WithArgs("physics", []string{rec.Identity()}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.SaveSnapshot(context.Background(), "physics", []model.PersonRecord{rec})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveSnapshotEmptyClears(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM person_records WHERE target_id = \$1$`).
		WithArgs("physics").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	err := s.SaveSnapshot(context.Background(), "physics", nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetSnapshot(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT data FROM person_records").
		WithArgs("physics").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"name":"Jane Smith","email":"jsmith@example.edu","status":"active"}`)))

	records, err := s.GetSnapshot(context.Background(), "physics")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane Smith", records[0].Name)
	assert.Equal(t, model.StatusActive, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendNewContactsUsesCopy(t *testing.T) {
	s, mock := newMockStore(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectCopyFrom(pgx.Identifier{"new_contacts"}, newContactColumns).WillReturnResult(2)

	records := []model.PersonRecord{
		testRecord("Jane Smith", "jsmith@example.edu", t0),
		testRecord("Robert Jones", "rjones@example.edu", t0),
	}
	err := s.AppendNewContacts(context.Background(), "physics", records)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_WriteRunOutcome(t *testing.T) {
	s, mock := newMockStore(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO run_outcomes").
		WithArgs(pgxmock.AnyArg(), "physics", "success", 12, 2, 1, 0, 1,
			nil, t0, t0.Add(time.Minute)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.WriteRunOutcome(context.Background(), model.RunOutcome{
		TargetID: "physics", Status: model.RunSuccess,
		Records: 12, Added: 2, Changed: 1, Tier: 1,
		StartedAt: t0, FinishedAt: t0.Add(time.Minute),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListRunOutcomesFilters(t *testing.T) {
	s, mock := newMockStore(t)
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cols := []string{"id", "target_id", "status", "records", "added", "changed",
		"removed", "tier", "error", "started_at", "finished_at"}

	mock.ExpectQuery(`SELECT (.+) FROM run_outcomes WHERE 1=1 AND target_id = \$1 AND status = \$2`).
		WithArgs("physics", "failed", 100).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("r1", "physics", "failed", 0, 0, 0, 0, 0, strPtr("blocked: captcha"), t0, t0.Add(time.Minute)))

	outcomes, err := s.ListRunOutcomes(context.Background(), RunFilter{
		TargetID: "physics",
		Status:   model.RunFailed,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, model.RunFailed, outcomes[0].Status)
	assert.Equal(t, "blocked: captcha", outcomes[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string { return &s }
