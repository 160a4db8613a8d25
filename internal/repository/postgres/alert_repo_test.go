package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

func TestAlertRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	ev, evJSON := testEvent()
	id := uuid.Must(uuid.NewV4())
	ts := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO alerts \(id, subject_name, subject_id, original_evidence, triggering_evidence, ts, category, status\)`).
		WithArgs(id, "Amoxicillin 500mg", "UNIT-AAAA-AAAA-AAAA-AAAA", evJSON, evJSON, ts, "Diversion: Wrong Location", "active").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Create(ctx, &model.Alert{
		ID:                 id,
		SubjectName:        "Amoxicillin 500mg",
		SubjectID:          "UNIT-AAAA-AAAA-AAAA-AAAA",
		OriginalEvidence:   ev,
		TriggeringEvidence: ev,
		Timestamp:          ts,
		Category:           "Diversion: Wrong Location",
		Status:             model.AlertActive,
	})
	require.NoError(t, err)
}

func TestAlertRepo_Resolve_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE alerts SET status=\$2, resolved_at=now\(\) WHERE id=\$1 AND status=\$3`).
		WithArgs(id, "resolved", "active").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.Resolve(ctx, id))
}

func TestAlertRepo_Resolve_AlreadyResolved(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE alerts SET status=\$2`).
		WithArgs(id, "resolved", "active").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM alerts WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	require.ErrorIs(t, r.Resolve(ctx, id), errs.ErrNotActive)
}

func TestAlertRepo_Resolve_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`UPDATE alerts SET status=\$2`).
		WithArgs(id, "resolved", "active").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM alerts WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	require.ErrorIs(t, r.Resolve(ctx, id), errs.ErrNotFound)
}

func TestAlertRepo_List_ByStatus(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	ev, _ := testEvent()
	evJSON, err := json.Marshal(ev)
	require.NoError(t, err)

	id := uuid.Must(uuid.NewV4())
	ts := time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM alerts WHERE status=\$1 ORDER BY ts DESC LIMIT \$2`).
		WithArgs("active", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "subject_name", "subject_id", "original_evidence", "triggering_evidence", "ts", "category", "status", "resolved_at"}).
			AddRow(id, "Amoxicillin 500mg", "UNIT-AAAA-AAAA-AAAA-AAAA", evJSON, evJSON, ts, "Duplicate Sale Attempt", "active", (*time.Time)(nil)))

	out, err := r.List(ctx, model.AlertActive, 100)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Duplicate Sale Attempt", out[0].Category)
	require.Equal(t, ev.Action, out[0].TriggeringEvidence.Action)
	require.Nil(t, out[0].ResolvedAt)
}

func TestAlertRepo_List_AllStatuses(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAlertRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM alerts ORDER BY ts DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "subject_name", "subject_id", "original_evidence", "triggering_evidence", "ts", "category", "status", "resolved_at"}))

	out, err := r.List(ctx, "", 50)
	require.NoError(t, err)
	require.Len(t, out, 0)
}
