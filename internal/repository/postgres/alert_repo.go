package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// AlertRepo implements AlertRepository using PostgreSQL.
type AlertRepo struct{ db *DB }

// NewAlertRepo constructs an alert repository.
func NewAlertRepo(db *DB) *AlertRepo { return &AlertRepo{db: db} }

// Create appends a new alert row.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error {
	orig, err := json.Marshal(a.OriginalEvidence)
	if err != nil {
		return err
	}
	trig, err := json.Marshal(a.TriggeringEvidence)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO alerts (id, subject_name, subject_id, original_evidence, triggering_evidence, ts, category, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.Pool.Exec(ctx, q, a.ID, a.SubjectName, a.SubjectID, orig, trig, a.Timestamp, a.Category, string(a.Status))
	return err
}

// Resolve flips an active alert to resolved; resolving anything else fails.
func (r *AlertRepo) Resolve(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE alerts SET status=$2, resolved_at=now() WHERE id=$1 AND status=$3`
	tag, err := r.db.Pool.Exec(ctx, q, id, string(model.AlertResolved), string(model.AlertActive))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing alert from a resolved one.
		const chk = `SELECT 1 FROM alerts WHERE id=$1`
		var one int
		if err := r.db.Pool.QueryRow(ctx, chk, id).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		return errs.ErrNotActive
	}
	return nil
}

const alertColumns = `id, subject_name, subject_id, original_evidence, triggering_evidence, ts, category, status, resolved_at`

// List returns alerts newest first; empty status disables the filter.
func (r *AlertRepo) List(ctx context.Context, status model.AlertStatus, limit int) ([]model.Alert, error) {
	q := `SELECT ` + alertColumns + ` FROM alerts ORDER BY ts DESC LIMIT $1`
	args := []any{limit}
	if status != "" {
		q = `SELECT ` + alertColumns + ` FROM alerts WHERE status=$1 ORDER BY ts DESC LIMIT $2`
		args = []any{string(status), limit}
	}
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Alert
	for rows.Next() {
		var a model.Alert
		var st string
		var orig, trig []byte
		if err := rows.Scan(&a.ID, &a.SubjectName, &a.SubjectID, &orig, &trig, &a.Timestamp, &a.Category, &st, &a.ResolvedAt); err != nil {
			return nil, err
		}
		a.Status = model.AlertStatus(st)
		if err := json.Unmarshal(orig, &a.OriginalEvidence); err != nil {
			return nil, fmt.Errorf("alert %s original evidence: %w", a.ID, err)
		}
		if err := json.Unmarshal(trig, &a.TriggeringEvidence); err != nil {
			return nil, fmt.Errorf("alert %s triggering evidence: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
