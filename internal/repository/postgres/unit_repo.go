package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
)

// UnitRepo implements UnitRepository using PostgreSQL. History lives in a
// jsonb column and is appended inside the same statement that moves the
// status, so the two can never be observed out of step.
type UnitRepo struct{ db *DB }

// NewUnitRepo constructs a unit repository.
func NewUnitRepo(db *DB) *UnitRepo { return &UnitRepo{db: db} }

const unitColumns = `id, carton_id, product_name, batch_id, status, dest_pharmacy, dest_city, history, created_at`

// CreateUnits inserts all units in one transaction.
func (r *UnitRepo) CreateUnits(ctx context.Context, units []model.Unit) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const ins = `INSERT INTO units (id, carton_id, product_name, batch_id, status) VALUES ($1,$2,$3,$4,$5)`
	for i := range units {
		u := &units[i]
		if _, err = tx.Exec(ctx, ins, u.ID, u.CartonID, u.ProductName, u.BatchID, string(u.Status)); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("unit %s: %w", u.ID, errs.ErrAlreadyExists)
			}
			return err
		}
	}
	return nil
}

// GetByID returns a single unit with its full history.
func (r *UnitRepo) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	const q = `SELECT ` + unitColumns + ` FROM units WHERE id=$1`
	u, err := scanUnit(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListByCarton returns all member units of a carton.
func (r *UnitRepo) ListByCarton(ctx context.Context, cartonID string) ([]model.Unit, error) {
	const q = `SELECT ` + unitColumns + ` FROM units WHERE carton_id=$1 ORDER BY id`
	rows, err := r.db.Pool.Query(ctx, q, cartonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUnits(rows)
}

// Query returns units matching the filter, newest first.
func (r *UnitRepo) Query(ctx context.Context, f repository.UnitFilter) ([]model.Unit, error) {
	q := `SELECT ` + unitColumns + ` FROM units`
	var conds []string
	var args []any
	if f.CartonID != "" {
		args = append(args, f.CartonID)
		conds = append(conds, fmt.Sprintf("carton_id=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.DestinationPharmacy != "" {
		args = append(args, f.DestinationPharmacy)
		conds = append(conds, fmt.Sprintf("dest_pharmacy=$%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUnits(rows)
}

// ApplyTransition is a compare-and-set on the unit's status: the update only
// lands if the unit is still in the expected state. The losing writer of a
// concurrent pair observes zero affected rows.
func (r *UnitRepo) ApplyTransition(ctx context.Context, id string, from, to model.UnitStatus, ev model.ScanEvent) error {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	const q = `UPDATE units SET status=$3, history=history||$4::jsonb, updated_at=now() WHERE id=$1 AND status=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, string(from), string(to), evJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrStatusConflict
	}
	return nil
}

// ActivateCarton moves the whole carton from inactive to in-transit in one
// transaction. Members are locked first so a concurrent activation cannot
// split the group.
func (r *UnitRepo) ActivateCarton(ctx context.Context, cartonID string, dest repository.CartonDestination, ev model.ScanEvent) (n int, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT status FROM units WHERE carton_id=$1 FOR UPDATE`
	rows, err := tx.Query(ctx, sel, cartonID)
	if err != nil {
		return 0, err
	}
	var members int
	for rows.Next() {
		var status string
		if err = rows.Scan(&status); err != nil {
			rows.Close()
			return 0, err
		}
		members++
		if model.UnitStatus(status) != model.StatusInactive {
			rows.Close()
			return 0, errs.ErrStatusConflict
		}
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, err
	}
	if members == 0 {
		return 0, errs.ErrNotFound
	}

	evJSON, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	const upd = `UPDATE units SET status=$2, dest_pharmacy=$3, dest_city=$4, history=history||$5::jsonb, updated_at=now() WHERE carton_id=$1`
	tag, err := tx.Exec(ctx, upd, cartonID, string(model.StatusInTransit), dest.Pharmacy, dest.City, evJSON)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// MarkCounterfeit forces the unit to counterfeit regardless of its current
// status and appends the alert event.
func (r *UnitRepo) MarkCounterfeit(ctx context.Context, id string, ev model.ScanEvent) error {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	const q = `UPDATE units SET status=$2, history=history||$3::jsonb, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, string(model.StatusCounterfeit), evJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanUnit(row pgx.Row) (*model.Unit, error) {
	var u model.Unit
	var status string
	var history []byte
	if err := row.Scan(&u.ID, &u.CartonID, &u.ProductName, &u.BatchID, &status, &u.DestinationPharmacy, &u.DestinationCity, &history, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Status = model.UnitStatus(status)
	if len(history) > 0 {
		if err := json.Unmarshal(history, &u.History); err != nil {
			return nil, fmt.Errorf("unit %s history: %w", u.ID, err)
		}
	}
	return &u, nil
}

func collectUnits(rows pgx.Rows) ([]model.Unit, error) {
	var out []model.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
