package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// AlertRepository is the append-only anomaly record. Alert content is
// immutable once created; only the resolution status changes.
type AlertRepository interface {
	// Create appends a new alert.
	Create(ctx context.Context, a *model.Alert) error

	// Resolve moves an alert from active to resolved, one-way. Resolving an
	// alert that is not active surfaces as errs.ErrNotActive.
	Resolve(ctx context.Context, id uuid.UUID) error

	// List returns alerts with the given status, newest first.
	List(ctx context.Context, status model.AlertStatus, limit int) ([]model.Alert, error)
}
