package service

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
)

// AlertService exposes the alert feed to manufacturers.
type AlertService interface {
	// List returns alerts newest first; status narrows to active or
	// resolved, empty returns both.
	List(ctx context.Context, status model.AlertStatus, limit int) ([]model.Alert, error)
	// Resolve transitions an active alert to resolved. Resolution is
	// one-way and never reopens the underlying units.
	Resolve(ctx context.Context, id uuid.UUID) error
}

type AlertServiceImpl struct {
	alerts repository.AlertRepository
}

func NewAlertService(alerts repository.AlertRepository) *AlertServiceImpl {
	return &AlertServiceImpl{alerts: alerts}
}

func (s *AlertServiceImpl) List(ctx context.Context, status model.AlertStatus, limit int) ([]model.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	return s.alerts.List(ctx, status, limit)
}

func (s *AlertServiceImpl) Resolve(ctx context.Context, id uuid.UUID) error {
	return s.alerts.Resolve(ctx, id)
}
