// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// UnitFilter narrows unit queries. Zero values mean "any".
type UnitFilter struct {
	CartonID            string
	Status              model.UnitStatus
	DestinationPharmacy string
	Limit               int
}

// CartonDestination is the destination assigned to every member of a carton
// during activation.
type CartonDestination struct {
	Pharmacy string
	City     string
}

// UnitRepository owns the canonical state of units: status, aggregation,
// destination and append-only history.
type UnitRepository interface {
	// CreateUnits inserts a batch of new units in one transaction.
	// A generated id collision surfaces as errs.ErrAlreadyExists.
	CreateUnits(ctx context.Context, units []model.Unit) error

	// GetByID loads one unit with its full history.
	GetByID(ctx context.Context, id string) (*model.Unit, error)

	// ListByCarton returns all units sharing a carton id.
	ListByCarton(ctx context.Context, cartonID string) ([]model.Unit, error)

	// Query returns units matching the filter.
	Query(ctx context.Context, f UnitFilter) ([]model.Unit, error)

	// ApplyTransition moves a unit from one status to another and appends the
	// event in the same conditional write. A concurrent transition that
	// already moved the unit surfaces as errs.ErrStatusConflict.
	ApplyTransition(ctx context.Context, id string, from, to model.UnitStatus, ev model.ScanEvent) error

	// ActivateCarton transitions every member of a carton from inactive to
	// in-transit with the same destination, all-or-nothing. If any member is
	// not inactive nothing changes and errs.ErrStatusConflict is returned.
	ActivateCarton(ctx context.Context, cartonID string, dest CartonDestination, ev model.ScanEvent) (int, error)

	// MarkCounterfeit forces a unit to counterfeit from any status and
	// appends the alert event.
	MarkCounterfeit(ctx context.Context, id string, ev model.ScanEvent) error
}
