package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/idgen"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
)

const maxBatchSize = 500

// Batch is the result of one production run: a master carton holding every
// unit of the run.
type Batch struct {
	BatchID     string
	CartonID    string
	ProductName string
	Units       []model.Unit
}

// BatchService covers manufacturer production: minting identifier sets and
// querying the resulting units.
type BatchService interface {
	// CreateBatch mints a batch of count serialized units under one master
	// carton, all inactive, and persists them atomically.
	CreateBatch(ctx context.Context, productName string, count int) (*Batch, error)
	// QueryUnits filters the unit population for dashboards.
	QueryUnits(ctx context.Context, filter repository.UnitFilter) ([]model.Unit, error)
}

type BatchServiceImpl struct {
	units repository.UnitRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewBatchService(units repository.UnitRepository, log *zap.Logger) *BatchServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchServiceImpl{units: units, log: log, now: time.Now}
}

func (s *BatchServiceImpl) CreateBatch(ctx context.Context, productName string, count int) (*Batch, error) {
	if productName == "" {
		return nil, errors.New("validation: empty product name")
	}
	if count < 1 || count > maxBatchSize {
		return nil, fmt.Errorf("validation: batch size %d out of range [1,%d]", count, maxBatchSize)
	}

	// Identifier collisions are vanishingly rare at this alphabet size;
	// retrying the whole insert keeps the batch all-or-nothing.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		batchID := idgen.BatchID()
		cartonID := idgen.New("CTN")
		units := make([]model.Unit, count)
		for i := range units {
			units[i] = model.Unit{
				ID:          idgen.New("MED"),
				CartonID:    cartonID,
				ProductName: productName,
				BatchID:     batchID,
				Status:      model.StatusInactive,
				CreatedAt:   s.now(),
			}
		}

		if err := s.units.CreateUnits(ctx, units); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				lastErr = err
				s.log.Warn("identifier collision, regenerating batch", zap.String("batch", batchID))
				continue
			}
			return nil, err
		}
		return &Batch{BatchID: batchID, CartonID: cartonID, ProductName: productName, Units: units}, nil
	}
	return nil, fmt.Errorf("create batch: %w", lastErr)
}

func (s *BatchServiceImpl) QueryUnits(ctx context.Context, filter repository.UnitFilter) ([]model.Unit, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.units.Query(ctx, filter)
}
