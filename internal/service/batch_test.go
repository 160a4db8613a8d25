package service

import (
	"context"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

func TestCreateBatch_MintsSerializedUnits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	units := newFakeUnitRepo()
	s := NewBatchService(units, nil)

	batch, err := s.CreateBatch(ctx, "Amoxicillin 500mg", 10)
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if !strings.HasPrefix(batch.BatchID, "BATCH-") {
		t.Fatalf("unexpected batch id: %q", batch.BatchID)
	}
	if !strings.HasPrefix(batch.CartonID, "CTN-") {
		t.Fatalf("unexpected carton id: %q", batch.CartonID)
	}
	if len(batch.Units) != 10 || len(units.units) != 10 {
		t.Fatalf("want 10 persisted units, got %d/%d", len(batch.Units), len(units.units))
	}
	seen := make(map[string]bool)
	for _, u := range batch.Units {
		if !strings.HasPrefix(u.ID, "MED-") || seen[u.ID] {
			t.Fatalf("bad or duplicate unit id: %q", u.ID)
		}
		seen[u.ID] = true
		if u.CartonID != batch.CartonID || u.BatchID != batch.BatchID {
			t.Fatalf("unit not linked to batch: %+v", u)
		}
		if u.Status != model.StatusInactive {
			t.Fatalf("fresh unit must be inactive: %+v", u)
		}
	}
}

func TestCreateBatch_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewBatchService(newFakeUnitRepo(), nil)

	if _, err := s.CreateBatch(ctx, "", 10); err == nil {
		t.Fatalf("want validation error on empty product name")
	}
	if _, err := s.CreateBatch(ctx, "Amoxicillin 500mg", 0); err == nil {
		t.Fatalf("want validation error on zero count")
	}
	if _, err := s.CreateBatch(ctx, "Amoxicillin 500mg", maxBatchSize+1); err == nil {
		t.Fatalf("want validation error above max batch size")
	}
}

type collidingUnitRepo struct {
	*fakeUnitRepo
	collisions int
}

func (c *collidingUnitRepo) CreateUnits(ctx context.Context, units []model.Unit) error {
	if c.collisions > 0 {
		c.collisions--
		return errs.ErrAlreadyExists
	}
	return c.fakeUnitRepo.CreateUnits(ctx, units)
}

func TestCreateBatch_RetriesOnCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &collidingUnitRepo{fakeUnitRepo: newFakeUnitRepo(), collisions: 2}
	s := NewBatchService(repo, nil)

	batch, err := s.CreateBatch(ctx, "Amoxicillin 500mg", 3)
	if err != nil {
		t.Fatalf("CreateBatch after collisions: %v", err)
	}
	if len(batch.Units) != 3 {
		t.Fatalf("want 3 units, got %d", len(batch.Units))
	}
}

func TestCreateBatch_GivesUpAfterRepeatedCollisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &collidingUnitRepo{fakeUnitRepo: newFakeUnitRepo(), collisions: 5}
	s := NewBatchService(repo, nil)

	if _, err := s.CreateBatch(ctx, "Amoxicillin 500mg", 3); err == nil {
		t.Fatalf("want error after exhausted retries")
	}
}

func TestAlertService_ResolveDelegates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	alerts := &fakeAlertRepo{}
	s := NewAlertService(alerts)

	id := uuid.Must(uuid.NewV4())
	if err := s.Resolve(ctx, id); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(alerts.resolved) != 1 || alerts.resolved[0] != id {
		t.Fatalf("resolve not forwarded: %+v", alerts.resolved)
	}
}

func TestAlertService_ListClampsLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	alerts := &fakeAlertRepo{listOut: []model.Alert{{Category: CategoryDiversion}}}
	s := NewAlertService(alerts)

	out, err := s.List(ctx, model.AlertActive, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("unexpected result: %+v", out)
	}
}
