// Package service contains application services for the integrity engine:
// the scan processor, credential registry, alert access and batch production.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/aryankumarrai/pharmakrypt/internal/errs"
	"github.com/aryankumarrai/pharmakrypt/internal/metrics"
	"github.com/aryankumarrai/pharmakrypt/internal/model"
	"github.com/aryankumarrai/pharmakrypt/internal/notify"
	"github.com/aryankumarrai/pharmakrypt/internal/repository"
)

// Anomaly categories. Escalation is reserved for transitions that can only
// happen when an identifier was cloned, stolen or diverted; plain sequencing
// mistakes stay ordinary rejections. Conflating the two floods the regulator
// with false fraud alerts.
const (
	CategoryDuplicateActivation = "Duplicate Carton Scan"
	CategoryTheftInactive       = "Theft: Inactive Batch Scan"
	CategoryDiversion           = "Diversion: Wrong Location"
	CategoryDuplicateSale       = "Duplicate Sale Attempt"
	CategoryCompromised         = "Already Compromised"
	CategoryNewDistributor      = "New Distributor Registered"
)

// PharmacyMode selects what a pharmacy scan intends.
type PharmacyMode string

const (
	ModeStock    PharmacyMode = "stock"
	ModeDispense PharmacyMode = "dispense"
)

// Actor identifies who is producing a scan. It is explicit request state;
// nothing about the current session is ambient.
type Actor struct {
	Role     model.Role
	Name     string
	Location string
}

// ScanRequest is one pharmacy scan against a unit identifier.
type ScanRequest struct {
	// SessionID scopes idempotent-repeat suppression to one scanning
	// session (one camera stream), never across actors.
	SessionID string
	UnitID    string
	Actor     Actor
	Mode      PharmacyMode
	// Timestamp is the client-submitted time, recorded for display.
	Timestamp time.Time
}

// ActivationRequest is one distributor scan against a carton identifier.
type ActivationRequest struct {
	SessionID           string
	CartonID            string
	Actor               Actor
	DestinationPharmacy string
	DestinationCity     string
	Timestamp           time.Time
}

// ScanService is the protocol core: validates legality of each lifecycle
// transition, applies it, and escalates anomalies into alerts.
type ScanService interface {
	// ProcessScan validates and applies one pharmacy scan.
	ProcessScan(ctx context.Context, req ScanRequest) (model.Outcome, error)
	// ActivateCarton applies the atomic group activation for a distributor.
	ActivateCarton(ctx context.Context, req ActivationRequest) (model.Outcome, error)
	// Verify is the public read-only status check; no transition, no event.
	Verify(ctx context.Context, unitID string) (*model.Unit, error)
}

type ScanServiceImpl struct {
	units    repository.UnitRepository
	alerts   repository.AlertRepository
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger

	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]lastScan // session id -> most recent submission
}

type lastScan struct {
	id string
	at time.Time
}

// NewScanService constructs the scan processor. window is the
// idempotent-repeat suppression window; zero applies the 2s default.
func NewScanService(units repository.UnitRepository, alerts repository.AlertRepository, notifier notify.Notifier, m *metrics.Metrics, log *zap.Logger, window time.Duration) *ScanServiceImpl {
	if window <= 0 {
		window = 2 * time.Second
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScanServiceImpl{
		units:    units,
		alerts:   alerts,
		notifier: notifier,
		metrics:  m,
		log:      log,
		window:   window,
		now:      time.Now,
		last:     make(map[string]lastScan),
	}
}

// ProcessScan resolves the identifier, suppresses rapid repeats, checks the
// role guard and either applies the transition or escalates. A conditional
// write lost to a concurrent scan is re-read once and routed back through
// the guard, so the loser surfaces as a rejection or anomaly, never as a
// second success.
func (s *ScanServiceImpl) ProcessScan(ctx context.Context, req ScanRequest) (model.Outcome, error) {
	started := s.now()
	defer func() { s.metrics.ObserveScanLatency(s.now().Sub(started)) }()

	if req.UnitID == "" {
		return model.Outcome{}, errors.New("validation: empty unit id")
	}
	if req.Actor.Role != model.RolePharmacy {
		return model.Outcome{}, fmt.Errorf("validation: role %q cannot submit unit scans", req.Actor.Role)
	}
	if req.Mode != ModeStock && req.Mode != ModeDispense {
		return model.Outcome{}, fmt.Errorf("validation: unknown mode %q", req.Mode)
	}

	if s.repeated(req.SessionID, req.UnitID) {
		s.metrics.IncrementOutcome(string(req.Actor.Role), string(model.OutcomeRepeat))
		return model.Outcome{Kind: model.OutcomeRepeat}, nil
	}

	for attempt := 0; ; attempt++ {
		unit, err := s.units.GetByID(ctx, req.UnitID)
		if err != nil {
			// Unknown identifier: nothing to append to, no event written.
			return model.Outcome{}, fmt.Errorf("identifier %s: %w", req.UnitID, err)
		}

		out, err := s.applyUnitScan(ctx, unit, req)
		if errors.Is(err, errs.ErrStatusConflict) && attempt == 0 {
			// Lost a concurrent race; the re-read observes the winner's
			// transition and the guard reclassifies this scan.
			continue
		}
		s.metrics.IncrementOutcome(string(req.Actor.Role), string(out.Kind))
		return out, err
	}
}

func (s *ScanServiceImpl) applyUnitScan(ctx context.Context, unit *model.Unit, req ScanRequest) (model.Outcome, error) {
	badEvent := model.ScanEvent{
		ActorRole:     req.Actor.Role,
		ActorName:     req.Actor.Name,
		ActorLocation: req.Actor.Location,
		Timestamp:     req.Timestamp,
		Action:        fmt.Sprintf("Attempted %s", req.Mode),
		Result:        model.ScanAlert,
	}

	if unit.Status == model.StatusCounterfeit {
		return s.raiseAnomaly(ctx, unit, badEvent, CategoryCompromised, "unit already flagged counterfeit")
	}

	switch req.Mode {
	case ModeStock:
		switch {
		case unit.Status == model.StatusInactive:
			return s.raiseAnomaly(ctx, unit, badEvent, CategoryTheftInactive, "batch not activated by a distributor")
		case unit.DestinationPharmacy != req.Actor.Name:
			reason := fmt.Sprintf("unit assigned to %s", unit.DestinationPharmacy)
			return s.raiseAnomaly(ctx, unit, badEvent, CategoryDiversion, reason)
		case unit.Status == model.StatusStocked || unit.Status == model.StatusSold:
			return reject("already stocked or sold")
		}
		return s.transition(ctx, unit, req, model.StatusInTransit, model.StatusStocked, "Stock Arrival")

	case ModeDispense:
		switch {
		case unit.Status == model.StatusSold:
			// A genuine unit cannot be dispensed twice; this is a cloned
			// identifier, not operator error.
			return s.raiseAnomaly(ctx, unit, badEvent, CategoryDuplicateSale, "unit already sold")
		case unit.Status != model.StatusStocked:
			return reject("not in authenticated stock")
		}
		return s.transition(ctx, unit, req, model.StatusStocked, model.StatusSold, "Dispensed")
	}

	return model.Outcome{}, fmt.Errorf("validation: unknown mode %q", req.Mode)
}

func (s *ScanServiceImpl) transition(ctx context.Context, unit *model.Unit, req ScanRequest, from, to model.UnitStatus, action string) (model.Outcome, error) {
	ev := model.ScanEvent{
		ActorRole:     req.Actor.Role,
		ActorName:     req.Actor.Name,
		ActorLocation: req.Actor.Location,
		Timestamp:     req.Timestamp,
		Action:        action,
		Result:        model.ScanValid,
	}
	if err := s.units.ApplyTransition(ctx, unit.ID, from, to, ev); err != nil {
		return model.Outcome{}, err
	}
	unit.Status = to
	unit.History = append(unit.History, ev)
	return model.Outcome{Kind: model.OutcomeValid, Reason: action, UnitsAffected: 1, Unit: unit}, nil
}

// ActivateCarton transitions every member unit of a carton together. A
// carton that is not fully inactive is escalated: all members are forced to
// counterfeit and exactly one alert is raised for the carton.
func (s *ScanServiceImpl) ActivateCarton(ctx context.Context, req ActivationRequest) (model.Outcome, error) {
	started := s.now()
	defer func() { s.metrics.ObserveScanLatency(s.now().Sub(started)) }()

	if req.CartonID == "" {
		return model.Outcome{}, errors.New("validation: empty carton id")
	}
	if req.Actor.Role != model.RoleDistributor {
		return model.Outcome{}, fmt.Errorf("validation: role %q cannot activate cartons", req.Actor.Role)
	}
	if req.DestinationPharmacy == "" || req.DestinationCity == "" {
		return model.Outcome{}, errors.New("validation: missing destination")
	}

	if s.repeated(req.SessionID, req.CartonID) {
		s.metrics.IncrementOutcome(string(req.Actor.Role), string(model.OutcomeRepeat))
		return model.Outcome{Kind: model.OutcomeRepeat}, nil
	}

	ev := model.ScanEvent{
		ActorRole:     req.Actor.Role,
		ActorName:     req.Actor.Name,
		ActorLocation: req.Actor.Location,
		Timestamp:     req.Timestamp,
		Action:        fmt.Sprintf("Activated for %s", req.DestinationPharmacy),
		Result:        model.ScanValid,
	}
	dest := repository.CartonDestination{Pharmacy: req.DestinationPharmacy, City: req.DestinationCity}

	n, err := s.units.ActivateCarton(ctx, req.CartonID, dest, ev)
	switch {
	case err == nil:
		s.metrics.IncrementOutcome(string(req.Actor.Role), string(model.OutcomeValid))
		return model.Outcome{Kind: model.OutcomeValid, Reason: ev.Action, UnitsAffected: n}, nil
	case errors.Is(err, errs.ErrNotFound):
		return model.Outcome{}, fmt.Errorf("identifier %s: %w", req.CartonID, errs.ErrNotFound)
	case errors.Is(err, errs.ErrStatusConflict):
		out, aerr := s.escalateCarton(ctx, req)
		s.metrics.IncrementOutcome(string(req.Actor.Role), string(out.Kind))
		return out, aerr
	default:
		return model.Outcome{}, err
	}
}

// escalateCarton handles a duplicate activation: every member goes to
// counterfeit, one alert references the carton id.
func (s *ScanServiceImpl) escalateCarton(ctx context.Context, req ActivationRequest) (model.Outcome, error) {
	members, err := s.units.ListByCarton(ctx, req.CartonID)
	if err != nil {
		return model.Outcome{}, err
	}
	if len(members) == 0 {
		return model.Outcome{}, fmt.Errorf("identifier %s: %w", req.CartonID, errs.ErrNotFound)
	}

	badEvent := model.ScanEvent{
		ActorRole:     req.Actor.Role,
		ActorName:     req.Actor.Name,
		ActorLocation: req.Actor.Location,
		Timestamp:     req.Timestamp,
		Action:        "Duplicate Activation",
		Result:        model.ScanAlert,
	}
	for i := range members {
		if err := s.units.MarkCounterfeit(ctx, members[i].ID, badEvent); err != nil {
			return model.Outcome{}, err
		}
	}

	original := badEvent
	if ev, ok := members[0].LastValid(); ok {
		original = ev
	}
	if err := s.createAlert(ctx, model.Alert{
		SubjectName:        members[0].ProductName,
		SubjectID:          req.CartonID,
		OriginalEvidence:   original,
		TriggeringEvidence: badEvent,
		Category:           CategoryDuplicateActivation,
	}); err != nil {
		return model.Outcome{}, err
	}

	reason := fmt.Sprintf("carton %s already active", req.CartonID)
	return model.Outcome{
			Kind:          model.OutcomeAnomaly,
			Reason:        reason,
			Category:      CategoryDuplicateActivation,
			UnitsAffected: len(members),
		},
		fmt.Errorf("%s: %w", reason, errs.ErrAnomaly)
}

// Verify returns the unit as-is for public lookups.
func (s *ScanServiceImpl) Verify(ctx context.Context, unitID string) (*model.Unit, error) {
	if unitID == "" {
		return nil, errors.New("validation: empty unit id")
	}
	return s.units.GetByID(ctx, unitID)
}

// raiseAnomaly is the escalation path: append the alert event, force the
// unit to counterfeit, persist the alert, notify observers.
func (s *ScanServiceImpl) raiseAnomaly(ctx context.Context, unit *model.Unit, badEvent model.ScanEvent, category, reason string) (model.Outcome, error) {
	if err := s.units.MarkCounterfeit(ctx, unit.ID, badEvent); err != nil {
		return model.Outcome{}, err
	}

	original := badEvent
	if ev, ok := unit.LastValid(); ok {
		original = ev
	}
	if err := s.createAlert(ctx, model.Alert{
		SubjectName:        unit.ProductName,
		SubjectID:          unit.ID,
		OriginalEvidence:   original,
		TriggeringEvidence: badEvent,
		Category:           category,
	}); err != nil {
		return model.Outcome{}, err
	}

	return model.Outcome{Kind: model.OutcomeAnomaly, Reason: reason, Category: category, UnitsAffected: 1},
		fmt.Errorf("%s: %w", reason, errs.ErrAnomaly)
}

func (s *ScanServiceImpl) createAlert(ctx context.Context, a model.Alert) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	a.ID = id
	a.Timestamp = s.now()
	a.Status = model.AlertActive

	if err := s.alerts.Create(ctx, &a); err != nil {
		return err
	}
	s.metrics.IncrementAlert(a.Category)

	if err := s.notifier.PublishAlert(ctx, a); err != nil {
		// Notification is a courtesy feed; the alert is already durable.
		s.log.Warn("alert notify failed", zap.String("alert", a.ID.String()), zap.Error(err))
	}
	return nil
}

// repeated reports whether the session just submitted the same identifier
// within the suppression window. Best-effort only: it absorbs a camera
// re-decoding the same frame, not concurrent conflicting actors.
func (s *ScanServiceImpl) repeated(sessionID, id string) bool {
	if sessionID == "" {
		return false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.last[sessionID]
	s.last[sessionID] = lastScan{id: id, at: now}
	return ok && prev.id == id && now.Sub(prev.at) < s.window
}

func reject(reason string) (model.Outcome, error) {
	return model.Outcome{Kind: model.OutcomeRejected, Reason: reason},
		fmt.Errorf("%s: %w", reason, errs.ErrSequenceRejected)
}
