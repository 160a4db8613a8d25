// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// UnitStatus is the lifecycle state of a tracked unit.
type UnitStatus string

const (
	StatusInactive    UnitStatus = "inactive"
	StatusInTransit   UnitStatus = "in-transit"
	StatusStocked     UnitStatus = "stocked"
	StatusSold        UnitStatus = "sold"
	StatusCounterfeit UnitStatus = "counterfeit"
)

// Valid reports whether s is one of the known lifecycle states.
func (s UnitStatus) Valid() bool {
	switch s {
	case StatusInactive, StatusInTransit, StatusStocked, StatusSold, StatusCounterfeit:
		return true
	}
	return false
}

// Role identifies the kind of actor producing a scan.
type Role string

const (
	RoleManufacturer Role = "manufacturer"
	RoleDistributor  Role = "distributor"
	RolePharmacy     Role = "pharmacy"
	RolePublic       Role = "public"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleManufacturer, RoleDistributor, RolePharmacy, RolePublic:
		return true
	}
	return false
}

// ScanResult classifies a recorded scan event.
type ScanResult string

const (
	ScanValid   ScanResult = "valid"
	ScanInvalid ScanResult = "invalid"
	ScanAlert   ScanResult = "alert"
)

// AlertStatus is the resolution state of an alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// ScanEvent is one immutable entry in a unit's history. Events are ordered
// by acceptance time at the ledger; Timestamp is the client-submitted time,
// stored for display only and never used for ordering.
type ScanEvent struct {
	ActorRole     Role       `json:"actor_role"`
	ActorName     string     `json:"actor_name"`
	ActorLocation string     `json:"actor_location"`
	Timestamp     time.Time  `json:"timestamp"`
	Action        string     `json:"action"`
	Result        ScanResult `json:"result"`
}

// Unit is one physical, individually identifiable item. Status is always the
// fold of History through the transition table; the two are written in the
// same store operation.
type Unit struct {
	ID                  string // generated, immutable (MED-....)
	CartonID            string // owning carton (CTN-....)
	ProductName         string
	BatchID             string
	Status              UnitStatus
	DestinationPharmacy string // empty until carton activation
	DestinationCity     string
	History             []ScanEvent // append-only, insertion order significant
	CreatedAt           time.Time
}

// LastValid returns the most recent event with result "valid", or false if
// none exists.
func (u *Unit) LastValid() (ScanEvent, bool) {
	for i := len(u.History) - 1; i >= 0; i-- {
		if u.History[i].Result == ScanValid {
			return u.History[i], true
		}
	}
	return ScanEvent{}, false
}

// Alert is an immutable anomaly record; only its resolution status changes.
type Alert struct {
	ID                 uuid.UUID
	SubjectName        string    // product name, or "System Notification"
	SubjectID          string    // unit or credential id (weak reference)
	OriginalEvidence   ScanEvent // last known-valid scan, or the trigger itself
	TriggeringEvidence ScanEvent
	Timestamp          time.Time
	Category           string
	Status             AlertStatus
	ResolvedAt         *time.Time
}

// Credential is one registered supply-chain actor. Distributors carry no
// secret; manufacturers and pharmacies receive a login id + secret pair.
// Secrets are held in clear form: they are shareable printed credentials,
// not user passwords.
type Credential struct {
	EntityID uuid.UUID
	Name     string
	Location string
	Role     Role
	LoginID  string // MFG-..., LIC-..., DIST-...
	Secret   string // empty for distributors
	IssuedAt time.Time
}

// OutcomeKind classifies the result of processing one scan.
type OutcomeKind string

const (
	// OutcomeValid means the transition was applied.
	OutcomeValid OutcomeKind = "valid"
	// OutcomeRejected is an operator-error rejection with no side effects.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeAnomaly means the unit was forced to counterfeit and an alert
	// was raised.
	OutcomeAnomaly OutcomeKind = "anomaly"
	// OutcomeRepeat is the silent suppression of a rapid duplicate scan.
	OutcomeRepeat OutcomeKind = "repeat"
)

// Outcome reports what a scan did. UnitsAffected is the carton member count
// for group activations, 1 otherwise.
type Outcome struct {
	Kind          OutcomeKind
	Reason        string
	Category      string // anomaly category, empty otherwise
	UnitsAffected int
	Unit          *Unit // post-transition state where applicable
}
