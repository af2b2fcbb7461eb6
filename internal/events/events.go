package events

import "time"

// Event names published by the lead use cases.
const (
	LeadCreated       = "lead.created"
	LeadStatusChanged = "lead.status_changed"
	LeadConverted     = "lead.converted"
)

// LeadCreatedEvent is published after a lead row is persisted.
type LeadCreatedEvent struct {
	LeadID         uint64
	OrganizationID uint64
	Name           string
	Email          string
	OccurredAt     time.Time
}

// LeadStatusChangedEvent is published on every status transition.
type LeadStatusChangedEvent struct {
	LeadID         uint64
	OrganizationID uint64
	PreviousStatus string
	NewStatus      string
	OccurredAt     time.Time
}

// LeadConvertedEvent is published on every transition into WON, including
// re-transitions. Subscribers that count conversions must handle repeats.
type LeadConvertedEvent struct {
	LeadID         uint64
	OrganizationID uint64
	Value          float64
	OccurredAt     time.Time
}
