// Package domain holds the core lead types shared across modules.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lead pipeline status.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusClosed    Status = "closed"
)

var validStatuses = map[Status]bool{
	StatusNew:       true,
	StatusContacted: true,
	StatusClosed:    true,
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !validStatuses[s] {
		return "", fmt.Errorf("invalid lead status %q", raw)
	}
	return s, nil
}

// IsOpen reports whether the status counts toward a provider's active workload.
func (s Status) IsOpen() bool {
	return s == StatusNew || s == StatusContacted
}

// Algorithm selects how incoming leads are routed to providers.
type Algorithm string

const (
	AlgorithmRoundRobin  Algorithm = "round_robin"
	AlgorithmGeographic  Algorithm = "geographic"
	AlgorithmLoadBalance Algorithm = "load_balance"
	AlgorithmManual      Algorithm = "manual"
)

var validAlgorithms = map[Algorithm]bool{
	AlgorithmRoundRobin:  true,
	AlgorithmGeographic:  true,
	AlgorithmLoadBalance: true,
	AlgorithmManual:      true,
}

// ParseAlgorithm validates a raw algorithm string.
func ParseAlgorithm(raw string) (Algorithm, error) {
	a := Algorithm(raw)
	if !validAlgorithms[a] {
		return "", fmt.Errorf("invalid assignment algorithm %q", raw)
	}
	return a, nil
}

// Lead is a captured customer inquiry routed to a service provider.
type Lead struct {
	ID                uuid.UUID
	LocationID        uuid.UUID
	ServiceProviderID *uuid.UUID
	Name              string
	Phone             string
	Email             string
	ZipCode           string
	ProjectType       string
	Timing            string
	Notes             *string
	Status            Status
	AssignedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Note is a timeline entry attached to a lead.
type Note struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	AuthorKind string
	AuthorID   uuid.UUID
	AuthorName string
	Type       string
	Body       string
	Metadata   map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Note types written by the lifecycle coordinator.
const (
	NoteTypeComment      = "comment"
	NoteTypeStatusChange = "status_change"
	NoteTypeAssignment   = "assignment"
)

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	EventType   string
	ActorKind   string
	ActorID     *uuid.UUID
	ActorName   string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}
