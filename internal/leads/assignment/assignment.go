// Package assignment implements the provider selection strategies used to
// route incoming leads.
//
// Selection is pure: callers gather the eligible candidates (active providers
// with a live subscription, linked to the lead's location) plus the routing
// inputs, and Select picks one. Serialization of concurrent submissions is the
// caller's job; the repository locks the location row for the duration of the
// pick so round-robin never double-steps.
package assignment

import (
	"strings"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Candidate is one provider eligible to receive the lead. Candidates must be
// given in a stable order (the repository orders by creation time).
type Candidate struct {
	ID        uuid.UUID
	Name      string
	ZipCode   *string
	OpenLeads int
}

// Select picks a provider for a new lead, or nil when assignment is manual or
// no candidate is eligible. lastAssigned is the provider who received the
// location's most recent lead, leadZip is the lead's zip code (may be empty).
//
// An unrecognized algorithm falls back to round robin so a bad column value
// never strands a lead.
func Select(algorithm domain.Algorithm, candidates []Candidate, lastAssigned *uuid.UUID, leadZip string) *uuid.UUID {
	if len(candidates) == 0 {
		return nil
	}

	switch algorithm {
	case domain.AlgorithmManual:
		return nil
	case domain.AlgorithmGeographic:
		return selectGeographic(candidates, lastAssigned, leadZip)
	case domain.AlgorithmLoadBalance:
		return selectLoadBalance(candidates)
	default:
		return selectRoundRobin(candidates, lastAssigned)
	}
}

// selectRoundRobin returns the candidate after the last assigned one,
// wrapping around. When the last assigned provider is no longer eligible (or
// nothing was ever assigned) the first candidate wins.
func selectRoundRobin(candidates []Candidate, lastAssigned *uuid.UUID) *uuid.UUID {
	if lastAssigned != nil {
		for i, c := range candidates {
			if c.ID == *lastAssigned {
				next := candidates[(i+1)%len(candidates)].ID
				return &next
			}
		}
	}
	first := candidates[0].ID
	return &first
}

// selectGeographic picks the candidate whose zip code is numerically closest
// to the lead's. Candidates without a zip code are skipped. When the lead has
// no usable zip, or no candidate does, selection falls back to round robin.
func selectGeographic(candidates []Candidate, lastAssigned *uuid.UUID, leadZip string) *uuid.UUID {
	leadValue, ok := zipValue(leadZip)
	if !ok {
		return selectRoundRobin(candidates, lastAssigned)
	}

	var nearest *uuid.UUID
	bestDistance := 0
	for i := range candidates {
		if candidates[i].ZipCode == nil {
			continue
		}
		value, ok := zipValue(*candidates[i].ZipCode)
		if !ok {
			continue
		}
		distance := leadValue - value
		if distance < 0 {
			distance = -distance
		}
		if nearest == nil || distance < bestDistance {
			nearest = &candidates[i].ID
			bestDistance = distance
		}
	}
	if nearest == nil {
		return selectRoundRobin(candidates, lastAssigned)
	}
	return nearest
}

// selectLoadBalance picks the candidate with the fewest open leads. Ties go
// to the earlier candidate.
func selectLoadBalance(candidates []Candidate) *uuid.UUID {
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].OpenLeads < candidates[best].OpenLeads {
			best = i
		}
	}
	return &candidates[best].ID
}

// zipValue reduces a zip code to its digits as an integer for distance
// comparison. Returns false when the zip contains no digits.
func zipValue(zip string) (int, bool) {
	var digits strings.Builder
	for _, r := range zip {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	value := 0
	for _, r := range digits.String() {
		value = value*10 + int(r-'0')
	}
	return value, true
}
