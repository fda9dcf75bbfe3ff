package assignment

import (
	"testing"

	"github.com/sanjaykhatri/lead-management-backend/internal/leads/domain"

	"github.com/google/uuid"
)

var (
	providerA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	providerB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	providerC = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func zip(s string) *string { return &s }

func threeCandidates() []Candidate {
	return []Candidate{
		{ID: providerA, Name: "Alpha"},
		{ID: providerB, Name: "Bravo"},
		{ID: providerC, Name: "Charlie"},
	}
}

func TestSelectNoCandidates(t *testing.T) {
	if got := Select(domain.AlgorithmRoundRobin, nil, nil, "78701"); got != nil {
		t.Errorf("Select with no candidates = %v, want nil", got)
	}
}

func TestSelectManual(t *testing.T) {
	if got := Select(domain.AlgorithmManual, threeCandidates(), nil, "78701"); got != nil {
		t.Errorf("manual algorithm = %v, want nil", got)
	}
}

func TestRoundRobin(t *testing.T) {
	tests := []struct {
		name         string
		lastAssigned *uuid.UUID
		want         uuid.UUID
	}{
		{"first lead goes to first candidate", nil, providerA},
		{"advances past last assigned", &providerA, providerB},
		{"wraps around at the end", &providerC, providerA},
		{"last assigned no longer eligible", ptr(uuid.MustParse("99999999-9999-9999-9999-999999999999")), providerA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(domain.AlgorithmRoundRobin, threeCandidates(), tt.lastAssigned, "")
			if got == nil || *got != tt.want {
				t.Errorf("Select = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestRoundRobinFullRotation(t *testing.T) {
	candidates := threeCandidates()
	counts := make(map[uuid.UUID]int)

	var last *uuid.UUID
	for i := 0; i < 9; i++ {
		got := Select(domain.AlgorithmRoundRobin, candidates, last, "")
		if got == nil {
			t.Fatal("Select returned nil mid-rotation")
		}
		counts[*got]++
		last = got
	}

	for _, c := range candidates {
		if counts[c.ID] != 3 {
			t.Errorf("candidate %s received %d leads, want 3", c.Name, counts[c.ID])
		}
	}
}

func TestGeographic(t *testing.T) {
	candidates := []Candidate{
		{ID: providerA, Name: "Alpha", ZipCode: zip("78701")},
		{ID: providerB, Name: "Bravo", ZipCode: zip("78745")},
		{ID: providerC, Name: "Charlie"}, // no zip, never picked by distance
	}

	tests := []struct {
		name    string
		leadZip string
		want    uuid.UUID
	}{
		{"closest zip wins", "78744", providerB},
		{"exact match wins", "78701", providerA},
		{"equidistant goes to earlier candidate", "78723", providerA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(domain.AlgorithmGeographic, candidates, nil, tt.leadZip)
			if got == nil || *got != tt.want {
				t.Errorf("Select = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestGeographicLeadWithoutZipFallsBackToRoundRobin(t *testing.T) {
	candidates := []Candidate{
		{ID: providerA, Name: "Alpha", ZipCode: zip("78701")},
		{ID: providerB, Name: "Bravo", ZipCode: zip("78745")},
	}
	got := Select(domain.AlgorithmGeographic, candidates, &providerA, "")
	if got == nil || *got != providerB {
		t.Errorf("Select = %v, want round-robin pick %s", got, providerB)
	}
}

func TestGeographicNoCandidateHasZipFallsBackToRoundRobin(t *testing.T) {
	got := Select(domain.AlgorithmGeographic, threeCandidates(), &providerA, "78701")
	if got == nil || *got != providerB {
		t.Errorf("Select = %v, want rotation to continue at %s", got, providerB)
	}

	got = Select(domain.AlgorithmGeographic, threeCandidates(), nil, "78701")
	if got == nil || *got != providerA {
		t.Errorf("Select = %v, want first candidate %s when nothing was assigned", got, providerA)
	}
}

func TestLoadBalance(t *testing.T) {
	candidates := []Candidate{
		{ID: providerA, Name: "Alpha", OpenLeads: 4},
		{ID: providerB, Name: "Bravo", OpenLeads: 1},
		{ID: providerC, Name: "Charlie", OpenLeads: 2},
	}
	got := Select(domain.AlgorithmLoadBalance, candidates, nil, "")
	if got == nil || *got != providerB {
		t.Errorf("Select = %v, want least-loaded %s", got, providerB)
	}
}

func TestLoadBalanceTieGoesToEarlierCandidate(t *testing.T) {
	candidates := []Candidate{
		{ID: providerA, Name: "Alpha", OpenLeads: 2},
		{ID: providerB, Name: "Bravo", OpenLeads: 2},
	}
	got := Select(domain.AlgorithmLoadBalance, candidates, nil, "")
	if got == nil || *got != providerA {
		t.Errorf("Select = %v, want %s", got, providerA)
	}
}

func TestUnknownAlgorithmFallsBackToRoundRobin(t *testing.T) {
	got := Select(domain.Algorithm("random"), threeCandidates(), &providerB, "")
	if got == nil || *got != providerC {
		t.Errorf("Select = %v, want %s", got, providerC)
	}
}

func TestZipValue(t *testing.T) {
	tests := []struct {
		zip    string
		want   int
		wantOK bool
	}{
		{"78701", 78701, true},
		{"78701-1234", 787011234, true},
		{" 02134 ", 2134, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := zipValue(tt.zip)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("zipValue(%q) = (%d, %v), want (%d, %v)", tt.zip, got, ok, tt.want, tt.wantOK)
		}
	}
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
