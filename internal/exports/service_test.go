package exports

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRenderCSV(t *testing.T) {
	provider := "Austin Roofing Co"
	assigned := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := []Row{
		{
			ID:           uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			LocationName: "Austin",
			ProviderName: &provider,
			Name:         "Jane Doe",
			Phone:        "+15125550100",
			Email:        "jane@example.com",
			ZipCode:      "78701",
			ProjectType:  "roof repair",
			Timing:       "asap",
			Status:       "contacted",
			AssignedAt:   &assigned,
			CreatedAt:    time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:           uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			LocationName: "Dallas",
			Name:         "John, \"JJ\" Smith",
			Status:       "new",
			CreatedAt:    time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	payload, err := renderCSV(rows)
	if err != nil {
		t.Fatalf("renderCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != strings.Join(csvHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Austin Roofing Co") || !strings.Contains(lines[1], "2024-06-01T10:00:00Z") {
		t.Errorf("row 1 = %q", lines[1])
	}
	// Unassigned lead: empty provider and assigned_at columns, quoted name.
	if !strings.Contains(lines[2], `"John, ""JJ"" Smith"`) {
		t.Errorf("row 2 does not escape the name: %q", lines[2])
	}
}

func TestRenderCSVEmpty(t *testing.T) {
	payload, err := renderCSV(nil)
	if err != nil {
		t.Fatalf("renderCSV: %v", err)
	}
	if strings.TrimSpace(string(payload)) != strings.Join(csvHeader, ",") {
		t.Errorf("empty export should be header only, got %q", payload)
	}
}
