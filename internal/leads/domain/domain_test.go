package domain

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"new", StatusNew, false},
		{"contacted", StatusContacted, false},
		{"closed", StatusClosed, false},
		{"NEW", "", true},
		{"won", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStatusIsOpen(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusContacted} {
		if !s.IsOpen() {
			t.Errorf("%q.IsOpen() = false, want true", s)
		}
	}
	if StatusClosed.IsOpen() {
		t.Error("closed lead counted as open workload")
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, valid := range []string{"round_robin", "geographic", "load_balance", "manual"} {
		if _, err := ParseAlgorithm(valid); err != nil {
			t.Errorf("ParseAlgorithm(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"roundrobin", "random", ""} {
		if _, err := ParseAlgorithm(invalid); err == nil {
			t.Errorf("ParseAlgorithm(%q) expected error", invalid)
		}
	}
}
