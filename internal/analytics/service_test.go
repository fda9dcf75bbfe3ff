package analytics

import "testing"

func TestClampWindow(t *testing.T) {
	tests := []struct {
		name string
		days int
		want int
	}{
		{"zero uses default", 0, defaultWindowDays},
		{"negative uses default", -7, defaultWindowDays},
		{"in range passes through", 90, 90},
		{"over cap clamps", 1000, maxWindowDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampWindow(tt.days); got != tt.want {
				t.Errorf("clampWindow(%d) = %d, want %d", tt.days, got, tt.want)
			}
		})
	}
}
