package service

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Downtown Austin", "downtown-austin"},
		{"  North   Dallas  ", "north-dallas"},
		{"St. Louis / West", "st-louis-west"},
		{"UPPER case", "upper-case"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
		{"Héllo Wörld", "h-llo-w-rld"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
