package ai

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractSVGFragment(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "bare fragment",
			raw:  `<svg viewBox="0 0 1000 800"><rect/></svg>`,
			want: `<svg viewBox="0 0 1000 800"><rect/></svg>`,
			ok:   true,
		},
		{
			name: "wrapped in prose and code fence",
			raw:  "Here is the floor plan:\n```svg\n<svg width=\"1000\"><g/></svg>\n```\nLet me know!",
			want: `<svg width="1000"><g/></svg>`,
			ok:   true,
		},
		{
			name: "no fragment",
			raw:  "I cannot draw that.",
			ok:   false,
		},
		{
			name: "opening tag without closing",
			raw:  `<svg width="1000"><rect/>`,
			ok:   false,
		},
		{
			name: "closing before opening",
			raw:  `</svg> something <b>else</b>`,
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractSVGFragment(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("fragment = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHazards_Valid(t *testing.T) {
	raw := `{"hazards":[
		{"category":"ergonomic","severity":"high","label":"Poor posture","description":"Desks are not adjustable."},
		{"category":"chemical","severity":"low","label":"Cleaning agents","description":""}
	]}`
	hazards, err := parseHazards(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hazards) != 2 {
		t.Fatalf("expected 2 hazards, got %d", len(hazards))
	}
	if hazards[0].Label != "Poor posture" || hazards[0].Severity != "high" {
		t.Errorf("first hazard parsed wrong: %+v", hazards[0])
	}
}

func TestParseHazards_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "the hazards are slips and trips"},
		{"empty list", `{"hazards":[]}`},
		{"unknown category", `{"hazards":[{"category":"cosmic","severity":"low","label":"x","description":""}]}`},
		{"unknown severity", `{"hazards":[{"category":"physical","severity":"catastrophic","label":"x","description":""}]}`},
		{"blank label", `{"hazards":[{"category":"physical","severity":"low","label":"  ","description":""}]}`},
		{"too many", `{"hazards":[` + strings.Repeat(`{"category":"physical","severity":"low","label":"x","description":""},`, 10) +
			`{"category":"physical","severity":"low","label":"x","description":""}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseHazards(tt.raw); !errors.Is(err, ErrBadFormat) {
				t.Fatalf("expected ErrBadFormat, got %v", err)
			}
		})
	}
}
