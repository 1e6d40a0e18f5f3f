package domain

import (
	"testing"
)

func TestParseActionPath(t *testing.T) {
	tests := []struct {
		in      string
		group   string
		action  string
		wantErr bool
	}{
		{"my_group/my_action", "my_group", "my_action", false},
		{"g/a/b", "g", "a/b", false},
		{"no-slash", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseActionPath(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Group != tt.group || p.Action != tt.action {
				t.Errorf("expected %s/%s, got %s/%s", tt.group, tt.action, p.Group, p.Action)
			}
		})
	}
}

func TestActionPath_RoundTrip(t *testing.T) {
	for _, p := range []ActionPath{
		NewActionPath("deploy", "site"),
		NewActionPath("a", "b"),
		NewActionPath("with-dash", "and_underscore"),
	} {
		got, err := ParseActionPath(p.String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != p {
			t.Errorf("round trip: expected %v, got %v", p, got)
		}
	}
}

func TestActionPath_Compare(t *testing.T) {
	a := NewActionPath("a", "z")
	b := NewActionPath("b", "a")
	if a.Compare(b) >= 0 {
		t.Error("group must be compared first")
	}
	if NewActionPath("a", "a").Compare(a) >= 0 {
		t.Error("action must be compared within group")
	}
	if a.Compare(a) != 0 {
		t.Error("path must be equal to itself")
	}
}

func TestActionPath_Matches(t *testing.T) {
	p := NewActionPath("site", "deploy")

	tests := []struct {
		pattern string
		want    bool
	}{
		{"site", true},
		{"site/deploy", true},
		{"site/build", false},
		{"other", false},
		{"sit", false},
	}

	for _, tt := range tests {
		pattern, err := ParseActionPathPattern(tt.pattern)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := p.Matches(pattern); got != tt.want {
			t.Errorf("%s matches %s: expected %v, got %v", p, tt.pattern, tt.want, got)
		}
		if pattern.String() != tt.pattern {
			t.Errorf("pattern string: expected %s, got %s", tt.pattern, pattern)
		}
	}
}

func TestParseOrigin(t *testing.T) {
	tests := []struct {
		in   string
		kind OriginKind
		str  string
	}{
		{"gh", OriginGitHub, "GitHub"},
		{"github", OriginGitHub, "GitHub"},
		{"*", OriginAny, "any"},
		{"", OriginAny, "any"},
		{"my-self-hosted", OriginCustom, "'my-self-hosted'"},
	}

	for _, tt := range tests {
		o := ParseOrigin(tt.in)
		if o.Kind != tt.kind {
			t.Errorf("ParseOrigin(%q): expected kind %d, got %d", tt.in, tt.kind, o.Kind)
		}
		if o.String() != tt.str {
			t.Errorf("ParseOrigin(%q).String(): expected %s, got %s", tt.in, tt.str, o)
		}
	}
}
