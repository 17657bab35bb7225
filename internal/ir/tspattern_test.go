package ir

import "testing"

// 2023-11-14 22:13:20.000 UTC
const knownTS = int64(1700000000000)

func TestTimestampPatternFormat(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{"%Y-%m-%d %H:%M:%S.%3", "2023-11-14 22:13:20.000"},
		{"%H:%M:%S", "22:13:20"},
		{"[%Y%m%d]", "[20231114]"},
		{"100%%", "100%"},
		{"%q", "%q"}, // unknown specifier passes through
		{"", ""},
	}
	for _, c := range cases {
		p := NewTimestampPattern(c.pattern)
		if got := p.Format(knownTS); got != c.want {
			t.Errorf("Format(%q) = %q, want %q", c.pattern, got, c.want)
		}
	}
}

func TestTimestampPatternMillis(t *testing.T) {
	p := NewTimestampPattern("%S.%3")
	if got := p.Format(knownTS + 7); got != "20.007" {
		t.Errorf("Format = %q, want %q", got, "20.007")
	}
}

func TestTimestampPatternSet(t *testing.T) {
	p := NewTimestampPattern("")
	if !p.Empty() {
		t.Error("new pattern with empty string should be empty")
	}
	p.Set("%H")
	if p.Empty() {
		t.Error("pattern should not be empty after Set")
	}
	if got := p.Format(knownTS); got != "22" {
		t.Errorf("Format = %q, want %q", got, "22")
	}
}
