package ir

import (
	"strconv"
	"strings"
	"time"
)

// TimestampPattern expands a strftime-style pattern against an epoch
// millisecond timestamp. The active pattern is session-local mutable state:
// it starts from the stream's declared default and is replaced whenever a
// pattern-change record arrives.
//
// Recognized specifiers: %Y %m %d %H %M %S %3 (milliseconds) and %% for a
// literal percent sign. Unknown specifiers are copied through verbatim.
type TimestampPattern struct {
	pattern string
}

func NewTimestampPattern(pattern string) *TimestampPattern {
	return &TimestampPattern{pattern: pattern}
}

// Set replaces the active pattern.
func (p *TimestampPattern) Set(pattern string) {
	p.pattern = pattern
}

// Empty reports whether no pattern is active.
func (p *TimestampPattern) Empty() bool {
	return p.pattern == ""
}

// Format renders ms (epoch milliseconds, UTC) according to the active
// pattern.
func (p *TimestampPattern) Format(ms int64) string {
	t := time.UnixMilli(ms).UTC()

	var b strings.Builder
	b.Grow(len(p.pattern) + 8)
	for i := 0; i < len(p.pattern); i++ {
		c := p.pattern[i]
		if c != '%' || i == len(p.pattern)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch p.pattern[i] {
		case 'Y':
			b.WriteString(pad(t.Year(), 4))
		case 'm':
			b.WriteString(pad(int(t.Month()), 2))
		case 'd':
			b.WriteString(pad(t.Day(), 2))
		case 'H':
			b.WriteString(pad(t.Hour(), 2))
		case 'M':
			b.WriteString(pad(t.Minute(), 2))
		case 'S':
			b.WriteString(pad(t.Second(), 2))
		case '3':
			b.WriteString(pad(t.Nanosecond()/1e6, 3))
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(p.pattern[i])
		}
	}
	return b.String()
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
