// Package dates parses the calendar date notations accepted in legal sources.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Notation names understood by NewParser, in their default trial order.
const (
	DayMonthYear   = "DD-MM-YYYY"
	YearMonthDay   = "YYYY-MM-DD"
	MonthDayYearUS = "MM/DD/YYYY"
)

var layouts = map[string]string{
	DayMonthYear:   "02-01-2006",
	YearMonthDay:   "2006-01-02",
	MonthDayYearUS: "01/02/2006",
}

// DefaultFormats is the trial order used when no configuration overrides it.
var DefaultFormats = []string{DayMonthYear, YearMonthDay, MonthDayYearUS}

// Parser tries each configured notation in order.
type Parser struct {
	formats []string
}

// NewParser builds a parser for the given notations. Unknown notations are
// rejected; an empty list falls back to DefaultFormats.
func NewParser(formats ...string) (*Parser, error) {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	seen := make(map[string]struct{}, len(formats))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.TrimSpace(f)
		if _, ok := layouts[f]; !ok {
			return nil, fmt.Errorf("dates: unsupported format %q", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return &Parser{formats: out}, nil
}

var defaultParser = &Parser{formats: DefaultFormats}

// Default returns the parser using DefaultFormats.
func Default() *Parser { return defaultParser }

// Formats reports the notations in trial order.
func (p *Parser) Formats() []string {
	return append([]string(nil), p.formats...)
}

// Parse returns the first successful interpretation of s.
func (p *Parser) Parse(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	for _, f := range p.formats {
		if t, err := time.Parse(layouts[f], value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format '%s': expected one of %s", s, strings.Join(p.formats, ", "))
}

// Compare orders two date strings on the calendar.
func (p *Parser) Compare(a, b string) (int, error) {
	ta, err := p.Parse(a)
	if err != nil {
		return 0, err
	}
	tb, err := p.Parse(b)
	if err != nil {
		return 0, err
	}
	return ta.Compare(tb), nil
}

// Parse uses the default parser.
func Parse(s string) (time.Time, error) { return defaultParser.Parse(s) }

// Compare uses the default parser.
func Compare(a, b string) (int, error) { return defaultParser.Compare(a, b) }
