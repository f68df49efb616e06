package timetable

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Options configures a Parser.
type Options struct {
	Redistribution Redistribution
}

// DefaultOptions returns the options used by the package-level Parse.
func DefaultOptions() Options {
	return Options{Redistribution: DefaultRedistribution()}
}

// Report describes how a parse went.
type Report struct {
	Format        Format `json:"format"`
	Classes       int    `json:"classes"`
	Redistributed bool   `json:"redistributed"`
	Fallback      bool   `json:"fallback"`
	Reason        string `json:"reason,omitempty"`
}

// Parser runs the detect, structure and normalize pipeline. It holds no per-call
// state and is safe for concurrent use.
type Parser struct {
	opts Options
}

// NewParser creates a parser.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse parses text with default options.
func Parse(text string) *Schedule {
	return NewParser(DefaultOptions()).Parse(text)
}

// Parse returns the schedule described by text, or the default schedule when the
// text cannot be understood. It never returns nil.
func (p *Parser) Parse(text string) *Schedule {
	s, _ := p.ParseWithReport(text)
	return s
}

// Normalize turns a draft from another source into a complete schedule using the
// parser's redistribution policy.
func (p *Parser) Normalize(d *Draft, textLength int) *Schedule {
	s, _ := normalize(d, textLength, p.opts.Redistribution)
	return s
}

// ParseWithReport is Parse with a report of the detected format and whether the
// result fell back to the default schedule.
func (p *Parser) ParseWithReport(text string) (s *Schedule, rep Report) {
	defer func() {
		if r := recover(); r != nil {
			s = DefaultSchedule()
			rep = Report{Format: rep.Format, Fallback: true, Reason: fmt.Sprintf("parser panic: %v", r)}
		}
	}()

	if strings.TrimSpace(text) == "" {
		return DefaultSchedule(), Report{Format: FormatFreeform, Fallback: true, Reason: "empty input"}
	}
	if looksBinary(text) {
		return DefaultSchedule(), Report{Format: FormatFreeform, Fallback: true, Reason: "input is not text"}
	}

	lines := splitLines(cleanText(text))
	rep.Format = detectLines(lines)

	d, err := parseStructure(lines, rep.Format, DefaultDays(), DefaultPeriods())
	if err != nil {
		return DefaultSchedule(), Report{Format: rep.Format, Fallback: true, Reason: err.Error()}
	}

	s, rep.Redistributed = normalize(d, utf8.RuneCountInString(text), p.opts.Redistribution)
	rep.Classes = s.ClassCount()
	if rep.Classes == 0 {
		return DefaultSchedule(), Report{Format: rep.Format, Fallback: true, Reason: "no classes found"}
	}
	return s, rep
}
