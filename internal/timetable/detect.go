package timetable

import (
	"regexp"
	"strconv"
	"strings"
)

// Format is the layout family of pasted timetable text.
type Format string

const (
	FormatTabDelimitedGrid  Format = "tab_delimited_grid"
	FormatLineDelimitedGrid Format = "line_delimited_grid"
	FormatFreeform          Format = "freeform"
)

// Formats lists every recognized format in detection priority order.
var Formats = []Format{FormatTabDelimitedGrid, FormatLineDelimitedGrid, FormatFreeform}

const (
	weekdayAlternation = `monday|tuesday|wednesday|thursday|friday|mon|tues|tue|wed|thurs|thur|thu|fri`
	weekSuffix         = `(?:\s*\(?(?:week\s*)?([ab12])\)?)?`
	clockTime          = `\d{1,2}[:.]\d{2}\s*(?:am|pm)?`
)

var (
	// A whole cell or line naming a day, such as "Day 3", "D3", "Monday" or "Mon B".
	dayLabelPattern = regexp.MustCompile(`(?i)^(?:(?:day|d)\s*0*([1-9]\d?)|(` + weekdayAlternation + `)\b` + weekSuffix + `)$`)
	// A day marker at the start of a freeform line.
	dayMarkerPattern = regexp.MustCompile(`(?i)^(?:(?:day|d)\s*0*([1-9]\d?)\b|(` + weekdayAlternation + `)\b)`)
	// A period header that stands alone on its line, optionally followed by a time range.
	periodHeaderPattern = regexp.MustCompile(`(?i)^(?:period\s*0*([1-9]\d?)|(tutorial))\b\s*[:\-]?\s*(` + clockTime + `\s*(?:[-–—]|to)\s*` + clockTime + `)?\s*$`)
	// A period marker at the start of a freeform line.
	periodMarkerPattern = regexp.MustCompile(`(?i)^(?:(?:period|p)\s*0*([1-9]\d?)\b|(tut(?:orial)?)\b)`)
	// A time range, anchored at the start of the text.
	timeRangePattern = regexp.MustCompile(`(?i)^(` + clockTime + `)\s*(?:[-–—]|to)\s*(` + clockTime + `)`)
	// Separator characters that may follow a marker.
	markerSeparator = regexp.MustCompile(`^[\s:|,\-–—.]+`)

	weekdayIndex = map[string]int{
		"monday": 1, "mon": 1,
		"tuesday": 2, "tues": 2, "tue": 2,
		"wednesday": 3, "wed": 3,
		"thursday": 4, "thurs": 4, "thur": 4, "thu": 4,
		"friday": 5, "fri": 5,
	}
)

// DetectFormat classifies raw text. It is total: anything that is not a recognizable
// grid is Freeform.
func DetectFormat(raw string) Format {
	return detectLines(splitLines(cleanText(raw)))
}

func detectLines(lines []string) Format {
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if _, ok := tabHeaderColumns(l); ok {
			return FormatTabDelimitedGrid
		}
		break
	}
	if countTimedPeriodHeaders(lines) >= 2 {
		return FormatLineDelimitedGrid
	}
	return FormatFreeform
}

// tabHeaderColumns splits a tab-delimited header row into column index -> day label.
// It reports false unless there are at least three labels and all of them are days.
// Empty cells, such as a corner cell above period names, are skipped.
func tabHeaderColumns(line string) (map[int]string, bool) {
	if !strings.Contains(line, "\t") {
		return nil, false
	}
	cols := make(map[int]string)
	for i, f := range strings.Split(line, "\t") {
		f = collapseSpaces(f)
		if f == "" {
			continue
		}
		if !dayLabelPattern.MatchString(f) {
			return nil, false
		}
		cols[i] = f
	}
	return cols, len(cols) >= 3
}

// countTimedPeriodHeaders counts standalone period headers followed within two lines
// by a time range.
func countTimedPeriodHeaders(lines []string) int {
	n := 0
	for i, l := range lines {
		t := strings.TrimSpace(l)
		m := periodHeaderPattern.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if m[3] != "" {
			n++
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+2; j++ {
			if isTimeRange(strings.TrimSpace(lines[j])) {
				n++
				break
			}
		}
	}
	return n
}

// isTimeRange reports whether the whole line is a time range.
func isTimeRange(line string) bool {
	m := timeRangePattern.FindStringIndex(line)
	return m != nil && strings.TrimSpace(line[m[1]:]) == ""
}

// parseTimeRange returns the start and end of a leading time range and the rest of
// the text after it.
func parseTimeRange(text string) (start, end, rest string, ok bool) {
	m := timeRangePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return "", "", text, false
	}
	start = normalizeClock(text[m[2]:m[3]])
	end = normalizeClock(text[m[4]:m[5]])
	return start, end, text[m[1]:], true
}

// normalizeClock lowercases a clock time and drops inner spaces: "8:35 AM" -> "8:35am".
func normalizeClock(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	return strings.Replace(s, ".", ":", 1)
}

// periodHeader parses a standalone period header line.
func periodHeader(line string) (name, start, end string, ok bool) {
	m := periodHeaderPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", "", false
	}
	name = "Tutorial"
	if m[1] != "" {
		name = periodName(atoi(m[1]))
	}
	if m[3] != "" {
		start, end, _, _ = parseTimeRange(m[3])
	}
	return name, start, end, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
