package timetable

import (
	"strings"
	"unicode/utf8"
)

// freeform is the reading position in free text: the day and period most recently
// named, and the slot of the last class added.
type freeform struct {
	day, period string
	lastDay     string
	lastPeriod  string
}

// parseFreeform scans free text line by line. Day and period markers at the start of
// a line move the position; whatever follows them on the line is read as class text.
func parseFreeform(lines []string, d *Draft) {
	st := freeform{day: d.firstDay(), period: d.firstPeriod()}
	for _, line := range lines {
		st = st.next(line, d)
	}
}

func (st freeform) next(line string, d *Draft) freeform {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return st
	}

	for !roomLine(rest) {
		before := rest
		if m := dayMarkerPattern.FindStringSubmatchIndex(rest); m != nil {
			st.day = d.ensureDay(dayMarkerLabel(rest, m))
			d.DayPlaced = true
			rest = trimMarker(rest[m[1]:])
		}
		if m := periodMarkerPattern.FindStringSubmatchIndex(rest); m != nil {
			name := "Tutorial"
			if m[2] >= 0 {
				name = periodName(atoi(rest[m[2]:m[3]]))
			}
			st.period = d.ensurePeriod(name, st.period)
			rest = trimMarker(rest[m[1]:])
		}
		if s, e, after, ok := parseTimeRange(rest); ok {
			d.setPeriodTimes(st.period, s, e)
			rest = trimMarker(after)
		}
		if rest == before || rest == "" {
			break
		}
	}

	if utf8.RuneCountInString(rest) <= 3 {
		return st
	}

	e := ExtractClass(rest)
	switch {
	case e.Subject == "" || (!AcceptableSubject(e.Subject) && !IsPlaceholder(e.Subject)):
		if st.lastDay == st.day && st.lastPeriod == st.period {
			d.amendLast(st.day, st.period, e)
		}
	case IsPlaceholder(e.Subject):
	default:
		if d.add(st.day, st.period, e) {
			st.lastDay, st.lastPeriod = st.day, st.period
		}
	}
	return st
}

// dayMarkerLabel returns the label of a matched day marker: "Day N" for numbered
// markers, the weekday word otherwise.
func dayMarkerLabel(text string, m []int) string {
	if m[2] >= 0 {
		return dayName(atoi(text[m[2]:m[3]]))
	}
	return StandardizeDay(text[m[4]:m[5]])
}

// roomLine reports whether text holds only a room and a teacher, as in "D 12 Ms Jane
// Smith". Rooms in the D and P blocks look like day and period markers.
func roomLine(text string) bool {
	e := ExtractClass(text)
	return e.Subject == "" && e.Teacher != "" && e.Room != "" && strings.HasPrefix(text, e.Room)
}

func trimMarker(s string) string {
	return strings.TrimSpace(markerSeparator.ReplaceAllString(s, ""))
}
