package timetable

import (
	"errors"
	"fmt"
)

// ErrStructure is returned when text detected as a grid does not have a usable grid shape.
var ErrStructure = errors.New("unparseable structure")

// Draft is the intermediate result of structural parsing. Names are raw labels as
// they appeared in the text; Normalize maps them to canonical names.
type Draft struct {
	Format  Format
	Days    []string
	Periods []Period
	Classes map[string]map[string][]ClassEntry

	// DayPlaced is set when the text itself said which day each class belongs to,
	// through explicit day markers or grid columns. Redistribution never runs then.
	DayPlaced bool

	timed map[string]bool
}

// NewDraft returns an empty draft seeded with template days and periods.
func NewDraft(format Format, days []string, periods []Period) *Draft {
	return &Draft{
		Format:  format,
		Days:    append([]string(nil), days...),
		Periods: append([]Period(nil), periods...),
		Classes: make(map[string]map[string][]ClassEntry),
		timed:   make(map[string]bool),
	}
}

// DraftFromSchedule wraps an existing schedule so it can be normalized again. Its
// placement is treated as explicit.
func DraftFromSchedule(s *Schedule) *Draft {
	c := s.Clone()
	if c == nil {
		c = DefaultSchedule()
	}
	return &Draft{
		Format:    FormatFreeform,
		Days:      c.Days,
		Periods:   c.Periods,
		Classes:   c.Classes,
		DayPlaced: true,
		timed:     make(map[string]bool),
	}
}

// ensureDay adds day if missing and returns it.
func (d *Draft) ensureDay(day string) string {
	for _, existing := range d.Days {
		if existing == day {
			return day
		}
	}
	d.Days = append(d.Days, day)
	return day
}

// ensurePeriod adds a period if missing. Numbered periods are inserted in numeric
// order among the numbered periods; anything else goes right after the period named
// after, or at the end.
func (d *Draft) ensurePeriod(name, after string) string {
	if _, ok := d.periodIndex(name); ok {
		return name
	}
	pos := len(d.Periods)
	if n, ok := periodNumber(name); ok {
		for i, p := range d.Periods {
			if m, ok := periodNumber(p.Name); ok && m > n {
				pos = i
				break
			}
		}
	} else if i, ok := d.periodIndex(after); ok {
		pos = i + 1
	}
	d.Periods = append(d.Periods, Period{})
	copy(d.Periods[pos+1:], d.Periods[pos:])
	d.Periods[pos] = Period{Name: name}
	return name
}

func (d *Draft) periodIndex(name string) (int, bool) {
	for i, p := range d.Periods {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

// setPeriodTimes records times for a period. The first times read from the text win
// over template times and over any later mention.
func (d *Draft) setPeriodTimes(name, start, end string) {
	if name == "" || start == "" || end == "" || d.timed[name] {
		return
	}
	i, ok := d.periodIndex(name)
	if !ok {
		return
	}
	d.Periods[i].StartTime = start
	d.Periods[i].EndTime = end
	d.timed[name] = true
}

// add appends a class to a slot unless an identical one is there. It reports whether
// the class was added.
func (d *Draft) add(day, period string, e ClassEntry) bool {
	slots, ok := d.Classes[day]
	if !ok {
		slots = make(map[string][]ClassEntry)
		d.Classes[day] = slots
	}
	for _, existing := range slots[period] {
		if existing.sameClass(e) {
			return false
		}
	}
	slots[period] = append(slots[period], e)
	return true
}

// amendLast fills missing details of the last class in a slot.
func (d *Draft) amendLast(day, period string, details ClassEntry) {
	entries := d.Classes[day][period]
	if len(entries) == 0 {
		return
	}
	last := &entries[len(entries)-1]
	*last = last.mergeDetails(details)
}

func (d *Draft) firstPeriod() string {
	if len(d.Periods) == 0 {
		return d.ensurePeriod(periodName(1), "")
	}
	return d.Periods[0].Name
}

func (d *Draft) firstDay() string {
	if len(d.Days) == 0 {
		return d.ensureDay(dayName(1))
	}
	return d.Days[0]
}

// ParseStructure extracts days, periods and classes from raw text according to
// format, starting from the default days and periods.
func ParseStructure(raw string, format Format) (*Draft, error) {
	return parseStructure(splitLines(cleanText(raw)), format, DefaultDays(), DefaultPeriods())
}

func parseStructure(lines []string, format Format, days []string, periods []Period) (*Draft, error) {
	d := NewDraft(format, days, periods)
	var err error
	switch format {
	case FormatTabDelimitedGrid:
		err = parseTabGrid(lines, d)
	case FormatLineDelimitedGrid:
		err = parseLineGrid(lines, d)
	case FormatFreeform:
		parseFreeform(lines, d)
	default:
		err = fmt.Errorf("%w: unknown format %q", ErrStructure, format)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
