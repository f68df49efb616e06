// Package timetable turns pasted school timetable text into a normalized schedule.
//
// The pipeline is:
//
//	raw text -> DetectFormat -> ParseStructure -> Normalize -> Schedule
//
// Every step is pure and allocates fresh state per call, so a Parser can be shared
// across goroutines. Parse never panics and never returns nil: input that cannot be
// understood resolves to DefaultSchedule.
package timetable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSchedule is returned by Validate when a schedule breaks an invariant.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Period is a named timeslot. Times are display strings such as "8:35am".
type Period struct {
	Name      string `json:"name" yaml:"name" validate:"periodname"`
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
}

// ClassEntry is one class occurrence within a (day, period) slot.
type ClassEntry struct {
	Subject   string `json:"subject" yaml:"subject" validate:"subject"`
	Code      string `json:"code" yaml:"code"`
	Room      string `json:"room" yaml:"room"`
	Teacher   string `json:"teacher" yaml:"teacher"`
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
}

// sameClass reports whether two entries describe the same class for dedup purposes.
func (e ClassEntry) sameClass(o ClassEntry) bool {
	return e.Subject == o.Subject && e.Room == o.Room && e.Teacher == o.Teacher
}

// Schedule is the parsed timetable: days x periods x classes.
// For every day in Days and every period in Periods, Classes[day][period.Name] exists.
type Schedule struct {
	Days    []string                           `json:"days" yaml:"days"`
	Periods []Period                           `json:"periods" yaml:"periods"`
	Classes map[string]map[string][]ClassEntry `json:"classes" yaml:"classes"`
}

// newSchedule builds a fully populated schedule with empty slots.
func newSchedule(days []string, periods []Period) *Schedule {
	s := &Schedule{
		Days:    append([]string(nil), days...),
		Periods: append([]Period(nil), periods...),
		Classes: make(map[string]map[string][]ClassEntry, len(days)),
	}
	s.fill()
	return s
}

// fill creates any missing (day, period) slot as an empty sequence.
func (s *Schedule) fill() {
	if s.Classes == nil {
		s.Classes = make(map[string]map[string][]ClassEntry, len(s.Days))
	}
	for _, day := range s.Days {
		slots, ok := s.Classes[day]
		if !ok {
			slots = make(map[string][]ClassEntry, len(s.Periods))
			s.Classes[day] = slots
		}
		for _, p := range s.Periods {
			if slots[p.Name] == nil {
				slots[p.Name] = []ClassEntry{}
			}
		}
	}
}

// Slot returns the classes in a (day, period) slot. Missing slots yield nil.
func (s *Schedule) Slot(day, period string) []ClassEntry {
	if s == nil || s.Classes == nil {
		return nil
	}
	return s.Classes[day][period]
}

// Period returns the period with the given name.
func (s *Schedule) Period(name string) (Period, bool) {
	for _, p := range s.Periods {
		if p.Name == name {
			return p, true
		}
	}
	return Period{}, false
}

// ClassCount returns the total number of class entries across all slots.
func (s *Schedule) ClassCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, slots := range s.Classes {
		for _, entries := range slots {
			n += len(entries)
		}
	}
	return n
}

// Clone returns a deep copy.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	c := &Schedule{
		Days:    append([]string(nil), s.Days...),
		Periods: append([]Period(nil), s.Periods...),
		Classes: make(map[string]map[string][]ClassEntry, len(s.Classes)),
	}
	for day, slots := range s.Classes {
		cs := make(map[string][]ClassEntry, len(slots))
		for period, entries := range slots {
			cs[period] = append([]ClassEntry{}, entries...)
		}
		c.Classes[day] = cs
	}
	return c
}

// MarshalJSON encodes the schedule with keys in display order: days, periods, then
// classes keyed by day and period in the order they are declared.
func (s Schedule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	days := s.Days
	if days == nil {
		days = []string{}
	}
	periods := s.Periods
	if periods == nil {
		periods = []Period{}
	}

	buf.WriteString(`{"days":`)
	if err := writeJSON(&buf, days); err != nil {
		return nil, err
	}
	buf.WriteString(`,"periods":`)
	if err := writeJSON(&buf, periods); err != nil {
		return nil, err
	}
	buf.WriteString(`,"classes":{`)

	periodNames := make([]string, len(s.Periods))
	for i, p := range s.Periods {
		periodNames[i] = p.Name
	}

	for i, day := range orderedKeys(s.Days, s.Classes) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, day); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		slots := s.Classes[day]
		for j, period := range orderedKeys(periodNames, slots) {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(&buf, period); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			entries := slots[period]
			if entries == nil {
				entries = []ClassEntry{}
			}
			if err := writeJSON(&buf, entries); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// orderedKeys returns the declared names present in m first, followed by any
// undeclared keys of m in sorted order.
func orderedKeys[V any](declared []string, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range declared {
		if _, ok := m[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Validate checks the schedule invariants: unique non-empty days, unique well-formed
// period names, every (day, period) slot present, and every class subject acceptable.
func (s *Schedule) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil schedule", ErrInvalidSchedule)
	}
	if len(s.Days) == 0 {
		return fmt.Errorf("%w: no days", ErrInvalidSchedule)
	}
	if len(s.Periods) == 0 {
		return fmt.Errorf("%w: no periods", ErrInvalidSchedule)
	}

	seenDays := make(map[string]bool, len(s.Days))
	for _, day := range s.Days {
		if day == "" {
			return fmt.Errorf("%w: empty day name", ErrInvalidSchedule)
		}
		if seenDays[day] {
			return fmt.Errorf("%w: duplicate day %q", ErrInvalidSchedule, day)
		}
		seenDays[day] = true
	}

	seenPeriods := make(map[string]bool, len(s.Periods))
	for _, p := range s.Periods {
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("%w: period %q: %v", ErrInvalidSchedule, p.Name, err)
		}
		if seenPeriods[p.Name] {
			return fmt.Errorf("%w: duplicate period %q", ErrInvalidSchedule, p.Name)
		}
		seenPeriods[p.Name] = true
	}

	for _, day := range s.Days {
		slots, ok := s.Classes[day]
		if !ok {
			return fmt.Errorf("%w: missing day %q in classes", ErrInvalidSchedule, day)
		}
		for _, p := range s.Periods {
			if _, ok := slots[p.Name]; !ok {
				return fmt.Errorf("%w: missing slot %q/%q", ErrInvalidSchedule, day, p.Name)
			}
		}
	}

	for day, slots := range s.Classes {
		for period, entries := range slots {
			for i, e := range entries {
				if err := validate.Struct(e); err != nil {
					return fmt.Errorf("%w: class %d in %q/%q: %v", ErrInvalidSchedule, i, day, period, err)
				}
			}
		}
	}
	return nil
}
