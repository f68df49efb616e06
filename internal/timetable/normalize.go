package timetable

import (
	"regexp"
	"strings"
)

var (
	numberedDayPattern    = regexp.MustCompile(`(?i)^(?:day|d)\s*0*([1-9]\d?)$`)
	weekdayLabelPattern   = regexp.MustCompile(`(?i)^(` + weekdayAlternation + `)\b` + weekSuffix + `$`)
	numberedPeriodPattern = regexp.MustCompile(`(?i)^(?:period|p)\s*0*([1-9]\d?)$`)
	tutorialPattern       = regexp.MustCompile(`(?i)^tut(?:orial)?$`)
	canonicalPeriod       = regexp.MustCompile(`^Period ([1-9]\d*)$`)
)

// StandardizeDay maps a day label to its canonical name. Numbered variants become
// "Day N" and weekday names become days of the cycle, Monday through Friday as Day 1
// to Day 5 and their week B forms as Day 6 to Day 10. Other labels come back trimmed.
func StandardizeDay(label string) string {
	label = collapseSpaces(label)
	if m := numberedDayPattern.FindStringSubmatch(label); m != nil {
		return dayName(atoi(m[1]))
	}
	if m := weekdayLabelPattern.FindStringSubmatch(label); m != nil {
		n := weekdayIndex[strings.ToLower(m[1])]
		switch strings.ToLower(m[2]) {
		case "b", "2":
			n += 5
		}
		return dayName(n)
	}
	return label
}

// StandardizePeriod maps a period label to "Period N" or "Tutorial". Other labels come
// back trimmed.
func StandardizePeriod(label string) string {
	label = collapseSpaces(label)
	if m := numberedPeriodPattern.FindStringSubmatch(label); m != nil {
		return periodName(atoi(m[1]))
	}
	if tutorialPattern.MatchString(label) {
		return "Tutorial"
	}
	return label
}

func periodNumber(name string) (int, bool) {
	m := canonicalPeriod.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	return atoi(m[1]), true
}

// Normalize turns a draft into a complete schedule using the default redistribution
// policy. textLength is the length of the source text in characters.
func Normalize(d *Draft, textLength int) *Schedule {
	s, _ := normalize(d, textLength, DefaultRedistribution())
	return s
}

// normalize canonicalizes names, cleans and deduplicates classes, fills every slot,
// and redistributes crammed classes when the policy allows it. A panic anywhere in
// here resolves to the default schedule. It reports whether redistribution ran.
func normalize(d *Draft, textLength int, policy Redistribution) (s *Schedule, redistributed bool) {
	defer func() {
		if r := recover(); r != nil {
			s, redistributed = DefaultSchedule(), false
		}
	}()
	if d == nil {
		return DefaultSchedule(), false
	}

	dayOf := make(map[string]string)
	var days []string
	addDay := func(raw string) {
		if _, ok := dayOf[raw]; ok {
			return
		}
		canon := StandardizeDay(raw)
		if canon == "" {
			return
		}
		dayOf[raw] = canon
		for _, existing := range days {
			if existing == canon {
				return
			}
		}
		days = append(days, canon)
	}
	for _, day := range d.Days {
		addDay(day)
	}
	rawDays := orderedKeys(d.Days, d.Classes)
	for _, day := range rawDays {
		addDay(day)
	}

	periodOf := make(map[string]string)
	var periods []Period
	addPeriod := func(p Period) {
		if _, ok := periodOf[p.Name]; ok {
			return
		}
		canon := StandardizePeriod(p.Name)
		if canon == "" {
			return
		}
		periodOf[p.Name] = canon
		for i := range periods {
			if periods[i].Name == canon {
				if periods[i].StartTime == "" && periods[i].EndTime == "" {
					periods[i].StartTime, periods[i].EndTime = p.StartTime, p.EndTime
				}
				return
			}
		}
		periods = append(periods, Period{Name: canon, StartTime: strings.TrimSpace(p.StartTime), EndTime: strings.TrimSpace(p.EndTime)})
	}
	rawPeriodNames := make([]string, 0, len(d.Periods))
	for _, p := range d.Periods {
		addPeriod(p)
		rawPeriodNames = append(rawPeriodNames, p.Name)
	}
	for _, day := range rawDays {
		for _, name := range orderedKeys(rawPeriodNames, d.Classes[day]) {
			addPeriod(Period{Name: name})
		}
	}

	if len(days) == 0 {
		days = DefaultDays()
	}
	if len(periods) == 0 {
		periods = DefaultPeriods()
	}

	s = newSchedule(days, periods)
	times := make(map[string]Period, len(periods))
	for _, p := range periods {
		times[p.Name] = p
	}

	for _, rawDay := range rawDays {
		day, ok := dayOf[rawDay]
		if !ok {
			continue
		}
		slots := d.Classes[rawDay]
		for _, rawPeriod := range orderedKeys(rawPeriodNames, slots) {
			period, ok := periodOf[rawPeriod]
			if !ok {
				continue
			}
			for _, e := range slots[rawPeriod] {
				e, ok := cleanClass(e, times[period])
				if !ok {
					continue
				}
				s.Classes[day][period] = appendUnique(s.Classes[day][period], e)
			}
		}
	}

	if !d.DayPlaced && policy.applies(s, textLength) {
		redistribute(s)
		redistributed = true
	}
	return s, redistributed
}

// cleanClass trims every field, rejects unacceptable subjects, and fills missing times
// from the class's period.
func cleanClass(e ClassEntry, p Period) (ClassEntry, bool) {
	e.Subject = collapseSpaces(e.Subject)
	e.Code = strings.TrimSpace(e.Code)
	e.Room = collapseSpaces(e.Room)
	e.Teacher = collapseSpaces(e.Teacher)
	e.StartTime = strings.TrimSpace(e.StartTime)
	e.EndTime = strings.TrimSpace(e.EndTime)
	if !AcceptableSubject(e.Subject) {
		return ClassEntry{}, false
	}
	if e.StartTime == "" && e.EndTime == "" {
		e.StartTime, e.EndTime = p.StartTime, p.EndTime
	}
	return e, true
}

func appendUnique(entries []ClassEntry, e ClassEntry) []ClassEntry {
	for _, existing := range entries {
		if existing.sameClass(e) {
			return entries
		}
	}
	return append(entries, e)
}
