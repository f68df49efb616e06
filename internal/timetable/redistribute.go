package timetable

// Redistribution controls when classes that all landed on the first day are spread
// across the day cycle. Spreading only runs when the text named no days at all, there
// are more classes than periods, and the text is long enough to plausibly describe
// that many classes.
type Redistribution struct {
	Disabled         bool `mapstructure:"disabled" yaml:"disabled"`
	MinTextLength    int  `mapstructure:"min_text_length" yaml:"min_text_length"`
	MinCharsPerClass int  `mapstructure:"min_chars_per_class" yaml:"min_chars_per_class"`
}

// DefaultRedistribution returns the standard thresholds: at least 100 characters of
// text and at least 10 characters per class.
func DefaultRedistribution() Redistribution {
	return Redistribution{MinTextLength: 100, MinCharsPerClass: 10}
}

func (r Redistribution) applies(s *Schedule, textLength int) bool {
	if r.Disabled || len(s.Days) < 2 {
		return false
	}
	total := s.ClassCount()
	if total <= len(s.Periods) || textLength < r.MinTextLength {
		return false
	}
	if r.MinCharsPerClass > 0 && textLength/total < r.MinCharsPerClass {
		return false
	}
	first := s.Days[0]
	for _, day := range s.Days[1:] {
		for _, entries := range s.Classes[day] {
			if len(entries) > 0 {
				return false
			}
		}
	}
	return len(s.Classes[first]) > 0
}

// redistribute moves the i-th class of each first-day slot to day i modulo the cycle
// length, keeping the period.
func redistribute(s *Schedule) {
	first := s.Days[0]
	for _, p := range s.Periods {
		entries := s.Classes[first][p.Name]
		s.Classes[first][p.Name] = []ClassEntry{}
		for i, e := range entries {
			day := s.Days[i%len(s.Days)]
			s.Classes[day][p.Name] = append(s.Classes[day][p.Name], e)
		}
	}
}
