package timetable

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func tenDayHeader() string {
	return strings.Join(DefaultDays(), "\t")
}

func TestParse_TabDelimitedGrid(t *testing.T) {
	text := strings.Join([]string{
		tenDayHeader(),
		"Period 1",
		"8:35am–9:35am",
		"Specialist Mathematics\tEnglish\t\t\t\t\t\t\t\tChemistry",
		"(10SPE251101)\t(10ENG251102)\t\t\t\t\t\t\t\t(10CHE251103)",
		"M 07 Mr Paul Jefimenko\tE 12 Ms Jane Smith\t\t\t\t\t\t\t\tS 03 Dr Alan Grant",
	}, "\n")

	s, rep := NewParser(DefaultOptions()).ParseWithReport(text)
	if rep.Format != FormatTabDelimitedGrid {
		t.Fatalf("format = %q, want %q", rep.Format, FormatTabDelimitedGrid)
	}
	if rep.Fallback {
		t.Fatalf("unexpected fallback: %s", rep.Reason)
	}

	got := s.Slot("Day 1", "Period 1")
	if len(got) != 1 {
		t.Fatalf("Day 1/Period 1 has %d classes, want 1: %+v", len(got), got)
	}
	want := ClassEntry{
		Subject:   "Specialist Mathematics",
		Code:      "10SPE251101",
		Room:      "M 07",
		Teacher:   "Mr Paul Jefimenko",
		StartTime: "8:35am",
		EndTime:   "9:35am",
	}
	if got[0] != want {
		t.Fatalf("class = %+v, want %+v", got[0], want)
	}

	if e := s.Slot("Day 2", "Period 1"); len(e) != 1 || e[0].Teacher != "Ms Jane Smith" || e[0].Room != "E 12" {
		t.Fatalf("Day 2/Period 1 = %+v", e)
	}
	if e := s.Slot("Day 10", "Period 1"); len(e) != 1 || e[0].Subject != "Chemistry" || e[0].Code != "10CHE251103" {
		t.Fatalf("Day 10/Period 1 = %+v", e)
	}
	if e := s.Slot("Day 3", "Period 1"); len(e) != 0 {
		t.Fatalf("Day 3/Period 1 = %+v, want empty", e)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestParse_TabGridWeekdaysAndInlinePeriods(t *testing.T) {
	text := strings.Join([]string{
		"\tMonday\tTuesday\tWednesday",
		"Period 1 8:30am-9:30am\tMaths\tEnglish\tScience",
		"Period 2 9:30am-10:30am\tHistory\t\tGeography",
	}, "\n")

	s := Parse(text)
	if want := []string{"Day 1", "Day 2", "Day 3"}; !reflect.DeepEqual(s.Days, want) {
		t.Fatalf("days = %v, want %v", s.Days, want)
	}
	if e := s.Slot("Day 3", "Period 2"); len(e) != 1 || e[0].Subject != "Geography" {
		t.Fatalf("Day 3/Period 2 = %+v", e)
	}
	if e := s.Slot("Day 2", "Period 2"); len(e) != 0 {
		t.Fatalf("Day 2/Period 2 = %+v, want empty", e)
	}
	p, _ := s.Period("Period 2")
	if p.StartTime != "9:30am" || p.EndTime != "10:30am" {
		t.Fatalf("Period 2 = %+v", p)
	}
	if e := s.Slot("Day 1", "Period 1"); len(e) != 1 || e[0].StartTime != "8:30am" {
		t.Fatalf("Day 1/Period 1 = %+v", e)
	}
}

func TestParse_LineGridPlaceholders(t *testing.T) {
	text := strings.Join([]string{
		"Period 1",
		"8:35am-9:35am",
		"Free Period",
		"English",
		"Period 2",
		"9:35am-10:35am",
		"N/A",
		"Specialist Mathematics",
		"(10SPE251101)",
		"M 07 Mr Paul Jefimenko",
	}, "\n")

	s, rep := NewParser(DefaultOptions()).ParseWithReport(text)
	if rep.Format != FormatLineDelimitedGrid {
		t.Fatalf("format = %q, want %q", rep.Format, FormatLineDelimitedGrid)
	}
	if e := s.Slot("Day 1", "Period 1"); len(e) != 0 {
		t.Fatalf("placeholder produced a class: %+v", e)
	}
	if e := s.Slot("Day 2", "Period 1"); len(e) != 1 || e[0].Subject != "English" {
		t.Fatalf("Day 2/Period 1 = %+v", e)
	}
	if e := s.Slot("Day 1", "Period 2"); len(e) != 0 {
		t.Fatalf("placeholder produced a class: %+v", e)
	}
	e := s.Slot("Day 2", "Period 2")
	if len(e) != 1 || e[0].Code != "10SPE251101" || e[0].Teacher != "Mr Paul Jefimenko" {
		t.Fatalf("Day 2/Period 2 = %+v", e)
	}
}

func TestParse_FreeformDedup(t *testing.T) {
	text := strings.Join([]string{
		"Day 1",
		"Period 1",
		"English E 12 Ms Jane Smith",
		"English E 12 Ms Jane Smith",
		"English E 14 Mr John Brown",
		"Day 2 Period 3: Chemistry (10CHE251103)",
		"S 03 Dr Alan Grant",
	}, "\n")

	s := Parse(text)
	slot := s.Slot("Day 1", "Period 1")
	if len(slot) != 2 {
		t.Fatalf("Day 1/Period 1 has %d classes, want 2: %+v", len(slot), slot)
	}
	if slot[0].Teacher != "Ms Jane Smith" || slot[1].Teacher != "Mr John Brown" {
		t.Fatalf("unexpected order: %+v", slot)
	}

	chem := s.Slot("Day 2", "Period 3")
	if len(chem) != 1 {
		t.Fatalf("Day 2/Period 3 = %+v", chem)
	}
	if chem[0].Room != "S 03" || chem[0].Teacher != "Dr Alan Grant" || chem[0].Code != "10CHE251103" {
		t.Fatalf("detail line was not merged: %+v", chem[0])
	}
}

func TestParse_FreeformWeekdayMarkers(t *testing.T) {
	text := "Monday\nP1 English\nP2 Maths\nTuesday\nP1 Science\nTutorial Care Group\n"
	s := Parse(text)
	if e := s.Slot("Day 1", "Period 2"); len(e) != 1 || e[0].Subject != "Maths" {
		t.Fatalf("Day 1/Period 2 = %+v", e)
	}
	if e := s.Slot("Day 2", "Period 1"); len(e) != 1 || e[0].Subject != "Science" {
		t.Fatalf("Day 2/Period 1 = %+v", e)
	}
	if _, ok := s.Period("Tutorial"); !ok {
		t.Fatalf("Tutorial period missing: %+v", s.Periods)
	}
	if e := s.Slot("Day 2", "Tutorial"); len(e) != 1 || e[0].Subject != "Care Group" {
		t.Fatalf("Day 2/Tutorial = %+v", e)
	}
	if len(s.Days) != DefaultDayCount {
		t.Fatalf("days = %v", s.Days)
	}
}

func TestParse_LineGridWeekdayLabel(t *testing.T) {
	text := strings.Join([]string{
		"Period 1",
		"8:35am-9:35am",
		"Monday",
		"English Literature",
		"Mathematics",
		"D 12",
		"Chemistry",
		"Period 2",
		"9:35am-10:35am",
		"Wednesday",
		"History",
		"Geography",
	}, "\n")

	s, rep := NewParser(DefaultOptions()).ParseWithReport(text)
	if rep.Format != FormatLineDelimitedGrid {
		t.Fatalf("format = %q, want %q", rep.Format, FormatLineDelimitedGrid)
	}
	if len(s.Days) != DefaultDayCount || s.Days[0] != "Day 1" || s.Days[1] != "Day 2" {
		t.Fatalf("days = %v", s.Days)
	}
	if e := s.Slot("Day 2", "Period 1"); len(e) != 1 || e[0].Room != "D 12" {
		t.Fatalf("room line was not kept with its class: %+v", e)
	}

	tests := []struct {
		day, period string
		want        string
	}{
		{"Day 1", "Period 1", "English Literature"},
		{"Day 2", "Period 1", "Mathematics"},
		{"Day 3", "Period 1", "Chemistry"},
		{"Day 3", "Period 2", "History"},
		{"Day 4", "Period 2", "Geography"},
	}
	for _, tt := range tests {
		t.Run(tt.day+"/"+tt.period, func(t *testing.T) {
			e := s.Slot(tt.day, tt.period)
			if len(e) != 1 || e[0].Subject != tt.want {
				t.Errorf("slot = %+v, want one %q", e, tt.want)
			}
		})
	}
}

func TestParse_TabGridSecondWeekHeader(t *testing.T) {
	text := strings.Join([]string{
		"\tMonday\tTuesday\tWednesday",
		"Period 1\tMaths\tEnglish\tScience",
		"Period 2\tArt\tPE\tLatin",
		"\tMonday B\tTuesday B\tWednesday B",
		"Period 1\tHistory\tDrama\tMusic",
	}, "\n")

	s, rep := NewParser(DefaultOptions()).ParseWithReport(text)
	if rep.Format != FormatTabDelimitedGrid {
		t.Fatalf("format = %q, want %q", rep.Format, FormatTabDelimitedGrid)
	}
	if want := []string{"Day 1", "Day 2", "Day 3", "Day 6", "Day 7", "Day 8"}; !reflect.DeepEqual(s.Days, want) {
		t.Fatalf("days = %v, want %v", s.Days, want)
	}

	tests := []struct {
		day, period string
		want        string
	}{
		{"Day 1", "Period 1", "Maths"},
		{"Day 3", "Period 2", "Latin"},
		{"Day 6", "Period 1", "History"},
		{"Day 8", "Period 1", "Music"},
	}
	for _, tt := range tests {
		t.Run(tt.day+"/"+tt.period, func(t *testing.T) {
			e := s.Slot(tt.day, tt.period)
			if len(e) != 1 || e[0].Subject != tt.want {
				t.Errorf("slot = %+v, want one %q", e, tt.want)
			}
		})
	}
	if e := s.Slot("Day 6", "Period 2"); len(e) != 0 {
		t.Errorf("Day 6/Period 2 = %+v, want empty", e)
	}
}

func TestParse_TabGridRoomRowIsNotHeader(t *testing.T) {
	text := strings.Join([]string{
		"\tMonday\tTuesday\tWednesday",
		"Period 1\tMaths\tEnglish\tScience",
		"\tD 12\tD 14\tD 3",
	}, "\n")

	s := Parse(text)
	if want := []string{"Day 1", "Day 2", "Day 3"}; !reflect.DeepEqual(s.Days, want) {
		t.Fatalf("days = %v, want %v", s.Days, want)
	}
	if e := s.Slot("Day 1", "Period 1"); len(e) != 1 || e[0].Subject != "Maths" || e[0].Room != "D 12" {
		t.Fatalf("Day 1/Period 1 = %+v", e)
	}
}

func TestParse_FreeformRoomLooksLikeMarker(t *testing.T) {
	tests := []struct {
		name string
		room string
	}{
		{"day block", "D 12"},
		{"period block", "P 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Join([]string{
				"Day 1",
				"Period 2",
				"Mathematics Methods",
				tt.room + " Mr Paul Jefimenko",
				"Period 3",
				"Biology",
			}, "\n")

			s := Parse(text)
			if len(s.Days) != DefaultDayCount {
				t.Fatalf("days = %v", s.Days)
			}
			if e := s.Slot("Day 1", "Period 4"); len(e) != 0 {
				t.Fatalf("room read as a period marker: %+v", e)
			}
			e := s.Slot("Day 1", "Period 2")
			if len(e) != 1 || e[0].Subject != "Mathematics Methods" || e[0].Room != tt.room || e[0].Teacher != "Mr Paul Jefimenko" {
				t.Fatalf("Day 1/Period 2 = %+v", e)
			}
			if e := s.Slot("Day 1", "Period 3"); len(e) != 1 || e[0].Subject != "Biology" {
				t.Fatalf("Day 1/Period 3 = %+v", e)
			}
		})
	}
}

func TestParse_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", " \n\t\n "},
		{"binary", "\x00\x01\x02\x7f\xff\xfeGIF89a\x00\x10"},
		{"control noise", "\x01\x02\x03\x04\x05\x06abc"},
		{"symbols", "#$%^&*()!@#$%^\n@@@ ### $$$"},
		{"only placeholders", "Period 1\nFree\nLunch\nRecess"},
	}
	want, _ := json.Marshal(DefaultSchedule())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rep := NewParser(DefaultOptions()).ParseWithReport(tt.in)
			if !rep.Fallback {
				t.Fatalf("expected fallback, report = %+v", rep)
			}
			got, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != string(want) {
				t.Fatalf("got %s, want default schedule", got)
			}
		})
	}
}

func TestParse_ConcurrentCallsAreIndependent(t *testing.T) {
	p := NewParser(DefaultOptions())
	done := make(chan *Schedule, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- p.Parse("Day 1\nPeriod 1\nEnglish E 12 Ms Jane Smith") }()
	}
	var first *Schedule
	for i := 0; i < 8; i++ {
		s := <-done
		if first == nil {
			first = s
			continue
		}
		if s == first {
			t.Fatal("schedules share identity")
		}
		if !reflect.DeepEqual(s, first) {
			t.Fatal("concurrent parses disagree")
		}
	}
}

func TestSchedule_MarshalJSONKeyOrder(t *testing.T) {
	b, err := json.Marshal(DefaultSchedule())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(b)
	if !strings.HasPrefix(out, `{"days":["Day 1"`) {
		t.Fatalf("unexpected prefix: %.40s", out)
	}
	if strings.Index(out, `"periods"`) > strings.Index(out, `"classes"`) {
		t.Fatal("periods should precede classes")
	}
	if strings.Index(out, `"Day 2":{`) > strings.Index(out, `"Day 10":{`) {
		t.Fatal("classes should follow day order")
	}
	if !strings.Contains(out, `"Period 1":[]`) {
		t.Fatal("empty slots should encode as empty arrays")
	}

	var back Schedule
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := back.Validate(); err != nil {
		t.Fatalf("round-tripped schedule invalid: %v", err)
	}
}

func FuzzParse(f *testing.F) {
	f.Add("")
	f.Add(tenDayHeader() + "\nPeriod 1\n8:35am-9:35am\nMaths\t\tEnglish")
	f.Add("Period 1\n8:35am-9:35am\nMaths\nPeriod 2\n9:35am-10:35am\nEnglish")
	f.Add("Day 3 P2 Chemistry (10CHE251103) S 03 Dr Alan Grant")
	f.Add("\x00\xff\xfe")
	f.Fuzz(func(t *testing.T, in string) {
		s := Parse(in)
		if s == nil {
			t.Fatal("Parse returned nil")
		}
		if err := s.Validate(); err != nil {
			t.Fatalf("Parse(%q) produced an invalid schedule: %v", in, err)
		}
	})
}
