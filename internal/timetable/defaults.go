package timetable

import "strconv"

// DefaultDayCount is the length of the default day cycle.
const DefaultDayCount = 10

var defaultPeriods = []Period{
	{Name: "Period 1", StartTime: "8:35am", EndTime: "9:35am"},
	{Name: "Period 2", StartTime: "9:35am", EndTime: "10:35am"},
	{Name: "Period 3", StartTime: "11:00am", EndTime: "12:00pm"},
	{Name: "Period 4", StartTime: "12:00pm", EndTime: "1:00pm"},
	{Name: "Period 5", StartTime: "1:45pm", EndTime: "2:45pm"},
}

// DefaultDays returns "Day 1" through "Day 10".
func DefaultDays() []string {
	days := make([]string, DefaultDayCount)
	for i := range days {
		days[i] = dayName(i + 1)
	}
	return days
}

// DefaultPeriods returns the five default periods with their fixed times.
func DefaultPeriods() []Period {
	return append([]Period(nil), defaultPeriods...)
}

// DefaultSchedule returns the schedule used whenever input cannot be understood:
// ten days, five periods, every slot empty. Each call returns a fresh value.
func DefaultSchedule() *Schedule {
	return newSchedule(DefaultDays(), DefaultPeriods())
}

func dayName(n int) string {
	return "Day " + strconv.Itoa(n)
}

func periodName(n int) string {
	return "Period " + strconv.Itoa(n)
}
