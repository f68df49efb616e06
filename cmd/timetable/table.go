package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jackzampolin/timetable/internal/timetable"
)

// renderSchedule draws a schedule with one row per period and one column per day.
func renderSchedule(s *timetable.Schedule) string {
	if s == nil || len(s.Days) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(s.Days)+1)
	header = append(header, "Period")
	for _, day := range s.Days {
		header = append(header, day)
	}
	tw.AppendHeader(header)

	for _, p := range s.Periods {
		row := make(table.Row, 0, len(s.Days)+1)
		row = append(row, periodLabel(p))
		for _, day := range s.Days {
			row = append(row, slotCell(s.Slot(day, p.Name)))
		}
		tw.AppendRow(row)
	}

	columnConfigs := make([]table.ColumnConfig, 0, len(s.Days)+1)
	for i := 0; i <= len(s.Days); i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			WidthMax:    24,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func periodLabel(p timetable.Period) string {
	if p.StartTime == "" {
		return p.Name
	}
	return p.Name + "\n" + p.StartTime + "-" + p.EndTime
}

// slotCell lists each class as its subject followed by room and teacher.
func slotCell(entries []timetable.ClassEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := e.Subject
		var details []string
		for _, d := range []string{e.Room, e.Teacher} {
			if d != "" {
				details = append(details, d)
			}
		}
		if len(details) > 0 {
			line += " (" + strings.Join(details, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
