package timetable

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// A cell holding only a room, such as "D 12", which also reads as a day label.
var roomCellPattern = regexp.MustCompile(`^[A-Z] ?\d{1,3}$`)

// tabGrid accumulates the cells of one period band of a tab-delimited grid.
type tabGrid struct {
	columns []int
	days    map[int]string
	period  string
	cells   map[int][]string
}

// parseTabGrid reads a grid whose header row names days in tab-separated columns.
// Rows below the header are grouped into period bands by period header lines; within
// a band each column is read top to bottom and split into class blocks.
func parseTabGrid(lines []string, d *Draft) error {
	start := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			start = i
			break
		}
	}
	if start < 0 {
		return fmt.Errorf("%w: empty grid", ErrStructure)
	}
	days, ok := tabHeaderColumns(lines[start])
	if !ok {
		return fmt.Errorf("%w: header row does not name days", ErrStructure)
	}

	g := &tabGrid{cells: make(map[int][]string)}
	d.Days = d.Days[:0]
	g.header(days, d)
	d.DayPlaced = true
	g.period = d.firstPeriod()

	for _, line := range lines[start+1:] {
		g.row(line, d)
	}
	g.flush(d)
	return nil
}

func (g *tabGrid) row(line string, d *Draft) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if days, ok := tabHeaderColumns(line); ok && !anyRoomCell(days) {
		// A later header starts a new block, such as the second week of a
		// fortnight. Its rows restart at the first period when it names new days.
		g.flush(d)
		if g.header(days, d) {
			g.period = d.firstPeriod()
		}
		return
	}
	fields := strings.Split(line, "\t")

	// A period header may stand alone or sit in the leading cell of a data row.
	lead, leadCol := firstCell(fields)
	if name, s, e, ok := periodHeader(lead); ok {
		g.flush(d)
		g.period = d.ensurePeriod(name, g.period)
		d.setPeriodTimes(g.period, s, e)
		fields[leadCol] = ""
		if allBlank(fields) {
			return
		}
	}

	if s, e, ok := timeRow(fields); ok {
		d.setPeriodTimes(g.period, s, e)
		return
	}

	for _, col := range g.columns {
		if col >= len(fields) {
			break
		}
		cell := collapseSpaces(fields[col])
		if cell == "" {
			continue
		}
		g.cells[col] = append(g.cells[col], cell)
	}
}

// header points the columns at the days of a header row and reports whether any of
// them were not seen before.
func (g *tabGrid) header(days map[int]string, d *Draft) bool {
	g.days = make(map[int]string, len(days))
	g.columns = g.columns[:0]
	for col, label := range days {
		g.days[col] = StandardizeDay(label)
		g.columns = append(g.columns, col)
	}
	sort.Ints(g.columns)

	added := false
	for _, col := range g.columns {
		n := len(d.Days)
		d.ensureDay(g.days[col])
		added = added || len(d.Days) > n
	}
	return added
}

func anyRoomCell(labels map[int]string) bool {
	for _, l := range labels {
		if roomCellPattern.MatchString(l) {
			return true
		}
	}
	return false
}

// flush turns the accumulated column cells into classes for the current period.
func (g *tabGrid) flush(d *Draft) {
	for _, col := range g.columns {
		for _, block := range groupBlocks(g.cells[col]) {
			if e, ok := classFromBlock(block); ok {
				d.add(g.days[col], g.period, e)
			}
		}
	}
	g.cells = make(map[int][]string)
}

func firstCell(fields []string) (string, int) {
	for i, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			return t, i
		}
	}
	return "", 0
}

func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// timeRow reports whether every non-empty cell of a row is a time range, returning
// the first one.
func timeRow(fields []string) (start, end string, ok bool) {
	for _, f := range fields {
		t := strings.TrimSpace(f)
		if t == "" {
			continue
		}
		if !isTimeRange(t) {
			return "", "", false
		}
		if !ok {
			start, end, _, ok = parseTimeRange(t)
		}
	}
	return start, end, ok
}
