package timetable

import "strings"

// lineGrid tracks position while reading a line-delimited grid: each period header is
// followed by one class block per day, in day order.
type lineGrid struct {
	period string
	cursor int
	block  []string
}

func parseLineGrid(lines []string, d *Draft) error {
	g := lineGrid{period: d.firstPeriod()}
	d.DayPlaced = true
	for _, line := range lines {
		g = g.next(strings.TrimSpace(line), d)
	}
	g.flush(d)
	return nil
}

func (g lineGrid) next(line string, d *Draft) lineGrid {
	switch {
	case line == "":
		return g.flush(d)

	case isPeriodHeaderLine(line):
		g = g.flush(d)
		name, s, e, _ := periodHeader(line)
		g.period = d.ensurePeriod(name, g.period)
		d.setPeriodTimes(g.period, s, e)
		g.cursor = 0
		return g

	case isTimeRange(line):
		g = g.flush(d)
		s, e, _, _ := parseTimeRange(line)
		d.setPeriodTimes(g.period, s, e)
		return g

	case dayLabelPattern.MatchString(line) && !(len(g.block) > 0 && roomCellPattern.MatchString(line)):
		g = g.flush(d)
		// Template days are canonical, so the label must be too or the cursor
		// lands past them.
		day := d.ensureDay(StandardizeDay(line))
		for i, existing := range d.Days {
			if existing == day {
				g.cursor = i
			}
		}
		return g
	}

	if classifyLine(line) == lineSubject {
		g = g.flush(d)
	}
	g.block = append(g.block, line)
	return g
}

// flush places the pending block on the day under the cursor. Placeholder blocks
// still take their day. Blocks with no subject line at all are dropped in place.
func (g lineGrid) flush(d *Draft) lineGrid {
	if len(g.block) == 0 {
		return g
	}
	block := g.block
	g.block = nil
	if classifyLine(block[0]) != lineSubject || len(d.Days) == 0 {
		return g
	}
	day := d.Days[g.cursor%len(d.Days)]
	if e, ok := classFromBlock(block); ok {
		d.add(day, g.period, e)
	}
	g.cursor++
	return g
}

func isPeriodHeaderLine(line string) bool {
	_, _, _, ok := periodHeader(line)
	return ok
}
