package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// Gaps are measured in multiples of the font size of the glyph before them.
	cellGap = 1.5
	wordGap = 0.15

	defaultFontSize = 10
)

// pdfText returns the text drawn on each page, one page after another. Each visual
// row becomes a line; wide horizontal gaps inside a row become tabs so table cells
// keep their column separation.
func pdfText(data []byte) (text string, pages int, err error) {
	if err := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
		return "", 0, fmt.Errorf("invalid PDF: %w", err)
	}

	// The reader panics on some malformed content streams that pass validation.
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("failed to extract text: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("invalid PDF: %w", err)
	}

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		b.WriteString(rowsText(rows))
		b.WriteByte('\n')
	}
	return b.String(), pages, nil
}

// rowsText renders rows top to bottom, one line per row. A row that starts right of
// the page's left edge gets an empty leading cell, as a header row does above a
// column of period names.
func rowsText(rows pdf.Rows) string {
	sorted := make(pdf.Rows, 0, len(rows))
	left := -1.0
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		sorted = append(sorted, row)
		for _, t := range row.Content {
			if left < 0 || t.X < left {
				left = t.X
			}
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })

	var out strings.Builder
	for _, row := range sorted {
		if line := rowText(row.Content, left); line != "" {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}

func rowText(content pdf.TextHorizontal, left float64) string {
	glyphs := make([]pdf.Text, len(content))
	copy(glyphs, content)
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var line strings.Builder
	for i, t := range glyphs {
		prev := pdf.Text{X: left, FontSize: t.FontSize}
		if i > 0 {
			prev = glyphs[i-1]
		}
		size := prev.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		gap := t.X - (prev.X + prev.W)
		switch {
		case gap > cellGap*size:
			line.WriteByte('\t')
		case i > 0 && gap > wordGap*size:
			line.WriteByte(' ')
		}
		line.WriteString(t.S)
	}

	cells := strings.Split(line.String(), "\t")
	for i, c := range cells {
		cells[i] = strings.Join(strings.Fields(c), " ")
	}
	joined := strings.TrimRight(strings.Join(cells, "\t"), "\t")
	if strings.Trim(joined, "\t") == "" {
		return ""
	}
	return joined
}
