// Package ingest turns uploaded or pasted timetable sources into raw text for the parser.
//
// Spreadsheets (CSV, XLSX) are re-emitted as tab-delimited rows so they read like a
// grid copied from a spreadsheet. PDFs are reduced to the text shown on each page.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file types ingest cannot read.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrEmptySource is returned when a source holds no text.
	ErrEmptySource = errors.New("source has no text")

	// ErrTooLarge is returned when a source exceeds the size limit.
	ErrTooLarge = errors.New("source too large")
)

// Kind identifies a source format.
type Kind string

const (
	KindText Kind = "text"
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindPDF  Kind = "pdf"
)

var kindsByExt = map[string]Kind{
	"":      KindText,
	".txt":  KindText,
	".text": KindText,
	".tsv":  KindText,
	".csv":  KindCSV,
	".xlsx": KindXLSX,
	".xlsm": KindXLSX,
	".pdf":  KindPDF,
}

// Document is the text extracted from one source.
type Document struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Text  string `json:"text"`
	Pages int    `json:"pages,omitempty"` // PDF page count
	Sheet string `json:"sheet,omitempty"` // XLSX sheet the text came from
}

// KindOf returns the source kind for a file name.
func KindOf(name string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind, ok := kindsByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return kind, nil
}

// ReadFile reads a source from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(filepath.Base(path), f, 0)
}

// Read extracts text from r, choosing the reader by name. A positive limit caps
// the number of bytes read.
func Read(name string, r io.Reader, limit int64) (*Document, error) {
	kind, err := KindOf(name)
	if err != nil {
		return nil, err
	}

	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, limit)
	}

	doc := &Document{Name: name, Kind: kind}
	switch kind {
	case KindText:
		doc.Text = string(data)
	case KindCSV:
		doc.Text, err = csvText(bytes.NewReader(data))
	case KindXLSX:
		doc.Text, doc.Sheet, err = xlsxText(data)
	case KindPDF:
		doc.Text, doc.Pages, err = pdfText(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, name)
	}
	return doc, nil
}

// gridText renders spreadsheet rows as tab-delimited lines. A cell holding several
// lines is spread over consecutive rows in its column so each line stays aligned
// under its header.
func gridText(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		height := 1
		cells := make([][]string, len(row))
		for i, cell := range row {
			cells[i] = strings.Split(strings.ReplaceAll(cell, "\r\n", "\n"), "\n")
			if len(cells[i]) > height {
				height = len(cells[i])
			}
		}
		for line := 0; line < height; line++ {
			fields := make([]string, len(cells))
			for i, parts := range cells {
				if line < len(parts) {
					fields[i] = strings.TrimSpace(strings.ReplaceAll(parts[line], "\t", " "))
				}
			}
			b.WriteString(strings.TrimRight(strings.Join(fields, "\t"), "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
