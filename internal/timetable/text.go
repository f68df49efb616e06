package timetable

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	invisibles    = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\u2060", "", "\ufeff", "")
	spaceRun      = regexp.MustCompile(`[ \x{00a0}]+`)
	lineSeparator = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\u2028", "\n", "\u2029", "\n")
)

// cleanText normalizes pasted text: unified line endings, NFKC compatibility forms
// (non-breaking spaces, full-width digits), and invisible characters removed.
// Tabs are preserved since they carry grid structure.
func cleanText(raw string) string {
	s := strings.ToValidUTF8(raw, "\ufffd")
	s = lineSeparator.Replace(s)
	s = norm.NFKC.String(s)
	return invisibles.Replace(s)
}

// splitLines splits cleaned text into lines, trimming trailing spaces but not tabs.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// collapseSpaces squeezes runs of spaces into one and trims the result.
func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// looksBinary reports whether raw looks like binary data rather than text: it holds
// a NUL byte, or more than one in ten runes are control or replacement characters.
func looksBinary(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return true
	}
	var bad, total int
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		i += size
		total++
		switch {
		case r == utf8.RuneError && size <= 1:
			bad++
		case r == '\n' || r == '\r' || r == '\t':
		case unicode.IsControl(r):
			bad++
		}
	}
	return bad*10 > total
}
