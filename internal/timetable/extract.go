package timetable

import (
	"regexp"
	"strings"
)

var (
	codePattern    = regexp.MustCompile(`\(([A-Za-z0-9]{5,})\)`)
	roomPattern    = regexp.MustCompile(`\b[A-Z] ?\d{1,3}\b`)
	teacherPattern = regexp.MustCompile(`\b(?:Mrs|Mr|Ms|Miss|Dr|Prof)\b\.?\s+[A-Z][A-Za-z'\-]*\.?(?:\s+[A-Z][A-Za-z'\-]+)?`)

	placeholderWords = []string{"n/a", "free", "lunch", "recess", "break"}
)

const subjectTrim = " -–—|,;:/"

// ExtractCode returns the first parenthesized alphanumeric token of five or more
// characters, without the parentheses, or "".
func ExtractCode(text string) string {
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractRoom returns the first room token, a capital letter followed by one to three
// digits with an optional space, or "". Class codes are ignored.
func ExtractRoom(text string) string {
	text = codePattern.ReplaceAllString(text, " ")
	return roomPattern.FindString(text)
}

// ExtractTeacher returns the first honorific-prefixed name, or "".
func ExtractTeacher(text string) string {
	return collapseSpaces(teacherPattern.FindString(text))
}

// ExtractSubject strips class codes and teacher names from text, collapses whitespace
// and trims separator punctuation. The result may be empty.
func ExtractSubject(text string) string {
	s := codePattern.ReplaceAllString(text, " ")
	s = teacherPattern.ReplaceAllString(s, " ")
	return strings.Trim(collapseSpaces(s), subjectTrim)
}

// IsPlaceholder reports whether a subject names a non-class slot such as a free
// period or lunch.
func IsPlaceholder(subject string) bool {
	lower := strings.ToLower(subject)
	for _, w := range placeholderWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ExtractClass pulls every field out of a single line of class text. A room token
// found in the line is removed from the subject.
func ExtractClass(text string) ClassEntry {
	e := ClassEntry{
		Code:    ExtractCode(text),
		Teacher: ExtractTeacher(text),
	}
	e.Room = ExtractRoom(teacherPattern.ReplaceAllString(text, " "))
	e.Subject = subjectWithoutRoom(text, e.Room)
	return e
}

func subjectWithoutRoom(text, room string) string {
	s := ExtractSubject(text)
	if room == "" {
		return s
	}
	if i := strings.Index(s, room); i >= 0 {
		s = s[:i] + " " + s[i+len(room):]
	}
	return strings.Trim(collapseSpaces(s), subjectTrim)
}

// classFromBlock builds a class from a group of lines: the subject comes from the
// first line, the code, room and teacher from anywhere in the block.
// It reports false when the block does not hold an acceptable class.
func classFromBlock(block []string) (ClassEntry, bool) {
	if len(block) == 0 {
		return ClassEntry{}, false
	}
	e := ExtractClass(block[0])
	for _, line := range block[1:] {
		e = e.mergeDetails(ExtractClass(line))
	}
	if IsPlaceholder(e.Subject) || !AcceptableSubject(e.Subject) {
		return ClassEntry{}, false
	}
	return e, true
}

// mergeDetails fills empty code, room and teacher fields from o.
func (e ClassEntry) mergeDetails(o ClassEntry) ClassEntry {
	if e.Code == "" {
		e.Code = o.Code
	}
	if e.Room == "" {
		e.Room = o.Room
	}
	if e.Teacher == "" {
		e.Teacher = o.Teacher
	}
	return e
}

type lineKind int

const (
	lineSubject lineKind = iota
	lineDetail
)

// classifyLine decides whether a line opens a new class or adds detail to the
// current one. Lines with no subject text left after extraction are details.
func classifyLine(line string) lineKind {
	e := ExtractClass(line)
	if e.Subject == "" || (!AcceptableSubject(e.Subject) && (e.Code != "" || e.Room != "" || e.Teacher != "")) {
		return lineDetail
	}
	return lineSubject
}

// groupBlocks splits consecutive cell lines into class blocks, starting a new block
// at each subject line.
func groupBlocks(lines []string) [][]string {
	var blocks [][]string
	var cur []string
	for _, l := range lines {
		if classifyLine(l) == lineSubject && len(cur) > 0 {
			blocks = append(blocks, cur)
			cur = nil
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
