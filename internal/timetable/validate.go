package timetable

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// periodNamePattern is the canonical period grammar after normalization.
var periodNamePattern = regexp.MustCompile(`^(?:Period [1-9]\d*|Tutorial)$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return AcceptableSubject(fl.Field().String())
	})
	_ = v.RegisterValidation("periodname", func(fl validator.FieldLevel) bool {
		return periodNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// AcceptableSubject reports whether s can stand as a class subject: longer than two
// characters once trimmed and mostly made of letters, digits and ordinary punctuation.
func AcceptableSubject(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= 2 {
		return false
	}
	return plausibleText(s)
}

// plausibleText rejects strings dominated by symbols, which is what OCR noise and
// pasted binary look like.
func plausibleText(s string) bool {
	var letters, ok, total int
	for _, r := range s {
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
			ok++
		case unicode.IsDigit(r), unicode.IsSpace(r):
			ok++
		case strings.ContainsRune("&-'.,/()+:#", r):
			ok++
		}
	}
	if letters < 2 {
		return false
	}
	return ok*10 >= total*8
}
