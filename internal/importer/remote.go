package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/timetable/internal/timetable"
)

var (
	// ErrRemoteDisabled is the fallback reason when remote parsing was requested
	// but is not configured.
	ErrRemoteDisabled = errors.New("remote parsing disabled")

	// ErrMalformedRemote is returned when a remote payload does not have the
	// schedule shape.
	ErrMalformedRemote = errors.New("malformed remote schedule")
)

// remoteScheduleSchema is the canonical shape a remote payload must have once
// singular key aliases are normalised.
const remoteScheduleSchema = `{
	"type": "object",
	"required": ["days", "periods", "classes"],
	"properties": {
		"days": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		},
		"periods": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"startTime": {"type": "string"},
					"endTime": {"type": "string"}
				}
			}
		},
		"classes": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {
					"type": "array",
					"items": {
						"type": "object",
						"required": ["subject"],
						"properties": {
							"subject": {"type": "string", "minLength": 3},
							"code": {"type": "string"},
							"room": {"type": "string"},
							"teacher": {"type": "string"},
							"startTime": {"type": "string"},
							"endTime": {"type": "string"}
						}
					}
				}
			}
		}
	}
}`

var remoteSchema = jsonschema.MustCompileString("remote-schedule.json", remoteScheduleSchema)

// keyAliases maps singular top-level keys to their plural forms.
var keyAliases = map[string]string{
	"day":    "days",
	"period": "periods",
	"class":  "classes",
}

type remotePayload struct {
	Days    []string                                     `json:"days"`
	Periods []timetable.Period                           `json:"periods"`
	Classes map[string]map[string][]timetable.ClassEntry `json:"classes"`
}

// decodeRemote checks a remote payload against the schedule shape and converts it
// to a draft. Missing (day, period) pairs are left for normalisation to fill.
func decodeRemote(raw json.RawMessage) (*timetable.Draft, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRemote, err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedRemote)
	}
	canonicalizeKeys(obj)

	if err := remoteSchema.Validate(obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRemote, err)
	}

	canonical, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRemote, err)
	}
	var p remotePayload
	if err := json.Unmarshal(canonical, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRemote, err)
	}

	for day, byPeriod := range p.Classes {
		for period, entries := range byPeriod {
			for _, e := range entries {
				if utf8.RuneCountInString(strings.TrimSpace(e.Subject)) <= 2 {
					return nil, fmt.Errorf("%w: subject %q in %s %s is too short", ErrMalformedRemote, e.Subject, day, period)
				}
			}
		}
	}

	d := timetable.NewDraft(timetable.FormatFreeform, p.Days, p.Periods)
	if p.Classes != nil {
		d.Classes = p.Classes
	}
	d.DayPlaced = true
	return d, nil
}

// canonicalizeKeys renames singular aliases to plural keys. A plural key wins when
// both are present.
func canonicalizeKeys(obj map[string]any) {
	for alias, key := range keyAliases {
		v, ok := obj[alias]
		if !ok {
			continue
		}
		if _, exists := obj[key]; !exists {
			obj[key] = v
		}
		delete(obj, alias)
	}
}
