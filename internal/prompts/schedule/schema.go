package schedule

// classEntrySchema describes one class entry in the model's reply.
var classEntrySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"subject":   map[string]any{"type": "string", "description": "Subject name without code, room or teacher"},
		"code":      map[string]any{"type": "string", "description": "Bracketed class code, or empty"},
		"room":      map[string]any{"type": "string", "description": "Room such as M 07, or empty"},
		"teacher":   map[string]any{"type": "string", "description": "Teacher with title, or empty"},
		"startTime": map[string]any{"type": "string"},
		"endTime":   map[string]any{"type": "string"},
	},
	"required": []string{"subject"},
}

// ResponseSchema is the JSON schema sent with the extraction request. It is
// lenient about top-level keys so singular aliases survive to the importer,
// which validates the canonical shape after normalising them.
var ResponseSchema = map[string]any{
	"name":   "timetable",
	"strict": false,
	"schema": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"periods": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":      map[string]any{"type": "string"},
						"startTime": map[string]any{"type": "string"},
						"endTime":   map[string]any{"type": "string"},
					},
					"required": []string{"name"},
				},
			},
			"classes": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"additionalProperties": map[string]any{
						"type":  "array",
						"items": classEntrySchema,
					},
				},
			},
		},
	},
}
