package catalog

// documentSchema validates a catalog document before it is loaded.
// Options need at least two entries; the correct index is range-checked
// separately in validateDocument because JSON Schema cannot express
// "less than the length of a sibling array".
var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{
			"type":    "string",
			"pattern": `^\d+\.\d+\.\d+$`,
		},
		"modules": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":      "string",
						"minLength": 1,
					},
					"title": map[string]any{
						"type":      "string",
						"minLength": 1,
					},
					"points": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"questions": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"prompt": map[string]any{
									"type":      "string",
									"minLength": 1,
								},
								"options": map[string]any{
									"type":     "array",
									"minItems": 2,
									"items":    map[string]any{"type": "string"},
								},
								"correct": map[string]any{
									"type":    "integer",
									"minimum": 0,
								},
							},
							"required":             []any{"prompt", "options", "correct"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []any{"key", "title", "questions"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"version", "modules"},
	"additionalProperties": false,
}
