package llm

// BuildQuizJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We send it to the model as the output contract and also use it locally to validate.
func BuildQuizJSONSchema(maxQuestions int) map[string]any {
	if maxQuestions <= 0 {
		maxQuestions = MaxNumQuestions
	}
	question := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"id":       map[string]any{"type": "integer", "minimum": 1},
			"question": map[string]any{"type": "string", "minLength": 1},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"minItems": OptionsPerQuestion,
				"maxItems": OptionsPerQuestion,
			},
			"answer": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"id", "question", "options", "answer"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"items":    question,
				"minItems": 1,
				"maxItems": maxQuestions,
			},
		},
		"required": []string{"questions"},
	}
}
