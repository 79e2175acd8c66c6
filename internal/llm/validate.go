package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateQuestions checks the rules a schema cannot express: ids are 1..n in
// order, options are distinct and the answer is one of them.
func ValidateQuestions(qs []Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("no questions")
	}
	for i, q := range qs {
		if q.ID != i+1 {
			return fmt.Errorf("question %d: id %d, want %d", i+1, q.ID, i+1)
		}
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("question %d: %d options, want %d", q.ID, len(q.Options), OptionsPerQuestion)
		}
		seen := make(map[string]struct{}, len(q.Options))
		found := false
		for _, o := range q.Options {
			if _, dup := seen[o]; dup {
				return fmt.Errorf("question %d: duplicate option %q", q.ID, o)
			}
			seen[o] = struct{}{}
			if o == q.Answer {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("question %d: answer %q is not one of the options", q.ID, q.Answer)
		}
	}
	return nil
}

// DecodeQuiz validates raw model output and returns its questions.
func DecodeQuiz(raw []byte, maxQuestions int) ([]Question, error) {
	if err := ValidateJSONAgainstSchema(BuildQuizJSONSchema(maxQuestions), raw); err != nil {
		return nil, err
	}
	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	if err := ValidateQuestions(out.Questions); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// ParseQuiz validates model content strictly, then retries once after
// NormalizeQuizJSON. The second return reports whether normalization was needed.
func ParseQuiz(content []byte, maxQuestions int, logger *slog.Logger) ([]Question, bool, error) {
	qs, strictErr := DecodeQuiz(content, maxQuestions)
	if strictErr == nil {
		return qs, false, nil
	}
	cleaned, _, err := NormalizeQuizJSON(content, maxQuestions, logger)
	if err != nil {
		return nil, false, fmt.Errorf("schema validation failed: %w (sanitize: %v)", strictErr, err)
	}
	qs, err = DecodeQuiz(cleaned, maxQuestions)
	if err != nil {
		return nil, true, fmt.Errorf("schema validation failed: %w", err)
	}
	return qs, true, nil
}
