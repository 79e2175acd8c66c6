package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// NormalizeQuizJSON rewrites near-miss model output into the quiz shape.
// - Wraps a bare array as {"questions": [...]}
// - Renames known synonyms (choices -> options, correct_answer -> answer)
// - Coerces string ids and letter/index answers
// - Renumbers ids 1..n and truncates to maxQuestions
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeQuizJSON(raw []byte, maxQuestions int, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	fixes := make([]string, 0, 8)
	var items []any
	switch t := top.(type) {
	case []any:
		items = t
		fixes = append(fixes, "wrapped(array)")
	case map[string]any:
		for _, k := range []string{"questions", "quiz", "items"} {
			if v, ok := t[k].([]any); ok {
				items = v
				if k != "questions" {
					fixes = append(fixes, k+"->questions")
				}
				break
			}
		}
		if items == nil {
			return nil, fixes, fmt.Errorf("sanitize: no questions array")
		}
	default:
		return nil, fixes, fmt.Errorf("sanitize: unexpected top-level %T", top)
	}

	out := make([]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			fixes = append(fixes, "item(type)")
			continue
		}
		q, f := normalizeQuestion(m)
		fixes = append(fixes, f...)
		if q == nil {
			continue
		}
		out = append(out, q)
	}
	if maxQuestions > 0 && len(out) > maxQuestions {
		fixes = append(fixes, "truncated("+strconv.Itoa(len(out))+")")
		out = out[:maxQuestions]
	}
	for i, q := range out {
		q.(map[string]any)["id"] = i + 1
	}

	b, err := json.Marshal(map[string]any{"questions": out})
	if err != nil {
		return nil, fixes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(fixes) > 0 {
		logger.Warn("llm.quiz.normalize_sanitize", "fixes", fixes)
	}
	return b, fixes, nil
}

func normalizeQuestion(m map[string]any) (map[string]any, []string) {
	var fixes []string
	rename := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			fixes = append(fixes, from+"->"+to)
		}
	}
	rename("choices", "options")
	rename("answers", "options")
	rename("correct_answer", "answer")
	rename("correct", "answer")
	rename("text", "question")
	rename("prompt", "question")

	allowed := map[string]struct{}{"id": {}, "question": {}, "options": {}, "answer": {}}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			fixes = append(fixes, k+"(unknown)")
		}
	}

	question, _ := m["question"].(string)
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, append(fixes, "question(empty)")
	}
	m["question"] = question

	rawOpts, _ := m["options"].([]any)
	opts := make([]string, 0, len(rawOpts))
	for _, o := range rawOpts {
		switch t := o.(type) {
		case string:
			opts = append(opts, strings.TrimSpace(t))
		case float64:
			opts = append(opts, strconv.FormatFloat(t, 'f', -1, 64))
		}
	}
	m["options"] = opts

	m["answer"] = resolveAnswer(m["answer"], opts)
	if m["answer"] != nil {
		if a, ok := m["answer"].(string); ok && a != "" {
			return m, fixes
		}
	}
	return nil, append(fixes, "answer(unresolved)")
}

// resolveAnswer maps "B", "b)", 1 (zero-based index) or the option text itself
// onto the option text.
func resolveAnswer(v any, opts []string) any {
	switch t := v.(type) {
	case float64:
		i := int(t)
		if float64(i) == t && i >= 0 && i < len(opts) {
			return opts[i]
		}
		return nil
	case string:
		s := strings.TrimSpace(t)
		for _, o := range opts {
			if o == s {
				return o
			}
		}
		for _, o := range opts {
			if strings.EqualFold(o, s) {
				return o
			}
		}
		letter := strings.TrimRight(strings.ToUpper(s), ").:")
		if len(letter) == 1 && letter[0] >= 'A' && int(letter[0]-'A') < len(opts) {
			return opts[letter[0]-'A']
		}
		return nil
	}
	return nil
}
