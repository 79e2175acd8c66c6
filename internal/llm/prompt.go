package llm

import (
	"strconv"
	"strings"
)

// MaxPromptRunes bounds how much document text is sent to the model.
const MaxPromptRunes = 12000

func BuildSystemPrompt() string {
	parts := []string{
		"You are a quiz author. Return ONLY JSON that matches the JSON Schema provided.",
		"Write multiple-choice questions that test understanding of the supplied document text.",
		"Every question has exactly " + strconv.Itoa(OptionsPerQuestion) + " distinct options.",
		"The answer must be copied verbatim from one of the options.",
		"Number questions with id starting at 1.",
		"Never output null. Do not add keys that are not in the schema.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt embeds the document text, truncated to MaxPromptRunes.
func BuildUserPrompt(text string, n int, filename string) string {
	if n <= 0 {
		n = DefaultNumQuestions
	}
	var b strings.Builder
	b.WriteString("Generate ")
	b.WriteString(strconv.Itoa(n))
	b.WriteString(" questions.\n")
	if filename != "" {
		b.WriteString("Filename: ")
		b.WriteString(filename)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(TruncateRunes(strings.TrimSpace(text), MaxPromptRunes))
	return b.String()
}

// TruncateRunes cuts s to at most n runes without splitting a code point.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
