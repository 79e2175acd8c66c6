package llm

import "context"

// Question is one multiple-choice quiz question. Answer is one of Options.
type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// OptionsPerQuestion is the number of choices every question carries.
const OptionsPerQuestion = 4

// DefaultNumQuestions is used when a request does not ask for a count.
const DefaultNumQuestions = 5

// MaxNumQuestions caps a single request.
const MaxNumQuestions = 20

type GenerateRequest struct {
	Text         string
	NumQuestions int
	// FilenameHint gives the model a topic hint; optional.
	FilenameHint string
}

// QuestionGenerator is the interface the quiz service depends on.
type QuestionGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) ([]Question, error)
}
