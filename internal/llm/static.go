package llm

import "context"

var staticQuestions = []Question{
	{
		ID:       1,
		Question: "What is the primary purpose of the document?",
		Options:  []string{"To inform", "To persuade", "To entertain", "To instruct"},
		Answer:   "To inform",
	},
	{
		ID:       2,
		Question: "Which of the following is mentioned as a key concept?",
		Options:  []string{"Concept A", "Concept B", "Concept C", "None of the above"},
		Answer:   "Concept A",
	},
	{
		ID:       3,
		Question: "According to the text, what is the first step?",
		Options:  []string{"Step 1", "Step 2", "Step 3", "Step 4"},
		Answer:   "Step 1",
	},
	{
		ID:       4,
		Question: "What is the conclusion regarding the main topic?",
		Options:  []string{"Positive", "Negative", "Neutral", "Uncertain"},
		Answer:   "Positive",
	},
}

// StaticGenerator returns a fixed question set regardless of the text.
// It backs local development and tests.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator { return &StaticGenerator{} }

func (StaticGenerator) Name() string { return "mock" }

// Generate returns at most NumQuestions of the fixed set. It never pads.
func (StaticGenerator) Generate(ctx context.Context, req GenerateRequest) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := req.NumQuestions
	if n <= 0 {
		n = DefaultNumQuestions
	}
	if n > len(staticQuestions) {
		n = len(staticQuestions)
	}
	out := make([]Question, n)
	for i := range out {
		q := staticQuestions[i]
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}
