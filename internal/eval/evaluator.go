package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/regulatech/compliancegpt/internal/citation"
)

// Scores are the three retrieval-quality heuristics, each in [0,1].
type Scores struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevancy  float64 `json:"answer_relevancy"`
	ContextPrecision float64 `json:"context_precision"`
}

// GoldenQuestion is one entry of the evaluation question set.
type GoldenQuestion struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	GroundTruth string `json:"ground_truth"`
}

type goldenFile struct {
	Questions []GoldenQuestion `json:"questions"`
}

// Result holds the evaluation of a single question.
type Result struct {
	QuestionID  string   `json:"question_id"`
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	GroundTruth string   `json:"ground_truth"`
	Contexts    []string `json:"contexts"`
	Scores      Scores   `json:"scores"`
}

// Report aggregates results over a golden question set.
type Report struct {
	Regulation     string   `json:"regulation"`
	TotalQuestions int      `json:"total_questions"`
	AverageScores  Scores   `json:"average_scores"`
	Results        []Result `json:"results"`
}

// ComputeAverages fills AverageScores from the individual results.
func (r *Report) ComputeAverages() {
	if len(r.Results) == 0 {
		return
	}
	n := float64(len(r.Results))
	var sum Scores
	for _, res := range r.Results {
		sum.Faithfulness += res.Scores.Faithfulness
		sum.AnswerRelevancy += res.Scores.AnswerRelevancy
		sum.ContextPrecision += res.Scores.ContextPrecision
	}
	r.AverageScores = Scores{
		Faithfulness:     sum.Faithfulness / n,
		AnswerRelevancy:  sum.AnswerRelevancy / n,
		ContextPrecision: sum.ContextPrecision / n,
	}
}

// FormatSummary renders a human-readable report.
func (r *Report) FormatSummary() string {
	status := "NEEDS IMPROVEMENT"
	if r.AverageScores.Faithfulness > 0.95 {
		status = "PASSED"
	}
	return fmt.Sprintf(`
Evaluation Report - %s
%s
Total Questions: %d

Average Scores:
  - Faithfulness:       %.2f%%
  - Answer Relevancy:   %.2f%%
  - Context Precision:  %.2f%%

Target: Faithfulness > 95%%
Status: %s
`,
		r.Regulation, strings.Repeat("=", 50), r.TotalQuestions,
		r.AverageScores.Faithfulness*100,
		r.AverageScores.AnswerRelevancy*100,
		r.AverageScores.ContextPrecision*100,
		status)
}

// Save writes the report as indented JSON, creating parent directories.
func (r *Report) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Faithfulness measures how much of the answer appears in the contexts:
// the fraction of answer words found in the joined context text.
func Faithfulness(answer string, contexts []string) float64 {
	if answer == "" || len(contexts) == 0 {
		return 0.0
	}
	contextText := strings.ToLower(strings.Join(contexts, " "))
	answerWords := strings.Fields(strings.ToLower(answer))
	if len(answerWords) == 0 {
		return 0.0
	}
	matched := 0
	for _, word := range answerWords {
		if strings.Contains(contextText, word) {
			matched++
		}
	}
	score := float64(matched) / float64(len(answerWords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// AnswerRelevancy measures question/answer term overlap relative to the
// question vocabulary.
func AnswerRelevancy(question, answer string) float64 {
	if answer == "" {
		return 0.0
	}
	questionWords := wordSet(question)
	if len(questionWords) == 0 {
		return 0.0
	}
	answerWords := wordSet(answer)
	overlap := 0
	for w := range questionWords {
		if answerWords[w] {
			overlap++
		}
	}
	score := float64(overlap) / float64(len(questionWords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// ContextPrecision is the fraction of contexts sharing at least three
// words with the ground truth.
func ContextPrecision(contexts []string, groundTruth string) float64 {
	if len(contexts) == 0 || groundTruth == "" {
		return 0.0
	}
	truthWords := wordSet(groundTruth)
	relevant := 0
	for _, ctx := range contexts {
		ctxWords := wordSet(ctx)
		overlap := 0
		for w := range truthWords {
			if ctxWords[w] {
				overlap++
			}
		}
		if overlap >= 3 {
			relevant++
		}
	}
	return float64(relevant) / float64(len(contexts))
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

// Engine is the slice of the citation layer the evaluator drives.
type Engine interface {
	Query(ctx context.Context, question string, opts citation.QueryOptions) (*citation.CitedResponse, error)
}

// Evaluator scores the full pipeline against a golden question set.
type Evaluator struct {
	engine Engine
	logger *log.Logger
}

func NewEvaluator(engine Engine, logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.New(log.Writer(), "[EVAL] ", log.LstdFlags)
	}
	return &Evaluator{engine: engine, logger: logger}
}

// LoadGoldenQuestions reads the golden question file.
func LoadGoldenQuestions(path string) ([]GoldenQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading golden questions: %w", err)
	}
	var parsed goldenFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing golden questions %s: %w", path, err)
	}
	return parsed.Questions, nil
}

// EvaluateSingle scores one question/answer pair.
func (e *Evaluator) EvaluateSingle(question, answer string, contexts []string, groundTruth string) Scores {
	return Scores{
		Faithfulness:     Faithfulness(answer, contexts),
		AnswerRelevancy:  AnswerRelevancy(question, answer),
		ContextPrecision: ContextPrecision(contexts, groundTruth),
	}
}

// Run evaluates every golden question; per-question failures are recorded
// in the result rather than aborting the run.
func (e *Evaluator) Run(ctx context.Context, regulation string, questions []GoldenQuestion) (*Report, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no golden questions found")
	}

	results := make([]Result, 0, len(questions))
	for i, q := range questions {
		e.logger.Printf("evaluating %d/%d: %s", i+1, len(questions), clip(q.Question, 50))

		resp, err := e.engine.Query(ctx, q.Question, citation.QueryOptions{})
		if err != nil {
			e.logger.Printf("error evaluating question %s: %v", q.ID, err)
			results = append(results, Result{
				QuestionID:  q.ID,
				Question:    q.Question,
				Answer:      fmt.Sprintf("Error: %v", err),
				GroundTruth: q.GroundTruth,
				Contexts:    []string{},
			})
			continue
		}

		contexts := make([]string, 0, len(resp.Citations))
		for _, c := range resp.Citations {
			contexts = append(contexts, c.Text)
		}

		results = append(results, Result{
			QuestionID:  q.ID,
			Question:    q.Question,
			Answer:      resp.Answer,
			GroundTruth: q.GroundTruth,
			Contexts:    contexts,
			Scores:      e.EvaluateSingle(q.Question, resp.Answer, contexts, q.GroundTruth),
		})
	}

	report := &Report{
		Regulation:     regulation,
		TotalQuestions: len(questions),
		Results:        results,
	}
	report.ComputeAverages()
	return report, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
