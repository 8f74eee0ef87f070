package citation

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/regulatech/compliancegpt/internal/retrieval"
	"github.com/regulatech/compliancegpt/internal/websearch"
	"github.com/regulatech/compliancegpt/provider"
)

// Citation points a claim in an answer back to a retrieved chunk.
type Citation struct {
	CitationID  int    `json:"citation_id"`
	Text        string `json:"text"`
	SourceFile  string `json:"source_file"`
	PageNumbers []int  `json:"page_numbers"`
	Regulation  string `json:"regulation"`
	ChunkID     string `json:"chunk_id"`
}

// FormatReference renders the citation as a readable source line.
func (c Citation) FormatReference() string {
	pages := make([]string, len(c.PageNumbers))
	for i, p := range c.PageNumbers {
		pages[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("[%d] %s - %s, Page(s) %s", c.CitationID, c.Regulation, c.SourceFile, strings.Join(pages, ", "))
}

// CitedResponse is an answer plus the sources that ground it. When the
// model call failed, Answer carries a diagnostic and GenerationErr the
// underlying error text; citations stay intact either way.
type CitedResponse struct {
	Answer        string                 `json:"answer"`
	Citations     []Citation             `json:"citations"`
	Query         string                 `json:"query"`
	HasContext    bool                   `json:"has_context"`
	Metadata      map[string]interface{} `json:"metadata"`
	GenerationErr string                 `json:"generation_error,omitempty"`
}

// FormatFullResponse appends a sources section to the answer.
func (r CitedResponse) FormatFullResponse() string {
	if len(r.Citations) == 0 {
		return r.Answer
	}
	var sb strings.Builder
	sb.WriteString(r.Answer)
	sb.WriteString("\n\n---\n**Sources:**\n")
	for _, c := range r.Citations {
		sb.WriteString("\n")
		sb.WriteString(c.FormatReference())
	}
	return sb.String()
}

// Retriever is the slice of the retrieval layer the engine needs.
type Retriever interface {
	Search(ctx context.Context, query string, opts retrieval.Options) ([]retrieval.RetrievalResult, error)
}

// QueryOptions tune a single engine call.
type QueryOptions struct {
	RegulationFilter string
	TopK             int
}

// Engine answers compliance questions with citations over retrieved
// regulation chunks.
type Engine struct {
	retriever Retriever
	llm       provider.Provider
	enricher  *websearch.Enricher
	logger    *log.Logger
}

// NewEngine builds a citation engine. enricher may be nil to disable web
// resource enrichment.
func NewEngine(retriever Retriever, llm provider.Provider, enricher *websearch.Enricher, logger *log.Logger) (*Engine, error) {
	if retriever == nil {
		return nil, fmt.Errorf("citation engine requires a retriever")
	}
	if llm == nil {
		return nil, fmt.Errorf("citation engine requires an LLM provider")
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CITATION] ", log.LstdFlags)
	}
	return &Engine{retriever: retriever, llm: llm, enricher: enricher, logger: logger}, nil
}

// Query answers a compliance question grounded in retrieved context.
func (e *Engine) Query(ctx context.Context, question string, opts QueryOptions) (*CitedResponse, error) {
	e.logger.Printf("processing query: %s", truncate(question, 50))

	results, err := e.retriever.Search(ctx, question, retrieval.Options{
		TopK:             opts.TopK,
		RegulationFilter: opts.RegulationFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	if len(results) == 0 {
		e.logger.Printf("no context found for query")
		return &CitedResponse{
			Answer:     NoContextResponse,
			Citations:  []Citation{},
			Query:      question,
			HasContext: false,
			Metadata:   e.metadata(0, opts.RegulationFilter),
		}, nil
	}

	contextText, citations := buildContext(results)
	resp := &CitedResponse{
		Citations:  citations,
		Query:      question,
		HasContext: true,
		Metadata:   e.metadata(len(citations), opts.RegulationFilter),
	}
	resp.Answer, resp.GenerationErr = e.generate(ctx, question, FormatQueryPrompt(contextText, question))
	return resp, nil
}

// Compare answers a question across several regulations, retrieving
// context for each and prompting a structured comparison.
func (e *Engine) Compare(ctx context.Context, question string, regulations []string, topKPerRegulation int) (*CitedResponse, error) {
	if topKPerRegulation <= 0 {
		topKPerRegulation = 3
	}

	var all []retrieval.RetrievalResult
	for _, reg := range regulations {
		results, err := e.retriever.Search(ctx, question, retrieval.Options{
			TopK:             topKPerRegulation,
			RegulationFilter: reg,
		})
		if err != nil {
			return nil, fmt.Errorf("retrieving %s context: %w", reg, err)
		}
		all = append(all, results...)
	}

	if len(all) == 0 {
		return &CitedResponse{
			Answer:     NoContextResponse,
			Citations:  []Citation{},
			Query:      question,
			HasContext: false,
			Metadata:   e.metadata(0, strings.Join(regulations, ",")),
		}, nil
	}

	contextText, citations := buildContext(all)
	resp := &CitedResponse{
		Citations:  citations,
		Query:      question,
		HasContext: true,
		Metadata:   e.metadata(len(citations), strings.Join(regulations, ",")),
	}
	resp.Answer, resp.GenerationErr = e.generate(ctx, question, FormatComparisonPrompt(contextText, question))
	return resp, nil
}

func (e *Engine) generate(ctx context.Context, question, prompt string) (answer, genErr string) {
	out, err := e.llm.Generate(ctx, SystemPrompt, prompt)
	if err != nil {
		e.logger.Printf("answer generation failed: %v", err)
		return fmt.Sprintf("Error generating answer: %v", err), err.Error()
	}
	e.logger.Printf("generated answer with %d characters", len(out))
	if e.enricher != nil {
		out = e.enricher.Enhance(ctx, out, question, true)
	}
	return out, ""
}

func (e *Engine) metadata(numSources int, regulationFilter string) map[string]interface{} {
	return map[string]interface{}{
		"provider":          e.llm.Name(),
		"model":             e.llm.Model(),
		"num_sources":       numSources,
		"regulation_filter": regulationFilter,
	}
}

// buildContext renders retrieval results into a numbered context block and
// the matching citation list. Citation text is clipped to 500 characters.
func buildContext(results []retrieval.RetrievalResult) (string, []Citation) {
	var parts []string
	citations := make([]Citation, 0, len(results))

	for i, result := range results {
		id := i + 1
		text := result.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		citations = append(citations, Citation{
			CitationID:  id,
			Text:        text,
			SourceFile:  result.SourceFile,
			PageNumbers: result.PageNumbers,
			Regulation:  result.Regulation,
			ChunkID:     result.ChunkID,
		})

		pages := make([]string, len(result.PageNumbers))
		for j, p := range result.PageNumbers {
			pages[j] = strconv.Itoa(p)
		}
		parts = append(parts, fmt.Sprintf("[%d] Source: %s - %s, Page(s) %s\n%s\n",
			id, result.Regulation, result.SourceFile, strings.Join(pages, ", "), result.Text))
	}

	return strings.Join(parts, "\n---\n"), citations
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
