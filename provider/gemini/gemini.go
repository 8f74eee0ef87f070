package gemini_provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type client struct {
	genai *genai.Client
	model string
	max   int
}

// New creates a Gemini-backed provider.
func New(ctx context.Context, apiKey, model string, maxTokens int) (*client, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	g, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &client{genai: g, model: model, max: maxTokens}, nil
}

func (c *client) Name() string  { return "gemini" }
func (c *client) Model() string { return c.model }

func (c *client) Generate(ctx context.Context, system, user string) (string, error) {
	model := c.genai.GenerativeModel(c.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if c.max > 0 {
		model.SetMaxOutputTokens(int32(c.max))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (c *client) Close() error { return c.genai.Close() }
