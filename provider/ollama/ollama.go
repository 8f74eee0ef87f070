package ollama_provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

type client struct {
	ollama *api.Client
	model  string
}

// New creates a provider backed by a local Ollama server. An empty host
// falls back to the OLLAMA_HOST environment setting.
func New(host, model string) (*client, error) {
	if model == "" {
		model = "llama3.2"
	}

	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}

	return &client{
		ollama: api.NewClient(hostURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (c *client) Name() string  { return "ollama" }
func (c *client) Model() string { return c.model }

func (c *client) Generate(ctx context.Context, system, user string) (string, error) {
	req := api.GenerateRequest{
		Model:  c.model,
		System: system,
		Prompt: user,
		Options: map[string]interface{}{
			"temperature": 0.1,
			"num_predict": 1024,
		},
	}

	var responseBuilder strings.Builder
	err := c.ollama.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	return responseBuilder.String(), nil
}
