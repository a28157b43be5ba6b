package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ovsienko/jobsieve/internal/ai"
)

const (
	defaultModel = "gemma3:4b"
	// One completion can take a while on a small local GPU; the timeout only
	// guards against indefinite hangs.
	defaultTimeout = 5 * time.Minute

	generatePath = "/api/generate"
)

// Client talks to a local Ollama-compatible inference server. It implements
// ai.Generator.
type Client struct {
	endpoint  string
	modelName string
	hc        *http.Client
}

func New(endpoint, model string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("ollama endpoint is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:  endpoint,
		modelName: model,
		hc:        &http.Client{Timeout: timeout},
	}, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt as a single synchronous completion request.
// Transport failures, timeouts and non-200 statuses all map to
// ai.ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.modelName,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+generatePath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ai.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %s: %s", ai.ErrUnavailable, resp.Status, strings.TrimSpace(string(snippet)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ai.ErrUnavailable, err)
	}

	return strings.TrimSpace(result.Response), nil
}

func (c *Client) Model() string {
	return c.modelName
}
