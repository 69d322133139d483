package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"

	"cscx/config"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient handles communication with the Claude messages API. The
// classifier's fallback tier depends only on the Complete method; this is
// the concrete collaborator behind that interface.
type AnthropicClient struct {
	httpClient *http.Client
	cfg        config.LLMConfig
}

// NewAnthropicClient creates a new Anthropic API client from global config.
func NewAnthropicClient() *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{},
		cfg:        config.Get().LLM,
	}
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// createMessageRequest represents the request to create a message
type createMessageRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
}

// createMessageResponse represents the response from creating a message
type createMessageResponse struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content []content `json:"content"`
	Model   string    `json:"model"`
	Usage   usage     `json:"usage"`
}

type content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Complete sends a single-turn completion request and returns the text of
// the response. The caller's context carries the timeout; a canceled or
// expired context aborts the request.
func (c *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", serr.New("ANTHROPIC_API_KEY is not set")
	}

	request := createMessageRequest{
		Model:     c.cfg.Model,
		Messages:  []Message{{Role: "user", Content: user}},
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", serr.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.APIURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", serr.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", serr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", serr.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", serr.New(fmt.Sprintf("API error: %s - %s", resp.Status, string(body)))
	}

	var response createMessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", serr.Wrap(err, "failed to parse response")
	}

	logger.Info("Completion received",
		"model", response.Model,
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)

	for _, block := range response.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", serr.New("no text content in completion response")
}
