package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	openAIBaseURL      = "https://api.openai.com/v1"
	openRouterBaseURL  = "https://openrouter.ai/api/v1"
	defaultHTTPTimeout = 120 * time.Second
)

// OpenAI talks to any OpenAI-compatible chat completions API, including
// OpenRouter. Failed calls are not retried.
type OpenAI struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	referer    string
	title      string
}

// NewOpenAI creates a client for the OpenAI API. An empty baseURL selects
// the public endpoint.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAI{
		name:       "OpenAI",
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// NewOpenRouter creates a client for OpenRouter.
func NewOpenRouter(apiKey, model string) *OpenAI {
	c := NewOpenAI(apiKey, openRouterBaseURL, model)
	c.name = "OpenRouter"
	c.referer = "https://github.com/kalambet/smartfill"
	c.title = "SmartFill"
	return c
}

// WithBaseURL points the client at a custom base URL (for testing).
func (c *OpenAI) WithBaseURL(baseURL string) *OpenAI {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *OpenAI) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: KindAuth, Provider: c.name, Err: fmt.Errorf("no API key stored")}
	}
	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError(c.name, resp.StatusCode, string(respBody))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", &Error{Kind: KindBackend, Provider: c.name, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(cr.Choices) == 0 {
		return "", &Error{Kind: KindBackend, Provider: c.name, Err: fmt.Errorf("response has no choices")}
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// Probe retrieves the configured model, which validates both the key and
// the model name.
func (c *OpenAI) Probe(ctx context.Context) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: KindAuth, Provider: c.name, Err: fmt.Errorf("no API key stored")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models/"+url.PathEscape(c.model), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError(c.name, resp.StatusCode, string(respBody))
	}
	return fmt.Sprintf("%s connection successful! Model '%s' is available.", c.name, c.model), nil
}

func (c *OpenAI) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
}
