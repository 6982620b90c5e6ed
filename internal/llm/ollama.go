package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama talks to a local Ollama server.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllama creates a client targeting the given Ollama base URL.
func NewOllama(baseURL, model string) *Ollama {
	return &Ollama{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *Ollama) Name() string { return "Ollama" }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (c *Ollama) Complete(ctx context.Context, req Request) (string, error) {
	if c.model == "" {
		return "", &Error{Kind: KindBackend, Provider: c.Name(), Err: fmt.Errorf("no Ollama model configured")}
	}
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: req.User,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", statusError(c.Name(), resp.StatusCode, string(respBody))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", &Error{Kind: KindBackend, Provider: c.Name(), Err: fmt.Errorf("decoding response: %w", err)}
	}
	if gr.Error != "" {
		return "", &Error{Kind: KindBackend, Provider: c.Name(), Err: fmt.Errorf("%s", gr.Error)}
	}
	return strings.TrimSpace(gr.Response), nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of all models available in the local Ollama instance.
func (c *Ollama) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(c.Name(), resp.StatusCode, "")
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Probe checks the server answers and that the configured model is pulled.
func (c *Ollama) Probe(ctx context.Context) (string, error) {
	if c.model == "" {
		return "", fmt.Errorf("no Ollama model specified in settings")
	}
	models, err := c.ListModels(ctx)
	if err != nil {
		return "", err
	}
	for _, m := range models {
		// Ollama may return "llama3:latest"; match without tag suffix.
		if m == c.model || strings.HasPrefix(m, c.model+":") {
			return fmt.Sprintf("Ollama connection successful! Model '%s' found.", c.model), nil
		}
	}
	shown := models
	more := ""
	if len(shown) > 5 {
		shown, more = shown[:5], "..."
	}
	return "", fmt.Errorf("Ollama model '%s' not found. Available: %s%s", c.model, strings.Join(shown, ", "), more)
}
