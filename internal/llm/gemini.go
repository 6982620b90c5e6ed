package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini calls Google's Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend. The SDK client is built eagerly so a
// malformed key surfaces before the first fill.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, &Error{Kind: KindAuth, Provider: "Gemini", Err: fmt.Errorf("no API key stored")}
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string { return "Gemini" }

func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.User), cfg)
	if err != nil {
		return "", g.wrap(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &Error{Kind: KindBackend, Provider: g.Name(), Err: fmt.Errorf("empty response")}
	}
	return text, nil
}

func (g *Gemini) Probe(ctx context.Context) (string, error) {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return "", g.wrap(err)
	}
	return fmt.Sprintf("Gemini connection successful! Model '%s' is available.", g.model), nil
}

// wrap maps SDK errors onto the gateway error kinds.
func (g *Gemini) wrap(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError(g.Name(), apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return statusError(g.Name(), apiErrPtr.Code, apiErrPtr.Message)
	}
	return transportError(g.Name(), err)
}
