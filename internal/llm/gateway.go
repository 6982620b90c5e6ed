package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/smartfill/internal/config"
)

const defaultTimeout = 30 * time.Second

// Gateway wraps the configured backend, applying the generation defaults
// and a per-call deadline.
type Gateway struct {
	backend     Backend
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// New builds the backend selected by cfg.Provider. apiKey is the credential
// for key-based providers and is ignored by the others.
func New(ctx context.Context, cfg config.LLMConfig, apiKey string) (*Gateway, error) {
	var b Backend
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		b = NewOpenAI(apiKey, cfg.BaseURL, cfg.Model)
	case "openrouter":
		b = NewOpenRouter(apiKey, cfg.OpenRouterModel)
	case "ollama":
		b = NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel)
	case "gemini":
		g, err := NewGemini(ctx, apiKey, cfg.GeminiModel)
		if err != nil {
			slog.Warn("gemini backend unavailable", "error", err)
			b = unavailable{name: "Gemini", err: err}
		} else {
			b = g
		}
	case "none", "":
		b = Disabled{}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	return Wrap(b, cfg), nil
}

// Wrap applies the generation parameters of cfg to an existing backend.
func Wrap(b Backend, cfg config.LLMConfig) *Gateway {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		backend:     b,
		timeout:     timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (g *Gateway) Name() string { return g.backend.Name() }

// Complete fills unset parameters from config and bounds the call by the
// configured timeout.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	if req.Temperature == 0 {
		req.Temperature = g.temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = g.maxTokens
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.backend.Complete(ctx, req)
	if err != nil {
		slog.Warn("completion failed", "provider", g.backend.Name(), "elapsed", time.Since(start), "error", err)
		return "", err
	}
	slog.Debug("completion done", "provider", g.backend.Name(), "elapsed", time.Since(start), "chars", len(out))
	return out, nil
}

func (g *Gateway) Probe(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.backend.Probe(ctx)
}

const localProbeTimeout = 2 * time.Second

// Select builds the gateway for the whole application config. When local
// processing is preferred and the configured Ollama model answers, Ollama
// replaces a remote provider. A disabled provider stays disabled.
func Select(ctx context.Context, cfg config.AppConfig, apiKey string) (*Gateway, error) {
	llmCfg := cfg.LLM
	provider := strings.ToLower(strings.TrimSpace(llmCfg.Provider))
	if cfg.Privacy.LocalProcessingPreferred && provider != "ollama" && provider != "none" && provider != "" {
		probeCtx, cancel := context.WithTimeout(ctx, localProbeTimeout)
		_, err := NewOllama(llmCfg.OllamaBaseURL, llmCfg.OllamaModel).Probe(probeCtx)
		cancel()
		if err == nil {
			slog.Info("local processing preferred, using Ollama", "configured", llmCfg.Provider)
			llmCfg.Provider = "ollama"
		} else {
			slog.Debug("local model unavailable, keeping configured provider", "error", err)
		}
	}
	return New(ctx, llmCfg, apiKey)
}
