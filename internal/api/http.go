// Package api exposes the fill pipeline to automation tools over a local
// HTTP hook and an MCP server.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/smartfill/internal/fill"
	"github.com/kalambet/smartfill/internal/profile"
	"github.com/kalambet/smartfill/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP and MCP surfaces need. History may be nil when
// the history database could not be opened.
type Deps struct {
	Fills   *fill.Service
	Profile *profile.Manager
	History *storage.Store
	Token   string
}

// FillResponse is returned by POST /fill and the smart_fill tool.
type FillResponse struct {
	Text        string `json:"text"`
	Kind        string `json:"kind"`
	FieldType   string `json:"field_type"`
	ContentType string `json:"content_type"`
	Style       string `json:"recommended_style"`
	Length      string `json:"recommended_length"`
	Strategy    string `json:"strategy"`
	DurationMs  int64  `json:"duration_ms"`
}

func newFillResponse(out fill.Outcome) FillResponse {
	return FillResponse{
		Text:        out.Content.Text,
		Kind:        out.Content.Kind.String(),
		FieldType:   out.Classification.FieldType,
		ContentType: out.Classification.ContentType,
		Style:       out.Classification.Style,
		Length:      out.Classification.Length,
		Strategy:    out.Content.Strategy.String(),
		DurationMs:  out.Duration.Milliseconds(),
	}
}

// NewHandler returns the automation hook. Everything except /health
// requires the bearer token.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/fill", handleFill(deps))
		r.Post("/classify", handleClassify(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
		r.Get("/history", handleHistory(deps))
	})
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func decodePayload(w http.ResponseWriter, r *http.Request) (fill.Payload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var p fill.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return p, false
	}
	return p, true
}

func handleFill(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := decodePayload(w, r)
		if !ok {
			return
		}
		out, err := deps.Fills.Resolve(r.Context(), "http", p.Snapshot())
		switch {
		case errors.Is(err, fill.ErrGeneration):
			httpError(w, http.StatusBadGateway, "generation_error", "%s", out.Content.Text)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "Error: %v", err)
			return
		}
		writeJSON(w, newFillResponse(out))
	}
}

func handleClassify(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := decodePayload(w, r)
		if !ok {
			return
		}
		writeJSON(w, deps.Fills.Classify(r.Context(), p.Snapshot()))
	}
}

type profileResponse struct {
	ID        string       `json:"id"`
	UpdatedAt time.Time    `json:"updated_at"`
	Data      profile.Data `json:"data"`
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Profile.Profile()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, profileResponse{ID: p.ID, UpdatedAt: p.UpdatedAt, Data: p.Data})
	}
}

// handlePatchProfile applies {"section.key": value} pairs, e.g.
// {"basic.email": "a@b.c", "work_experience.0.title": "Engineer"}.
func handlePatchProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		for path, value := range fields {
			section, key, _ := strings.Cut(path, ".")
			if err := deps.Profile.Update(section, key, value); err != nil {
				code := http.StatusInternalServerError
				if errors.Is(err, profile.ErrInvalidKey) {
					code = http.StatusBadRequest
				}
				httpError(w, code, "invalid_request_error", "failed to set %q: %v", path, err)
				return
			}
		}
		writeJSON(w, map[string]string{"status": "updated"})
	}
}

func handleHistory(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "fill history is not available")
			return
		}
		fills, err := deps.History.RecentFills(parseIntParam(r, "limit", 20, 200))
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list history: %v", err)
			return
		}
		if fills == nil {
			fills = []storage.Fill{}
		}
		writeJSON(w, fills)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response failed", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
