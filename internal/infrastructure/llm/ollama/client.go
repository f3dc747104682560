// Package ollama drives a local Ollama model as the primary field extraction
// source. Responses are strict JSON; anything the model invents outside the
// field vocabulary is dropped before it reaches resolution.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/resilience"
)

const Name = "llm"

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor

	ready atomic.Bool
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) Info() domain.ExtractorInfo {
	return domain.ExtractorInfo{
		Name:    Name,
		Methods: []string{"generative-json"},
		Device:  c.model,
		Loaded:  c.ready.Load(),
	}
}

type fieldResponse struct {
	Fields []struct {
		Name       string  `json:"name"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"fields"`
}

func (c *Client) Extract(ctx context.Context, pages []string) ([]domain.Candidate, error) {
	prompt := buildExtractionPrompt(pages)

	var candidates []domain.Candidate
	err := c.executor.Execute(ctx, "ollama_extract", func(ctx context.Context) error {
		raw, err := c.generateJSON(ctx, prompt)
		if err != nil {
			return err
		}
		parsed, err := parseCandidates(raw)
		if err != nil {
			return err
		}
		// Each attempt replaces the result wholesale, a retry never mixes
		// candidates from two model runs.
		candidates = parsed
		return nil
	}, classifyOllamaError)
	if err != nil {
		c.ready.Store(false)
		return nil, wrapTemporaryIfNeeded("extract fields", err)
	}
	c.ready.Store(true)
	return candidates, nil
}

func parseCandidates(raw string) ([]domain.Candidate, error) {
	var resp fieldResponse
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &resp); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(resp.Fields))
	for _, f := range resp.Fields {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		value := strings.TrimSpace(f.Value)
		if !domain.KnownFieldName(name) || value == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Field:     domain.FieldName(name),
			Value:     value,
			Score:     clampScore(f.Confidence),
			Extractor: Name,
		})
	}
	return candidates, nil
}

// clampScore pins model output into [0,1]. The classification boundary
// rejects out-of-range scores, so the pinning happens here at the edge where
// an overconfident model is a known failure mode rather than a bug.
func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
