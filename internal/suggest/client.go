// Package suggest proxies the external preset suggestion service. The
// gateway never surfaces a failure: any transport error, timeout or
// unexpected payload degrades to a fixed default catalog.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxResponseBytes = 1 << 20

// Suggestion mirrors the serialized preset shape.
type Suggestion struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Tags        []string       `json:"tags"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "suggest").Logger(),
	}
}

// GetSuggestions fetches suggestions for an optional context string.
// Callers always receive a non-empty list.
func (c *Client) GetSuggestions(ctx context.Context, suggestionContext string) []Suggestion {
	suggestions, err := c.fetch(ctx, suggestionContext)
	if err != nil {
		c.log.Warn().Err(err).Msg("suggestion service unavailable, using fallback presets")
		return DefaultSuggestions()
	}
	if len(suggestions) == 0 {
		c.log.Warn().Msg("unexpected suggestion payload, using fallback presets")
		return DefaultSuggestions()
	}
	return suggestions
}

func (c *Client) fetch(ctx context.Context, suggestionContext string) ([]Suggestion, error) {
	endpoint := c.baseURL + "/api/suggestions"
	if suggestionContext != "" {
		endpoint += "?context=" + url.QueryEscape(suggestionContext)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("suggestion service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return extract(body), nil
}

// extract accepts either a bare list or an object with a "presets" field.
// Anything else yields nil, which the caller treats as "fall back".
func extract(data []byte) []Suggestion {
	var list []Suggestion
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}

	var wrapper struct {
		Presets []Suggestion `json:"presets"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil {
		return wrapper.Presets
	}
	return nil
}

// DefaultSuggestions is the degraded-mode catalog. Identifiers are
// synthetic and nothing here touches persistent storage.
func DefaultSuggestions() []Suggestion {
	now := time.Now().UTC()
	return []Suggestion{
		{
			ID:          1,
			Name:        "SaaS Modern",
			Category:    "business",
			Description: "Clean, professional design for modern SaaS products",
			Config:      map[string]any{},
			Tags:        []string{"professional", "clean", "modern"},
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          2,
			Name:        "Editorial Chic",
			Category:    "creative",
			Description: "Elegant editorial style for content-focused brands",
			Config:      map[string]any{},
			Tags:        []string{"elegant", "editorial", "sophisticated"},
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          3,
			Name:        "Tech Startup",
			Category:    "technology",
			Description: "Bold, innovative design for tech startups",
			Config:      map[string]any{},
			Tags:        []string{"bold", "tech", "innovative"},
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}
