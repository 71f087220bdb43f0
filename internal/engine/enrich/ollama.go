// Package enrich talks to a local Ollama instance. Everything here is
// best-effort: a nil client or a failed call degrades to the un-enriched
// result, it never fails the operation that asked for it.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resumescout/internal/engine"
)

const (
	defaultModel   = "llama3.2"
	defaultTimeout = 30 * time.Second
	maxResponse    = 1 << 20
)

// Client is a minimal Ollama /api/generate client. A nil *Client is valid
// and means enrichment is disabled.
type Client struct {
	baseURL string
	model   string
	httpc   *http.Client
}

// New returns a client for the given base URL ("http://localhost:11434").
// Empty baseURL disables enrichment by returning nil.
func New(baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether enrichment calls will actually go anywhere.
func (c *Client) Enabled() bool { return c != nil }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs one non-streaming completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", nil
	}
	engine.IncrEnrichCalls()

	payload, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", strings.NewReader(string(payload)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		engine.IncrEnrichErrors()
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		engine.IncrEnrichErrors()
		return "", fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		engine.IncrEnrichErrors()
		return "", err
	}
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		engine.IncrEnrichErrors()
		return "", fmt.Errorf("ollama parse: %w", err)
	}
	return stripFences(gr.Response), nil
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

const summarizePrompt = `Summarize this job posting in at most three sentences.
Focus on the role, the required skills, and anything unusual about the position.
Respond with plain text only, no markdown.

%s`

// SummarizeListing produces a short summary of a job description. On any
// failure the original description is returned unchanged.
func (c *Client) SummarizeListing(ctx context.Context, description string) string {
	if c == nil || strings.TrimSpace(description) == "" {
		return description
	}
	out, err := c.Generate(ctx, fmt.Sprintf(summarizePrompt, engine.TruncateRunes(description, 4000, "")))
	if err != nil || strings.TrimSpace(out) == "" {
		return description
	}
	return out
}

const rescorePrompt = `Rate how well a candidate with the skills below fits this
job posting. Respond with a single number between 0 and 1, nothing else.

Candidate skills: %s

Job title: %s

%s`

// RescoreListing asks the model for a candidate/job fit score in [0,1].
// The second return is false when enrichment is disabled or the call failed;
// callers keep their own score in that case.
func (c *Client) RescoreListing(ctx context.Context, skills []string, title, description string) (float64, bool) {
	if c == nil || len(skills) == 0 {
		return 0, false
	}
	out, err := c.Generate(ctx, fmt.Sprintf(rescorePrompt,
		strings.Join(skills, ", "), title, engine.TruncateRunes(description, 4000, "")))
	if err != nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		engine.IncrEnrichErrors()
		return 0, false
	}
	return min(max(score, 0), 1), true
}

const extractListingsPrompt = `The text below comes from a company careers page.
Extract every job opening you can find as a JSON array. Each element must have
the keys "title", "location" and "applyUrl" (use "" when unknown). Respond with
JSON only, no prose.

%s`

type extractedListing struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	ApplyURL string `json:"applyUrl"`
}

// ExtractListings pulls structured openings out of unstructured page text.
// It satisfies the scraper's extractor hook.
func (c *Client) ExtractListings(ctx context.Context, pageText string) ([]engine.JobListing, error) {
	if c == nil {
		return nil, nil
	}
	out, err := c.Generate(ctx, fmt.Sprintf(extractListingsPrompt, pageText))
	if err != nil {
		return nil, err
	}

	var extracted []extractedListing
	if err := json.Unmarshal([]byte(out), &extracted); err != nil {
		engine.IncrEnrichErrors()
		return nil, fmt.Errorf("extract parse: %w", err)
	}
	listings := make([]engine.JobListing, 0, len(extracted))
	for _, e := range extracted {
		if strings.TrimSpace(e.Title) == "" {
			continue
		}
		listings = append(listings, engine.JobListing{
			Title:    strings.TrimSpace(e.Title),
			Location: strings.TrimSpace(e.Location),
			ApplyURL: strings.TrimSpace(e.ApplyURL),
		})
	}
	return listings, nil
}
