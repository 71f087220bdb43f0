package ats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"resumescout/internal/engine"
)

var (
	// ErrProviderUnavailable means the provider could not be reached or kept
	// answering with server errors after retries.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderFormat means the provider answered but the payload did not
	// match its documented shape.
	ErrProviderFormat = errors.New("provider returned malformed payload")
)

const maxProviderBody = 2 * 1024 * 1024

// Provider is one ATS backend. Fetch returns the raw listings for a career
// field; normalization beyond the listing shape (dedup, scoring, filtering,
// ordering) belongs to the Aggregator.
type Provider interface {
	// Name is the stable provider identifier used in qualified job IDs.
	Name() string
	// Trust orders providers for cross-provider dedup; higher wins.
	Trust() int
	Fetch(ctx context.Context, field string, f engine.SearchFilters) ([]engine.JobListing, error)
}

// NewProvider builds a single provider from its configuration. The extractor
// is optional and only the generic scraper uses it.
func NewProvider(pc engine.ProviderConfig, extractor ListingExtractor) (Provider, error) {
	limiter := rate.NewLimiter(rate.Limit(pc.Rate), 1)
	if pc.Rate <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	switch pc.Kind {
	case "greenhouse":
		return &greenhouseProvider{name: pc.Name, trust: pc.Trust, boards: pc.Boards, limiter: limiter}, nil
	case "lever":
		return &leverProvider{name: pc.Name, trust: pc.Trust, boards: pc.Boards, limiter: limiter}, nil
	case "workday":
		return &workdayProvider{name: pc.Name, trust: pc.Trust, tenants: pc.Boards, limiter: limiter}, nil
	case "generic":
		return &genericProvider{name: pc.Name, trust: pc.Trust, urls: pc.Boards, limiter: limiter, extractor: extractor}, nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
	}
}

// NewRegistry builds the provider set from configuration, preserving order.
// Duplicate names and unknown kinds are rejected up front so a bad config
// fails at startup, not mid-search.
func NewRegistry(configs []engine.ProviderConfig, extractor ListingExtractor) ([]Provider, error) {
	seen := make(map[string]bool, len(configs))
	providers := make([]Provider, 0, len(configs))
	for _, pc := range configs {
		if pc.Name == "" {
			return nil, errors.New("provider with empty name")
		}
		if seen[pc.Name] {
			return nil, fmt.Errorf("duplicate provider name %q", pc.Name)
		}
		seen[pc.Name] = true
		p, err := NewProvider(pc, extractor)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// fetchBody performs one rate-limited GET/POST with retries and returns the
// capped body. 404 maps to (nil, nil): an unknown board is an empty result,
// not an outage.
func fetchBody(ctx context.Context, limiter *rate.Limiter, method, url string, payload []byte) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	engine.IncrProviderRequests()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = strings.NewReader(string(payload))
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.Cfg.UserAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", ErrProviderUnavailable, resp.StatusCode, url)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return b, nil
}

func fetchJSON(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	body, err := fetchBody(ctx, limiter, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if body == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFormat, err)
	}
	return nil
}

// matchesField reports whether a listing's visible text mentions any word of
// the requested career field.
func matchesField(haystack, field string) bool {
	words := strings.Fields(strings.ToLower(field))
	if len(words) == 0 {
		return true
	}
	lower := strings.ToLower(haystack)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
