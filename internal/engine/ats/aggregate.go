package ats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"resumescout/internal/engine"
	"resumescout/internal/engine/resume"
)

// ProviderFailure records one provider task that produced no listings.
type ProviderFailure struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}

// AggregationError is returned when every provider task failed and there is
// nothing to rank.
type AggregationError struct {
	Failures []ProviderFailure
}

func (e *AggregationError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Provider)
	}
	return fmt.Sprintf("all providers failed: %s", strings.Join(names, ", "))
}

// SearchResult is a ranked, deduplicated listing set plus the providers that
// could not contribute to it.
type SearchResult struct {
	Jobs     []engine.JobListing `json:"jobs"`
	Degraded []ProviderFailure   `json:"degraded,omitempty"`
}

// Aggregator fans a search out across every configured provider and folds
// the answers into one ranked list.
type Aggregator struct {
	providers []Provider
}

func NewAggregator(providers []Provider) *Aggregator {
	return &Aggregator{providers: providers}
}

func (a *Aggregator) Providers() []Provider { return a.providers }

type fetchTask struct {
	provider Provider
	field    string
}

type fetchOutcome struct {
	task     fetchTask
	listings []engine.JobListing
	err      error
}

// Search runs one provider task per (field, provider) pair concurrently.
// Each task gets its own timeout; the whole search gets a deadline. Tasks
// that fail or outlive the deadline are reported as degraded rather than
// sinking the search — only a full wipeout is an error.
func (a *Aggregator) Search(ctx context.Context, fields []string, candidateSkills []string, filters engine.SearchFilters) (*SearchResult, error) {
	if len(fields) == 0 || len(a.providers) == 0 {
		return &SearchResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, engine.Cfg.RequestDeadline)
	defer cancel()

	tasks := make([]fetchTask, 0, len(fields)*len(a.providers))
	for _, field := range fields {
		for _, p := range a.providers {
			tasks = append(tasks, fetchTask{provider: p, field: field})
		}
	}

	ch := make(chan fetchOutcome, len(tasks))
	for _, task := range tasks {
		go func(t fetchTask) {
			taskCtx, taskCancel := context.WithTimeout(ctx, engine.Cfg.ProviderTimeout)
			defer taskCancel()
			listings, err := a.fetchCached(taskCtx, t)
			ch <- fetchOutcome{task: t, listings: listings, err: err}
		}(task)
	}

	var collected []engine.JobListing
	var degraded []ProviderFailure
	pending := len(tasks)
	succeeded := 0

collect:
	for pending > 0 {
		select {
		case out := <-ch:
			pending--
			if out.err != nil {
				engine.IncrProviderErrors()
				engine.IncrDegradedProviders()
				slog.Warn("provider task failed",
					slog.String("provider", out.task.provider.Name()),
					slog.String("field", out.task.field),
					slog.Any("error", out.err))
				degraded = append(degraded, ProviderFailure{
					Provider: out.task.provider.Name(),
					Field:    out.task.field,
					Reason:   out.err.Error(),
				})
				continue
			}
			succeeded++
			collected = append(collected, out.listings...)
		case <-ctx.Done():
			// Whatever has not answered by the deadline is abandoned; the
			// goroutines drain into the buffered channel and exit.
			break collect
		}
	}
	if pending > 0 {
		engine.IncrDegradedProviders()
		degraded = append(degraded, ProviderFailure{
			Provider: "*",
			Field:    "*",
			Reason:   fmt.Sprintf("%d tasks abandoned at deadline", pending),
		})
	}

	if succeeded == 0 {
		return nil, &AggregationError{Failures: degraded}
	}

	jobs := a.rank(collected, candidateSkills, filters)
	return &SearchResult{Jobs: jobs, Degraded: degraded}, nil
}

// fetchCached serves a provider task from the tiered cache when possible and
// stores fresh answers back. Failures are never cached.
func (a *Aggregator) fetchCached(ctx context.Context, t fetchTask) ([]engine.JobListing, error) {
	key := engine.CacheKey("jobs", t.provider.Name(), t.field)
	if cached, ok := engine.CacheLoadJSON[[]engine.JobListing](ctx, key); ok {
		return cached, nil
	}

	listings, err := t.provider.Fetch(ctx, t.field, engine.SearchFilters{})
	if err != nil {
		return nil, err
	}
	// Qualify IDs before the cache write: the native ID is not part of the
	// serialized form, the qualified ID is.
	for i := range listings {
		listings[i].ID = engine.QualifiedID(listings[i].Provider, listings[i].NativeID)
	}
	engine.CacheStoreJSON(ctx, key, listings)
	return listings, nil
}

// rank is the deterministic tail of a search: normalize, dedup, score,
// filter, order, cap.
func (a *Aggregator) rank(listings []engine.JobListing, candidateSkills []string, filters engine.SearchFilters) []engine.JobListing {
	trust := make(map[string]int, len(a.providers))
	for _, p := range a.providers {
		trust[p.Name()] = p.Trust()
	}

	for i := range listings {
		l := &listings[i]
		if l.ID == "" {
			l.ID = engine.QualifiedID(l.Provider, l.NativeID)
		}
		if l.ExperienceLevel == "" {
			l.ExperienceLevel = InferExperienceLevel(l.Title)
		}
		if l.LocationType == "" {
			l.LocationType = InferLocationType(l.Location)
		}
		l.MatchScore, l.MatchedSkills, l.MissingSkills = resume.ScoreListing(candidateSkills, l.Title+" "+l.Description)
	}

	deduped := dedupe(listings, trust)

	var out []engine.JobListing
	for _, l := range deduped {
		if filters.Matches(l) {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		if !out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].PostedAt.After(out[j].PostedAt)
		}
		return out[i].ID < out[j].ID
	})

	if limit := engine.Cfg.MaxJobs; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// dedupe drops exact duplicates by qualified ID, then collapses the same
// opening seen through different providers: same canonical title+company key
// posted within the dedupe window. The higher-trust provider's copy
// survives; on equal trust the earlier qualified ID wins so the outcome does
// not depend on arrival order.
func dedupe(listings []engine.JobListing, trust map[string]int) []engine.JobListing {
	byID := make(map[string]bool, len(listings))
	var unique []engine.JobListing
	for _, l := range listings {
		if l.ID == "" || byID[l.ID] {
			continue
		}
		byID[l.ID] = true
		unique = append(unique, l)
	}

	window := engine.Cfg.DedupeWindow
	byKey := make(map[string][]int)
	keep := make([]bool, len(unique))
	for i := range keep {
		keep[i] = true
	}

	for i, l := range unique {
		key := engine.CanonicalJobKey(l.Title, l.Company)
		if key == "" {
			continue
		}
		merged := false
		for _, j := range byKey[key] {
			if !keep[j] {
				continue
			}
			other := unique[j]
			if !withinWindow(l.PostedAt, other.PostedAt, window) {
				continue
			}
			if better(l, other, trust) {
				keep[j] = false
				byKey[key] = append(byKey[key], i)
			} else {
				keep[i] = false
			}
			merged = true
			break
		}
		if !merged {
			byKey[key] = append(byKey[key], i)
		}
	}

	out := make([]engine.JobListing, 0, len(unique))
	for i, l := range unique {
		if keep[i] {
			out = append(out, l)
		}
	}
	return out
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}

func better(a, b engine.JobListing, trust map[string]int) bool {
	if trust[a.Provider] != trust[b.Provider] {
		return trust[a.Provider] > trust[b.Provider]
	}
	return a.ID < b.ID
}
