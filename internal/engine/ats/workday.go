package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"resumescout/internal/engine"
)

// Workday exposes no public board API; the CXS endpoint behind each tenant's
// career site accepts the same paged POST the site's own frontend sends.
const (
	workdayCXSFormat  = "https://%s.myworkdayjobs.com/wday/cxs/%s/%s/jobs"
	workdayPageSize   = 20
	workdayMaxPages   = 5
	workdayDateLayout = "2006-01-02"
)

type workdaySearchRequest struct {
	AppliedFacets map[string][]string `json:"appliedFacets"`
	Limit         int                 `json:"limit"`
	Offset        int                 `json:"offset"`
	SearchText    string              `json:"searchText"`
}

type workdayPosting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	StartDate     string   `json:"startDate"`
	BulletFields  []string `json:"bulletFields"`
}

type workdaySearchResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayPosting `json:"jobPostings"`
}

// workdayProvider queries one or more tenants, each given as "tenant/site"
// ("acme/External" → acme.myworkdayjobs.com/wday/cxs/acme/External/jobs).
type workdayProvider struct {
	name    string
	trust   int
	tenants []string
	limiter *rate.Limiter
}

func (p *workdayProvider) Name() string { return p.name }
func (p *workdayProvider) Trust() int   { return p.trust }

func (p *workdayProvider) Fetch(ctx context.Context, field string, _ engine.SearchFilters) ([]engine.JobListing, error) {
	var listings []engine.JobListing
	var lastErr error
	ok := 0

	for _, tenant := range p.tenants {
		got, err := p.fetchTenant(ctx, tenant, field)
		if err != nil {
			slog.Debug("workday: tenant fetch failed",
				slog.String("tenant", tenant), slog.Any("error", err))
			lastErr = err
			continue
		}
		ok++
		listings = append(listings, got...)
	}

	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return listings, nil
}

func (p *workdayProvider) fetchTenant(ctx context.Context, board, field string) ([]engine.JobListing, error) {
	tenant, site, found := strings.Cut(board, "/")
	if !found {
		site = "External"
	}
	endpoint := fmt.Sprintf(workdayCXSFormat, tenant, tenant, site)

	var listings []engine.JobListing
	for page := 0; page < workdayMaxPages; page++ {
		payload, err := json.Marshal(workdaySearchRequest{
			AppliedFacets: map[string][]string{},
			Limit:         workdayPageSize,
			Offset:        page * workdayPageSize,
			SearchText:    field,
		})
		if err != nil {
			return nil, err
		}

		body, err := fetchBody(ctx, p.limiter, http.MethodPost, endpoint, payload)
		if err != nil {
			return nil, err
		}
		if body == nil {
			break
		}

		var wr workdaySearchResponse
		if err := json.Unmarshal(body, &wr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderFormat, err)
		}
		for _, posting := range wr.JobPostings {
			listings = append(listings, p.toListing(tenant, posting))
		}
		if (page+1)*workdayPageSize >= wr.Total || len(wr.JobPostings) == 0 {
			break
		}
	}
	return listings, nil
}

func (p *workdayProvider) toListing(tenant string, posting workdayPosting) engine.JobListing {
	// The external path tail doubles as the requisition ID; it is the only
	// stable identifier the search payload carries.
	nativeID := posting.ExternalPath
	if i := strings.LastIndex(nativeID, "/"); i >= 0 {
		nativeID = nativeID[i+1:]
	}

	return engine.JobListing{
		NativeID:    nativeID,
		Title:       posting.Title,
		Company:     tenant,
		Location:    posting.LocationsText,
		PostedAt:    workdayPostedAt(posting),
		Description: strings.Join(posting.BulletFields, "\n"),
		ApplyURL:    fmt.Sprintf("https://%s.myworkdayjobs.com%s", tenant, posting.ExternalPath),
		Provider:    p.name,
	}
}

// workdayPostedAt prefers the machine-readable start date and falls back to
// decoding the human "Posted N Days Ago" label.
func workdayPostedAt(posting workdayPosting) time.Time {
	if posting.StartDate != "" {
		if t, err := time.Parse(workdayDateLayout, posting.StartDate); err == nil {
			return t
		}
	}
	label := strings.ToLower(posting.PostedOn)
	now := time.Now().UTC()
	switch {
	case strings.Contains(label, "today"):
		return now
	case strings.Contains(label, "yesterday"):
		return now.AddDate(0, 0, -1)
	}
	var n int
	if _, err := fmt.Sscanf(label, "posted %d days ago", &n); err == nil && n > 0 {
		return now.AddDate(0, 0, -n)
	}
	if _, err := fmt.Sscanf(label, "posted %d+ days ago", &n); err == nil && n > 0 {
		return now.AddDate(0, 0, -n)
	}
	return time.Time{}
}
