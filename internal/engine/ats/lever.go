package ats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"resumescout/internal/engine"
)

const leverAPIBase = "https://api.lever.co/v0/postings/%s?mode=json"

// leverPosting is a single job from the Lever public postings API.
type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	Categories struct {
		Location     string   `json:"location"`
		AllLocations []string `json:"allLocations"`
		Team         string   `json:"team"`
		Commitment   string   `json:"commitment"`
		Department   string   `json:"department"`
	} `json:"categories"`
	CreatedAt        int64  `json:"createdAt"`
	Description      string `json:"description"`
	DescriptionPlain string `json:"descriptionPlain"`
	WorkplaceType    string `json:"workplaceType"`
}

type leverProvider struct {
	name    string
	trust   int
	boards  []string
	limiter *rate.Limiter
}

func (p *leverProvider) Name() string { return p.name }
func (p *leverProvider) Trust() int   { return p.trust }

func (p *leverProvider) Fetch(ctx context.Context, field string, _ engine.SearchFilters) ([]engine.JobListing, error) {
	var listings []engine.JobListing
	var lastErr error
	ok := 0

	for _, board := range p.boards {
		var postings []leverPosting
		if err := fetchJSON(ctx, p.limiter, fmt.Sprintf(leverAPIBase, board), &postings); err != nil {
			slog.Debug("lever: board fetch failed",
				slog.String("board", board), slog.Any("error", err))
			lastErr = err
			continue
		}
		ok++
		for _, posting := range postings {
			haystack := posting.Text + " " + posting.Categories.Team + " " + posting.Categories.Department
			if !matchesField(haystack, field) {
				continue
			}
			listings = append(listings, p.toListing(board, posting))
		}
	}

	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return listings, nil
}

func (p *leverProvider) toListing(board string, posting leverPosting) engine.JobListing {
	applyURL := posting.HostedURL
	if applyURL == "" {
		applyURL = fmt.Sprintf("https://jobs.lever.co/%s/%s", board, posting.ID)
	}

	location := posting.Categories.Location
	if location == "" && len(posting.Categories.AllLocations) > 0 {
		location = strings.Join(posting.Categories.AllLocations, ", ")
	}

	description := posting.DescriptionPlain
	if description == "" {
		description = NormalizeDescription(posting.Description)
	}

	department := posting.Categories.Department
	if department == "" {
		department = posting.Categories.Team
	}

	var posted time.Time
	if posting.CreatedAt > 0 {
		posted = time.UnixMilli(posting.CreatedAt).UTC()
	}

	return engine.JobListing{
		NativeID:     posting.ID,
		Title:        posting.Text,
		Company:      board,
		Location:     location,
		LocationType: locationTypeFromWorkplace(posting.WorkplaceType),
		Department:   department,
		PostedAt:     posted,
		Description:  description,
		ApplyURL:     applyURL,
		Provider:     p.name,
	}
}

func locationTypeFromWorkplace(wt string) string {
	switch strings.ToLower(wt) {
	case "remote":
		return engine.LocationRemote
	case "hybrid":
		return engine.LocationHybrid
	case "on-site", "onsite":
		return engine.LocationOnsite
	}
	return ""
}
