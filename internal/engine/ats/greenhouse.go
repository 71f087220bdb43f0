package ats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"resumescout/internal/engine"
)

const greenhouseBoardsAPI = "https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true"

// greenhouseJob is a single job from the Greenhouse public boards API.
type greenhouseJob struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	UpdatedAt   string `json:"updated_at"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content,omitempty"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments,omitempty"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseProvider struct {
	name    string
	trust   int
	boards  []string
	limiter *rate.Limiter
}

func (p *greenhouseProvider) Name() string { return p.name }
func (p *greenhouseProvider) Trust() int   { return p.trust }

func (p *greenhouseProvider) Fetch(ctx context.Context, field string, _ engine.SearchFilters) ([]engine.JobListing, error) {
	var listings []engine.JobListing
	var lastErr error
	ok := 0

	for _, board := range p.boards {
		var gr greenhouseResponse
		if err := fetchJSON(ctx, p.limiter, fmt.Sprintf(greenhouseBoardsAPI, board), &gr); err != nil {
			slog.Debug("greenhouse: board fetch failed",
				slog.String("board", board), slog.Any("error", err))
			lastErr = err
			continue
		}
		ok++
		for _, job := range gr.Jobs {
			if !matchesField(job.Title+" "+departmentName(job), field) {
				continue
			}
			listings = append(listings, p.toListing(board, job))
		}
	}

	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return listings, nil
}

func (p *greenhouseProvider) toListing(board string, job greenhouseJob) engine.JobListing {
	applyURL := job.AbsoluteURL
	if applyURL == "" {
		applyURL = fmt.Sprintf("https://boards.greenhouse.io/%s/jobs/%d", board, job.ID)
	}
	posted, _ := time.Parse(time.RFC3339, job.UpdatedAt)

	return engine.JobListing{
		NativeID:   strconv.FormatInt(job.ID, 10),
		Title:      job.Title,
		Company:    board,
		Location:   job.Location.Name,
		Department: departmentName(job),
		PostedAt:   posted,
		// Greenhouse ships descriptions as HTML with escaped entities.
		Description: NormalizeDescription(job.Content),
		ApplyURL:    applyURL,
		Provider:    p.name,
	}
}

func departmentName(job greenhouseJob) string {
	if len(job.Departments) == 0 {
		return ""
	}
	return job.Departments[0].Name
}
