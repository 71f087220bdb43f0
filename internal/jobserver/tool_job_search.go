package jobserver

import (
	"context"
	"errors"
	"time"

	"resumescout/internal/engine"
	"resumescout/internal/engine/ats"
	"resumescout/internal/engine/resume"
	"resumescout/internal/store"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// JobSearchInput drives a search from a stored resume, an explicit skill
// list, or both. Fields defaults to the resume's top-ranked career fields.
type JobSearchInput struct {
	ResumeID        int64    `json:"resume_id,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	ExperienceLevel string   `json:"experience_level,omitempty"`
	LocationType    string   `json:"location_type,omitempty"`
	PostedAfter     string   `json:"posted_after,omitempty"`
	MinMatchScore   float64  `json:"min_match_score,omitempty"`
}

func registerJobSearch(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "job_search",
		Description: "Search job listings across configured ATS providers (Greenhouse, Lever, Workday, generic careers pages). Results are deduplicated, scored against the candidate's skills, and sorted by match. Filters: experience_level (entry/junior/mid/senior/executive), location_type (remote/hybrid/onsite), posted_after (RFC 3339), min_match_score (0..1).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input JobSearchInput) (*mcp.CallToolResult, *ats.SearchResult, error) {
		filters := engine.SearchFilters{
			ExperienceLevel: input.ExperienceLevel,
			LocationType:    input.LocationType,
			MinMatchScore:   input.MinMatchScore,
		}
		if input.PostedAfter != "" {
			t, err := time.Parse(time.RFC3339, input.PostedAfter)
			if err != nil {
				return nil, nil, errors.New("posted_after must be RFC 3339")
			}
			filters.PostedAfter = t
		}

		fields := input.Fields
		skills := input.Skills
		if input.ResumeID > 0 && deps.Store != nil {
			saved, err := deps.Store.GetResume(ctx, input.ResumeID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, errors.New("resume not found; run resume_parse with save=true first")
			}
			if err != nil {
				return nil, nil, err
			}
			if len(skills) == 0 {
				skills = saved.Record.Skills
			}
			if len(fields) == 0 {
				for _, a := range resume.ScoreFields(saved.Record) {
					if a.Score <= 0 || len(fields) == 3 {
						break
					}
					fields = append(fields, a.Field)
				}
			}
		}
		if len(fields) == 0 {
			return nil, nil, errors.New("fields is required when no resume_id is given")
		}

		engine.IncrSearchRequests()
		result, err := deps.Agg.Search(ctx, fields, skills, filters)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})
}
