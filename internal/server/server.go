// Package server exposes the resume and job-search engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"resumescout/internal/engine"
	"resumescout/internal/engine/ats"
	"resumescout/internal/engine/enrich"
	"resumescout/internal/engine/resume"
	"resumescout/internal/store"
)

const maxUploadBytes = 16 << 20

// Server wires the engine pieces behind the HTTP API.
type Server struct {
	store    *store.Store
	agg      *ats.Aggregator
	enricher *enrich.Client
}

func New(st *store.Store, agg *ats.Aggregator, enricher *enrich.Client) *Server {
	return &Server{store: st, agg: agg, enricher: enricher}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/resumes", s.handleResumeUpload)
	mux.HandleFunc("POST /api/jobs/search", s.handleJobSearch)
	mux.HandleFunc("POST /api/jobs/save", s.handleJobSave)
	mux.HandleFunc("GET /api/applications", s.handleApplicationList)
	mux.HandleFunc("POST /api/applications/update", s.handleApplicationUpdate)
	mux.HandleFunc("GET /api/filters", s.handleFilters)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return withRequestLog(mux)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("took", time.Since(start)))
	})
}

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		slog.Debug("response encode failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg}) //nolint:errcheck
}

// resumeUploadResult is the payload for a successful upload. Jobs is only
// present when the caller asked for an immediate search.
type resumeUploadResult struct {
	ResumeID      int64                  `json:"resume_id"`
	Filename      string                 `json:"filename"`
	Record        engine.ResumeRecord    `json:"record"`
	FieldAffinity []engine.FieldAffinity `json:"field_affinity"`
	Jobs          *ats.SearchResult      `json:"jobs,omitempty"`
}

func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	engine.IncrUploadRequests()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form required: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing form file \"file\"")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	text, err := resume.ExtractText(engine.RawDocument{Filename: header.Filename, Data: data})
	if err != nil {
		engine.IncrExtractionFailures()
		status := http.StatusUnprocessableEntity
		if errors.Is(err, resume.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, err.Error())
		return
	}

	rec := resume.ParseResume(text)
	affinity := resume.ScoreFields(rec)

	id, err := s.store.SaveResume(r.Context(), header.Filename, rec)
	if err != nil {
		slog.Error("resume save failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to persist resume")
		return
	}

	slog.Info("resume parsed",
		slog.Int64("id", id),
		slog.String("filename", header.Filename),
		slog.Int("skills", len(rec.Skills)))

	result := resumeUploadResult{
		ResumeID:      id,
		Filename:      header.Filename,
		Record:        rec,
		FieldAffinity: affinity,
	}

	// ?search=true runs an immediate job search off the top-ranked fields.
	// The upload itself already succeeded, so a failed search only logs.
	if r.FormValue("search") == "true" {
		if fields := topFields(affinity, 3); len(fields) > 0 {
			search, err := s.agg.Search(r.Context(), fields, rec.Skills, engine.SearchFilters{})
			if err != nil {
				slog.Warn("post-upload search failed", slog.Any("error", err))
			} else {
				result.Jobs = search
			}
		}
	}

	writeJSON(w, http.StatusCreated, result)
}

// jobSearchRequest drives a search either from a stored resume or from an
// explicit skill list.
type jobSearchRequest struct {
	ResumeID  int64                `json:"resume_id,omitempty"`
	Skills    []string             `json:"skills,omitempty"`
	Fields    []string             `json:"fields,omitempty"`
	Filters   engine.SearchFilters `json:"filters"`
	Summarize bool                 `json:"summarize,omitempty"`
	Enrich    bool                 `json:"enrich,omitempty"`
}

// Only the head of the result list is worth a model round-trip each.
const maxEnrichedListings = 5

func (s *Server) handleJobSearch(w http.ResponseWriter, r *http.Request) {
	engine.IncrSearchRequests()

	var req jobSearchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	skills := req.Skills
	fields := req.Fields
	if req.ResumeID > 0 {
		saved, err := s.store.GetResume(r.Context(), req.ResumeID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("resume %d not found", req.ResumeID))
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load resume")
			return
		}
		if len(skills) == 0 {
			skills = saved.Record.Skills
		}
		if len(fields) == 0 {
			fields = topFields(resume.ScoreFields(saved.Record), 3)
		}
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "fields is required when no resume_id is given")
		return
	}

	result, err := s.agg.Search(r.Context(), fields, skills, req.Filters)
	var aggErr *ats.AggregationError
	if errors.As(err, &aggErr) {
		writeError(w, http.StatusBadGateway, aggErr.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.enricher.Enabled() && (req.Enrich || req.Summarize) {
		s.enrichResults(r.Context(), req, skills, result)
	}

	writeJSON(w, http.StatusOK, result)
}

// enrichResults runs best-effort model passes over the top listings: an
// optional fit re-score (averaged with the heuristic score, then re-ranked)
// and an optional description summary. Failures leave listings untouched.
func (s *Server) enrichResults(ctx context.Context, req jobSearchRequest, skills []string, result *ats.SearchResult) {
	n := min(len(result.Jobs), maxEnrichedListings)
	if req.Enrich {
		for i := 0; i < n; i++ {
			j := &result.Jobs[i]
			if score, ok := s.enricher.RescoreListing(ctx, skills, j.Title, j.Description); ok {
				j.MatchScore = (j.MatchScore + score) / 2
			}
		}
		sort.SliceStable(result.Jobs[:n], func(a, b int) bool {
			return result.Jobs[a].MatchScore > result.Jobs[b].MatchScore
		})
	}
	if req.Summarize {
		for i := 0; i < n; i++ {
			result.Jobs[i].Description = s.enricher.SummarizeListing(ctx, result.Jobs[i].Description)
		}
	}
}

// topFields keeps only fields with a positive affinity, up to n.
func topFields(affinities []engine.FieldAffinity, n int) []string {
	var out []string
	for _, a := range affinities {
		if a.Score <= 0 || len(out) == n {
			break
		}
		out = append(out, a.Field)
	}
	return out
}

type jobSaveRequest struct {
	Job engine.JobListing `json:"job"`
}

func (s *Server) handleJobSave(w http.ResponseWriter, r *http.Request) {
	var req jobSaveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	id, err := s.store.SaveApplication(r.Context(), req.Job)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"application_id": id})
}

func (s *Server) handleApplicationList(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	apps, err := s.store.ListApplications(r.Context(), status, 0)
	if err != nil {
		if strings.Contains(err.Error(), "invalid status") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps, "total": len(apps)})
}

type applicationUpdateRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

func (s *Server) handleApplicationUpdate(w http.ResponseWriter, r *http.Request) {
	var req applicationUpdateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	err := s.store.UpdateApplication(r.Context(), req.ID, req.Status, req.Notes)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("application %d not found", req.ID))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"application_id": req.ID})
}

// handleFilters publishes the searchable value catalog so clients do not
// hardcode it.
func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	providers := []string{}
	for _, p := range s.agg.Providers() {
		providers = append(providers, p.Name())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"experience_levels": []string{
			engine.LevelEntry, engine.LevelJunior, engine.LevelMid,
			engine.LevelSenior, engine.LevelExecutive,
		},
		"location_types": []string{
			engine.LocationRemote, engine.LocationHybrid, engine.LocationOnsite,
		},
		"career_fields": resume.FieldNames(),
		"providers":     providers,
		"statuses": []string{
			string(engine.StatusSaved), string(engine.StatusApplied),
			string(engine.StatusInProgress), string(engine.StatusRejected),
		},
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, engine.FormatMetrics())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
