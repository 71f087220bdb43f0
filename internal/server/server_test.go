package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumescout/internal/engine"
	"resumescout/internal/engine/ats"
	"resumescout/internal/store"
)

type stubProvider struct {
	name     string
	listings []engine.JobListing
	err      error
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) Trust() int   { return 1 }
func (p *stubProvider) Fetch(_ context.Context, _ string, _ engine.SearchFilters) ([]engine.JobListing, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]engine.JobListing, len(p.listings))
	copy(out, p.listings)
	for i := range out {
		out[i].Provider = p.name
	}
	return out, nil
}

func newTestServer(t *testing.T, providers ...ats.Provider) *Server {
	t.Helper()
	engine.Init(engine.Config{
		ProviderTimeout: time.Second,
		RequestDeadline: 2 * time.Second,
	})
	engine.InitCache("", time.Minute, 64)

	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(st, ats.NewAggregator(providers), nil)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rr.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %s", envelope.Error)
	}
	var out T
	if err := json.Unmarshal(envelope.Data, &out); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
	return out
}

func uploadResume(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resumes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const testResumeText = `Jane Doe
jane@example.com

Experience
Senior Software Engineer, Acme Inc 2019 - Present
Python, Docker and Kubernetes work on AWS.

Skills
Python, Docker, Kubernetes, AWS
`

func TestResumeUpload(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := uploadResume(t, h, "jane.txt", testResumeText)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	got := decodeData[struct {
		ResumeID      int64                  `json:"resume_id"`
		Record        engine.ResumeRecord    `json:"record"`
		FieldAffinity []engine.FieldAffinity `json:"field_affinity"`
	}](t, rr)

	if got.ResumeID <= 0 {
		t.Errorf("resume_id = %d", got.ResumeID)
	}
	if got.Record.Contact.Email != "jane@example.com" {
		t.Errorf("contact = %+v", got.Record.Contact)
	}
	if len(got.Record.Skills) == 0 || len(got.FieldAffinity) == 0 {
		t.Errorf("skills/affinity missing: %+v", got)
	}
}

func TestResumeUploadWithSearch(t *testing.T) {
	provider := &stubProvider{name: "stub", listings: []engine.JobListing{{
		NativeID:    "1",
		Title:       "Backend Software Engineer",
		Company:     "acme",
		PostedAt:    time.Now().UTC(),
		Description: "Python, Docker, Kubernetes.",
	}}}
	h := newTestServer(t, provider).Handler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "jane.txt")
	fw.Write([]byte(testResumeText))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/resumes?search=true", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	got := decodeData[struct {
		Jobs *ats.SearchResult `json:"jobs"`
	}](t, rr)
	if got.Jobs == nil || len(got.Jobs.Jobs) != 1 {
		t.Fatalf("jobs = %+v", got.Jobs)
	}
	if got.Jobs.Jobs[0].MatchScore <= 0 {
		t.Errorf("match score = %f", got.Jobs.Jobs[0].MatchScore)
	}
}

func TestResumeUploadRejectsUnknownFormat(t *testing.T) {
	h := newTestServer(t).Handler()
	rr := uploadResume(t, h, "avatar.png", "\x89PNG\r\n")
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
}

func TestResumeUploadRequiresFile(t *testing.T) {
	h := newTestServer(t).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/resumes", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestJobSearchWithExplicitFields(t *testing.T) {
	provider := &stubProvider{name: "stub", listings: []engine.JobListing{{
		NativeID:    "1",
		Title:       "Backend Engineer",
		Company:     "acme",
		Location:    "Remote",
		PostedAt:    time.Now().UTC(),
		Description: "Python and Docker.",
	}}}
	h := newTestServer(t, provider).Handler()

	rr := postJSON(t, h, "/api/jobs/search", map[string]any{
		"fields": []string{"Engineer"},
		"skills": []string{"Python"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeData[ats.SearchResult](t, rr)
	if len(got.Jobs) != 1 || got.Jobs[0].ID != "stub/1" {
		t.Fatalf("jobs = %+v", got.Jobs)
	}
	if got.Jobs[0].MatchScore <= 0 {
		t.Errorf("match score = %f", got.Jobs[0].MatchScore)
	}
}

func TestJobSearchFromStoredResume(t *testing.T) {
	provider := &stubProvider{name: "stub", listings: []engine.JobListing{{
		NativeID:    "7",
		Title:       "Platform Engineer",
		Company:     "globex",
		PostedAt:    time.Now().UTC(),
		Description: "Kubernetes and AWS platform work.",
	}}}
	srv := newTestServer(t, provider)
	h := srv.Handler()

	upload := uploadResume(t, h, "jane.txt", testResumeText)
	if upload.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", upload.Code)
	}
	uploaded := decodeData[struct {
		ResumeID int64 `json:"resume_id"`
	}](t, upload)

	rr := postJSON(t, h, "/api/jobs/search", map[string]any{"resume_id": uploaded.ResumeID})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	got := decodeData[ats.SearchResult](t, rr)
	if len(got.Jobs) != 1 {
		t.Fatalf("jobs = %+v", got.Jobs)
	}
	if len(got.Jobs[0].MatchedSkills) == 0 {
		t.Errorf("stored resume skills not applied: %+v", got.Jobs[0])
	}
}

func TestJobSearchRequiresFields(t *testing.T) {
	h := newTestServer(t, &stubProvider{name: "stub"}).Handler()
	rr := postJSON(t, h, "/api/jobs/search", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestJobSearchAllProvidersDown(t *testing.T) {
	h := newTestServer(t, &stubProvider{name: "down", err: ats.ErrProviderUnavailable}).Handler()
	rr := postJSON(t, h, "/api/jobs/search", map[string]any{"fields": []string{"Engineer"}})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
}

func TestJobSaveListUpdate(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := postJSON(t, h, "/api/jobs/save", map[string]any{
		"job": map[string]any{
			"id":      "stub/1",
			"title":   "Backend Engineer",
			"company": "acme",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("save status = %d: %s", rr.Code, rr.Body.String())
	}
	saved := decodeData[map[string]int64](t, rr)
	appID := saved["application_id"]

	rr = postJSON(t, h, "/api/applications/update", map[string]any{
		"id": appID, "status": "applied",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/applications?status=applied", nil)
	list := httptest.NewRecorder()
	h.ServeHTTP(list, req)
	if list.Code != http.StatusOK {
		t.Fatalf("list status = %d", list.Code)
	}
	got := decodeData[struct {
		Applications []store.Application `json:"applications"`
		Total        int                 `json:"total"`
	}](t, list)
	if got.Total != 1 || got.Applications[0].JobID != "stub/1" {
		t.Fatalf("list = %+v", got)
	}
}

func TestApplicationUpdateNotFound(t *testing.T) {
	h := newTestServer(t).Handler()
	rr := postJSON(t, h, "/api/applications/update", map[string]any{"id": 42, "status": "applied"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestFiltersCatalog(t *testing.T) {
	h := newTestServer(t, &stubProvider{name: "stub"}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeData[map[string]json.RawMessage](t, rr)
	for _, key := range []string{"experience_levels", "location_types", "career_fields", "providers", "statuses"} {
		if _, ok := got[key]; !ok {
			t.Errorf("catalog missing %q", key)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || rr.Body.Len() == 0 {
		t.Fatalf("metrics = %d, body %q", rr.Code, rr.Body.String())
	}
}
