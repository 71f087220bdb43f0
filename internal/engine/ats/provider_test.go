package ats

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"resumescout/internal/engine"
)

func TestNewRegistry(t *testing.T) {
	providers, err := NewRegistry([]engine.ProviderConfig{
		{Kind: "greenhouse", Name: "gh", Trust: 3, Boards: []string{"acme"}},
		{Kind: "lever", Name: "lv", Trust: 2, Boards: []string{"acme"}},
		{Kind: "workday", Name: "wd", Trust: 4, Boards: []string{"acme/External"}},
		{Kind: "generic", Name: "web", Trust: 1, Boards: []string{"https://example.com/careers"}},
	}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if len(providers) != 4 {
		t.Fatalf("providers = %d", len(providers))
	}
	if providers[2].Trust() != 4 || providers[2].Name() != "wd" {
		t.Errorf("provider order not preserved: %+v", providers[2])
	}
}

func TestNewRegistryRejectsBadConfig(t *testing.T) {
	if _, err := NewRegistry([]engine.ProviderConfig{{Kind: "taleo", Name: "x"}}, nil); err == nil {
		t.Error("unknown kind accepted")
	}
	if _, err := NewRegistry([]engine.ProviderConfig{
		{Kind: "lever", Name: "x"}, {Kind: "lever", Name: "x"},
	}, nil); err == nil {
		t.Error("duplicate name accepted")
	}
	if _, err := NewRegistry([]engine.ProviderConfig{{Kind: "lever"}}, nil); err == nil {
		t.Error("empty name accepted")
	}
}

func TestGreenhouseToListing(t *testing.T) {
	payload := `{"jobs":[{"id":4567,"title":"Backend Engineer","location":{"name":"Remote"},
		"updated_at":"2026-08-20T10:00:00Z","absolute_url":"https://boards.greenhouse.io/acme/jobs/4567",
		"content":"<p>Build APIs with &lt;b&gt;Python&lt;/b&gt;</p>",
		"departments":[{"name":"Engineering"}]}]}`
	var gr greenhouseResponse
	if err := json.Unmarshal([]byte(payload), &gr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := &greenhouseProvider{name: "greenhouse", trust: 3}
	l := p.toListing("acme", gr.Jobs[0])

	if l.NativeID != "4567" || l.Provider != "greenhouse" {
		t.Errorf("identity fields: %+v", l)
	}
	if l.Company != "acme" || l.Department != "Engineering" {
		t.Errorf("company/department: %+v", l)
	}
	if l.PostedAt.IsZero() || l.PostedAt.Day() != 20 {
		t.Errorf("posted = %v", l.PostedAt)
	}
	if strings.Contains(l.Description, "<p>") || strings.Contains(l.Description, "&lt;") {
		t.Errorf("description not normalized: %q", l.Description)
	}
	if !strings.Contains(l.Description, "Python") {
		t.Errorf("description lost content: %q", l.Description)
	}
}

func TestLeverToListing(t *testing.T) {
	payload := `[{"id":"abc-123","text":"Senior Data Engineer","hostedUrl":"https://jobs.lever.co/acme/abc-123",
		"categories":{"location":"","allLocations":["London","Berlin"],"team":"Data","commitment":"Full-time"},
		"createdAt":1755648000000,"descriptionPlain":"Pipelines with Spark.","workplaceType":"remote"}]`
	var postings []leverPosting
	if err := json.Unmarshal([]byte(payload), &postings); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := &leverProvider{name: "lever", trust: 2}
	l := p.toListing("acme", postings[0])

	if l.NativeID != "abc-123" || l.Title != "Senior Data Engineer" {
		t.Errorf("identity: %+v", l)
	}
	if l.Location != "London, Berlin" {
		t.Errorf("location fallback: %q", l.Location)
	}
	if l.LocationType != engine.LocationRemote {
		t.Errorf("workplace type: %q", l.LocationType)
	}
	if l.Department != "Data" {
		t.Errorf("department: %q", l.Department)
	}
	if l.PostedAt.IsZero() || l.PostedAt.Year() != 2025 {
		t.Errorf("posted = %v", l.PostedAt)
	}
}

func TestWorkdayToListing(t *testing.T) {
	payload := `{"total":1,"jobPostings":[{"title":"Cloud Architect","externalPath":"/job/New-York/Cloud-Architect_R-12345",
		"locationsText":"New York, NY","postedOn":"Posted 3 Days Ago","bulletFields":["R-12345"]}]}`
	var wr workdaySearchResponse
	if err := json.Unmarshal([]byte(payload), &wr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p := &workdayProvider{name: "workday", trust: 4}
	l := p.toListing("acme", wr.JobPostings[0])

	if l.NativeID != "Cloud-Architect_R-12345" {
		t.Errorf("native id = %q", l.NativeID)
	}
	if l.ApplyURL != "https://acme.myworkdayjobs.com/job/New-York/Cloud-Architect_R-12345" {
		t.Errorf("apply url = %q", l.ApplyURL)
	}
	if l.PostedAt.IsZero() {
		t.Error("posted-on label not decoded")
	}
	if age := time.Since(l.PostedAt); age < 2*24*time.Hour || age > 4*24*time.Hour {
		t.Errorf("posted %v ago, want about 3 days", age)
	}
}

func TestGenericParsePage(t *testing.T) {
	page := `<html><body>
		<div class="job-listing"><a href="/careers/backend-engineer"><h3>Backend Engineer</h3></a>
			<p>Python, PostgreSQL, Docker.</p></div>
		<div class="job-listing"><a href="/careers/qa-engineer">QA Engineer</a></div>
		<div class="nav"><a href="/about">About us</a></div>
	</body></html>`

	p := &genericProvider{name: "web", trust: 1}
	listings, err := p.parsePage(context.Background(), "https://careers.acme.com/jobs", []byte(page), "Engineer")
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %d: %+v", len(listings), listings)
	}
	l := listings[0]
	if l.Title != "Backend Engineer" {
		t.Errorf("title = %q", l.Title)
	}
	if l.ApplyURL != "https://careers.acme.com/careers/backend-engineer" {
		t.Errorf("apply url = %q", l.ApplyURL)
	}
	if l.Company != "acme" {
		t.Errorf("company = %q", l.Company)
	}
	if l.NativeID == "" || l.Provider != "web" {
		t.Errorf("identity: %+v", l)
	}
}

func TestGenericParsePageAnchorFallback(t *testing.T) {
	page := `<html><body>
		<table><tr><td><a href="/jobs/123-platform-engineer">Platform Engineer</a></td></tr></table>
		<a href="/blog/post">Reading material</a>
	</body></html>`

	p := &genericProvider{name: "web", trust: 1}
	listings, err := p.parsePage(context.Background(), "https://acme.com/careers", []byte(page), "Engineer")
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if len(listings) != 1 || listings[0].Title != "Platform Engineer" {
		t.Fatalf("listings = %+v", listings)
	}
}

type stubExtractor struct{ listings []engine.JobListing }

func (s *stubExtractor) ExtractListings(_ context.Context, _ string) ([]engine.JobListing, error) {
	return s.listings, nil
}

func TestGenericParsePageExtractorFallback(t *testing.T) {
	engine.Init(engine.Config{})
	page := `<html><body><div id="root">Loading...</div></body></html>`

	p := &genericProvider{name: "web", trust: 1, extractor: &stubExtractor{listings: []engine.JobListing{
		{Title: "Security Engineer", ApplyURL: "https://acme.com/jobs/sec"},
	}}}
	listings, err := p.parsePage(context.Background(), "https://acme.com/careers", []byte(page), "Engineer")
	if err != nil {
		t.Fatalf("parsePage: %v", err)
	}
	if len(listings) != 1 || listings[0].Provider != "web" || listings[0].NativeID == "" {
		t.Fatalf("listings = %+v", listings)
	}
}
