package ats

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"resumescout/internal/engine"
)

// ListingExtractor pulls structured listings out of a careers page when the
// markup-level heuristics come up empty. The Ollama client satisfies it.
type ListingExtractor interface {
	ExtractListings(ctx context.Context, pageText string) ([]engine.JobListing, error)
}

var (
	jobContainerRe = regexp.MustCompile(`(?i)\b(job|position|opening|posting|vacancy|career|role)`)
	jobHrefRe      = regexp.MustCompile(`(?i)/(job|career|position|opening|posting)s?[/-]`)
)

// genericProvider scrapes arbitrary careers pages. It has no wire contract
// to lean on, so it works off class-name and URL heuristics and keeps an
// optional extractor as the fallback for structureless pages.
type genericProvider struct {
	name      string
	trust     int
	urls      []string
	limiter   *rate.Limiter
	extractor ListingExtractor
}

func (p *genericProvider) Name() string { return p.name }
func (p *genericProvider) Trust() int   { return p.trust }

func (p *genericProvider) Fetch(ctx context.Context, field string, _ engine.SearchFilters) ([]engine.JobListing, error) {
	var listings []engine.JobListing
	var lastErr error
	ok := 0

	for _, pageURL := range p.urls {
		body, err := fetchBody(ctx, p.limiter, http.MethodGet, pageURL, nil)
		if err != nil {
			slog.Debug("generic: page fetch failed",
				slog.String("url", pageURL), slog.Any("error", err))
			lastErr = err
			continue
		}
		if body == nil {
			continue
		}
		ok++

		got, err := p.parsePage(ctx, pageURL, body, field)
		if err != nil {
			lastErr = err
			continue
		}
		listings = append(listings, got...)
	}

	if ok == 0 && lastErr != nil {
		return nil, lastErr
	}
	return listings, nil
}

func (p *genericProvider) parsePage(ctx context.Context, pageURL string, body []byte, field string) ([]engine.JobListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFormat, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFormat, err)
	}

	company := companyFromHost(base.Host)
	listings := p.fromContainers(doc, base, company, field)
	if len(listings) == 0 {
		listings = p.fromAnchors(doc, base, company, field)
	}

	// A page that renders its board client-side yields nothing to either
	// pass; hand the visible text to the extractor if one is wired.
	if len(listings) == 0 && p.extractor != nil {
		text := engine.TruncateRunes(engine.CleanHTML(string(body)), 8000, "")
		extracted, err := p.extractor.ExtractListings(ctx, text)
		if err != nil {
			slog.Debug("generic: extractor failed", slog.Any("error", err))
			return nil, nil
		}
		for i := range extracted {
			p.finishListing(&extracted[i], pageURL, company)
		}
		return extracted, nil
	}
	return listings, nil
}

// fromContainers walks elements whose class or id smells like a job card.
func (p *genericProvider) fromContainers(doc *goquery.Document, base *url.URL, company, field string) []engine.JobListing {
	var listings []engine.JobListing
	seen := make(map[string]bool)

	doc.Find("div, li, article, section, tr").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if !jobContainerRe.MatchString(class + " " + id) {
			return
		}
		link := s.Find("a[href]").First()
		href, hasHref := link.Attr("href")
		if !hasHref {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h1, h2, h3, h4").First().Text())
		}
		if title == "" || !matchesField(title, field) {
			return
		}
		applyURL := resolveURL(base, href)
		if seen[applyURL] {
			return
		}
		seen[applyURL] = true

		listing := engine.JobListing{
			Title:       title,
			Description: engine.TruncateRunes(collapseSpace(s.Text()), 1500, "..."),
			ApplyURL:    applyURL,
		}
		p.finishListing(&listing, applyURL, company)
		listings = append(listings, listing)
	})
	return listings
}

// fromAnchors is the looser pass: any link whose path looks like a posting.
func (p *genericProvider) fromAnchors(doc *goquery.Document, base *url.URL, company, field string) []engine.JobListing {
	var listings []engine.JobListing
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !jobHrefRe.MatchString(href) {
			return
		}
		title := strings.TrimSpace(s.Text())
		if title == "" || len(title) > 120 || !matchesField(title, field) {
			return
		}
		applyURL := resolveURL(base, href)
		if seen[applyURL] {
			return
		}
		seen[applyURL] = true

		listing := engine.JobListing{Title: title, ApplyURL: applyURL}
		p.finishListing(&listing, applyURL, company)
		listings = append(listings, listing)
	})
	return listings
}

// finishListing fills the fields every generic listing needs regardless of
// which pass produced it.
func (p *genericProvider) finishListing(listing *engine.JobListing, applyURL, company string) {
	if listing.Company == "" {
		listing.Company = company
	}
	if listing.ApplyURL == "" {
		listing.ApplyURL = applyURL
	}
	if listing.NativeID == "" {
		listing.NativeID = engine.CacheKey("generic", listing.ApplyURL, listing.Title)
	}
	listing.Provider = p.name
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func companyFromHost(host string) string {
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "careers.")
	host = strings.TrimPrefix(host, "jobs.")
	if i := strings.Index(host, "."); i > 0 {
		host = host[:i]
	}
	return host
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
