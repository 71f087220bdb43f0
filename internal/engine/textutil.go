package engine

import (
	"strings"

	"golang.org/x/net/html"
)

// UserAgentBot is the default User-Agent for outbound HTTP requests.
const UserAgentBot = "ResumeScout/1.0"

// CleanHTML strips tags from an HTML fragment and collapses whitespace.
// Script and style contents are dropped entirely.
func CleanHTML(s string) string {
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := tok.TagName()
			if n := string(name); n == "script" || n == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8.
func TruncateRunes(s string, limit int, suffix string) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}

// CanonicalJobKey returns a normalized dedup key for cross-provider job
// deduplication. The same posting seen through two different ATS boards
// collapses to the same key (same title, same company).
func CanonicalJobKey(title, company string) string {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		// Strip common company suffixes so "Acme Inc" == "Acme".
		for _, suf := range []string{" inc", " inc.", " llc", " ltd", " ltd.", " corp", " corp.", " gmbh"} {
			s = strings.TrimSuffix(s, suf)
		}
		// Collapse all non-alphanumeric runs to a single space.
		var b strings.Builder
		prevSpace := true
		for _, r := range s {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
				prevSpace = false
			} else if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
		return strings.TrimRight(b.String(), " ")
	}
	return norm(title) + "|" + norm(company)
}
