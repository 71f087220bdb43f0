package ats

import (
	"html"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"resumescout/internal/engine"
)

const maxDescriptionRunes = 4000

// NormalizeDescription turns provider HTML into readable markdown. Greenhouse
// escapes its HTML entities an extra time, so unescape happens first. When
// conversion fails the tag-stripped text is still usable.
func NormalizeDescription(raw string) string {
	if raw == "" {
		return ""
	}
	unescaped := html.UnescapeString(raw)
	md, err := htmltomarkdown.ConvertString(unescaped)
	if err != nil {
		md = engine.CleanHTML(unescaped)
	}
	return engine.TruncateRunes(strings.TrimSpace(md), maxDescriptionRunes, "...")
}

var levelKeywords = []struct {
	level string
	words []string
}{
	// Executive outranks senior so "Senior Director" lands on executive.
	{engine.LevelExecutive, []string{"director", "vp", "vice president", "head of", "chief", "cto", "ceo", "executive"}},
	{engine.LevelSenior, []string{"senior", "sr.", "sr ", "staff", "principal", "lead"}},
	{engine.LevelJunior, []string{"junior", "jr.", "jr ", "associate"}},
	{engine.LevelEntry, []string{"intern", "internship", "entry level", "entry-level", "graduate", "trainee"}},
}

// InferExperienceLevel maps a job title onto the level ladder. Titles with no
// seniority marker default to mid.
func InferExperienceLevel(title string) string {
	t := " " + strings.ToLower(title) + " "
	for _, lk := range levelKeywords {
		for _, w := range lk.words {
			if strings.Contains(t, w) {
				return lk.level
			}
		}
	}
	return engine.LevelMid
}

// InferLocationType classifies free-form location text. Empty text stays
// unclassified so filters cannot match it by accident.
func InferLocationType(location string) string {
	l := strings.ToLower(location)
	switch {
	case l == "":
		return ""
	case strings.Contains(l, "hybrid"):
		return engine.LocationHybrid
	case strings.Contains(l, "remote") || strings.Contains(l, "anywhere") || strings.Contains(l, "distributed"):
		return engine.LocationRemote
	default:
		return engine.LocationOnsite
	}
}
