package resume

import (
	"regexp"
	"strings"

	"resumescout/internal/engine"
)

// Field extraction is best-effort: a recognizer that finds nothing leaves its
// field empty, it never fails the parse. Each recognizer is a pure function
// over the raw text so identical input always yields an identical record.

var (
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	linkedinRe = regexp.MustCompile(`(?i)linkedin\.com/in/[\w-]+`)
	phoneRes   = []*regexp.Regexp{
		regexp.MustCompile(`(\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`),
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	}
	locationRe = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?), ([A-Z]{2})\b`)
	digitsRe   = regexp.MustCompile(`\d{3}`)

	yearRe        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	companyLineRe = regexp.MustCompile(`\b(\d{4}|\w+\s*(Inc|LLC|Corp|Company|Ltd))\b`)
	durationRe    = regexp.MustCompile(`(?i)\b((Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s*)?(19|20)\d{2}\s*[-–—to]+\s*(((Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s*)?(19|20)\d{2}|[Pp]resent|[Cc]urrent)`)

	experienceHeadRe = regexp.MustCompile(`(?i)\b(experience|employment|work history)\b`)
	experienceEndRe  = regexp.MustCompile(`(?i)\b(education|skills|certifications)\b`)
	educationHeadRe  = regexp.MustCompile(`(?i)\beducation\b`)
	educationEndRe   = regexp.MustCompile(`(?i)\b(experience|skills|certifications|projects)\b`)
	degreeRe         = regexp.MustCompile(`(?i)\b(Bachelor|Master|Doctorate|PhD|Ph\.D|MBA|Associate|Diploma|B\.S|B\.A|M\.S|M\.A|B\.E|B\.Tech|M\.Tech)\b`)
)

var institutionWords = []string{"university", "college", "institute", "school", "academy"}

const (
	maxExperienceEntries = 5
	maxEducationEntries  = 3
)

// ParseResume runs every recognizer over the raw text and assembles a
// ResumeRecord. It never returns an error; unfound fields stay empty.
func ParseResume(text string) engine.ResumeRecord {
	rec := engine.ResumeRecord{
		Contact:    extractContact(text),
		Skills:     MatchSkills(text),
		Experience: extractExperience(text),
		Education:  extractEducation(text),
	}
	for _, kw := range extractKeywords(text, 20) {
		rec.Keywords = append(rec.Keywords, engine.KeywordCount{Word: kw.Word, Count: kw.Count})
	}
	return rec
}

func extractContact(text string) engine.ContactInfo {
	var c engine.ContactInfo

	if m := emailRe.FindString(text); m != "" {
		c.Email = m
	}
	for _, re := range phoneRes {
		if m := strings.TrimSpace(re.FindString(text)); m != "" {
			c.Phone = m
			break
		}
	}
	if m := linkedinRe.FindString(text); m != "" {
		c.LinkedIn = m
	}
	if m := locationRe.FindString(text); m != "" {
		c.Location = m
	}

	// Name heuristic: a short capitalized line near the top that is not a
	// section header and carries no email or phone digits.
	lines := nonEmptyLines(text)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "objective") || strings.Contains(lower, "summary") ||
			strings.Contains(lower, "experience") || strings.Contains(lower, "education") {
			continue
		}
		if strings.Contains(line, "@") || digitsRe.MatchString(line) {
			continue
		}
		if len(strings.Fields(line)) <= 4 && len(line) < 50 && startsUpper(line) {
			c.Name = line
			break
		}
	}
	return c
}

// extractExperience segments the experience section into entries. A new entry
// starts on a line carrying a year or a company suffix; continuation lines
// join the current entry's description. Document order is preserved.
func extractExperience(text string) []engine.ExperienceEntry {
	var entries []engine.ExperienceEntry
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		entries = append(entries, buildExperienceEntry(current))
		current = nil
	}

	started := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !started {
			if experienceHeadRe.MatchString(line) {
				started = true
			}
			continue
		}
		if experienceEndRe.MatchString(line) && !companyLineRe.MatchString(line) {
			break
		}
		if companyLineRe.MatchString(line) {
			flush()
			current = append(current, line)
		} else if len(current) > 0 {
			current = append(current, line)
		}
	}
	flush()

	if len(entries) > maxExperienceEntries {
		entries = entries[:maxExperienceEntries]
	}
	return entries
}

// buildExperienceEntry splits an entry's first line into title/company where
// an obvious separator exists, and pulls a duration out of the whole entry.
func buildExperienceEntry(lines []string) engine.ExperienceEntry {
	head := lines[0]
	full := strings.Join(lines, " ")

	e := engine.ExperienceEntry{Description: full}
	if m := durationRe.FindString(full); m != "" {
		e.Duration = strings.TrimSpace(m)
	}

	headNoDate := strings.TrimSpace(durationRe.ReplaceAllString(head, ""))
	headNoDate = strings.Trim(headNoDate, " ,|-–")
	for _, sep := range []string{" at ", " — ", " | ", ", "} {
		if i := strings.Index(headNoDate, sep); i > 0 {
			e.Title = strings.TrimSpace(headNoDate[:i])
			e.Company = strings.TrimSpace(headNoDate[i+len(sep):])
			return e
		}
	}
	e.Title = headNoDate
	return e
}

func extractEducation(text string) []engine.EducationEntry {
	var entries []engine.EducationEntry
	started := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !started && educationHeadRe.MatchString(line) {
			started = true
			continue
		}
		if started && educationEndRe.MatchString(line) && !degreeRe.MatchString(line) {
			break
		}
		hasDegree := degreeRe.MatchString(line)
		hasInstitution := containsAny(strings.ToLower(line), institutionWords)
		if (started || hasDegree) && (hasDegree || hasInstitution) {
			entries = append(entries, buildEducationEntry(line))
			if len(entries) == maxEducationEntries {
				break
			}
		}
	}
	return entries
}

func buildEducationEntry(line string) engine.EducationEntry {
	e := engine.EducationEntry{}
	if m := degreeRe.FindString(line); m != "" {
		// Expand to the clause around the degree word, up to a separator.
		clause := line
		if i := strings.Index(line, m); i >= 0 {
			rest := line[i:]
			if j := strings.IndexAny(rest, ",|–"); j > 0 {
				clause = strings.TrimSpace(rest[:j])
			} else {
				clause = strings.TrimSpace(rest)
			}
		}
		e.Degree = clause
	}
	lower := strings.ToLower(line)
	for _, w := range institutionWords {
		if i := strings.Index(lower, w); i >= 0 {
			// Walk back to the start of the capitalized phrase naming it.
			start := strings.LastIndexAny(line[:i], ",|–")
			e.Institution = strings.Trim(strings.TrimSpace(line[start+1:i+len(w)]), " ,")
			break
		}
	}
	if m := yearRe.FindAllString(line, -1); len(m) > 0 {
		e.Year = m[len(m)-1]
	}
	return e
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
