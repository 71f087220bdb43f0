package engine

import (
	"fmt"
	"time"
)

// --- Resume types ---

// RawDocument is an uploaded resume before text extraction.
// It lives for one request and is discarded once text is extracted.
type RawDocument struct {
	Filename string
	Data     []byte
}

// ContactInfo holds whatever contact details the extractor could find.
// Any subset of fields may be empty.
type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Location string `json:"location,omitempty"`
}

// ExperienceEntry is one position from the experience section, in document order.
type ExperienceEntry struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description"`
}

// EducationEntry is one entry from the education section.
type EducationEntry struct {
	Degree      string `json:"degree,omitempty"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
}

// ResumeRecord is the structured output of resume parsing.
// Skills are canonical-cased, de-duplicated and sorted; experience entries
// keep document order (assumed reverse-chronological).
type ResumeRecord struct {
	Contact    ContactInfo       `json:"contact_info"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Keywords   []KeywordCount    `json:"keywords"`
}

// KeywordCount is a resume keyword with its occurrence count.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// FieldAffinity scores how well a resume matches one career field.
type FieldAffinity struct {
	Field         string   `json:"field"`
	Score         float64  `json:"score"` // [0,1]
	MatchedSkills []string `json:"matched_skills"`
}

// --- Job types ---

// Experience levels recognized by search filters and level inference.
const (
	LevelEntry     = "entry"
	LevelJunior    = "junior"
	LevelMid       = "mid"
	LevelSenior    = "senior"
	LevelExecutive = "executive"
)

// Location types.
const (
	LocationRemote = "remote"
	LocationOnsite = "onsite"
	LocationHybrid = "hybrid"
)

// JobListing is the common shape every provider adapter normalizes into.
type JobListing struct {
	ID              string    `json:"id"` // provider-qualified: "<provider>/<native id>"
	NativeID        string    `json:"-"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	LocationType    string    `json:"location_type"` // remote|onsite|hybrid
	ExperienceLevel string    `json:"experience_level"`
	Department      string    `json:"department,omitempty"`
	PostedAt        time.Time `json:"posted_at,omitzero"`
	Description     string    `json:"description,omitempty"`
	ApplyURL        string    `json:"apply_url"`
	Provider        string    `json:"provider"`
	MatchScore      float64   `json:"match_score"`
	MatchedSkills   []string  `json:"matched_skills,omitempty"`
	MissingSkills   []string  `json:"missing_skills,omitempty"`
}

// QualifiedID builds the globally unique listing id from provider + native id.
func QualifiedID(provider, nativeID string) string {
	return provider + "/" + nativeID
}

// SearchFilters narrows a job search. A zero field imposes no constraint.
type SearchFilters struct {
	ExperienceLevel string    `json:"experience_level,omitempty"`
	LocationType    string    `json:"location_type,omitempty"`
	PostedAfter     time.Time `json:"posted_after,omitzero"`
	MinMatchScore   float64   `json:"min_match_score,omitempty"`
}

// Matches reports whether a listing passes every set filter (AND semantics).
func (f SearchFilters) Matches(j JobListing) bool {
	if f.ExperienceLevel != "" && j.ExperienceLevel != f.ExperienceLevel {
		return false
	}
	if f.LocationType != "" && j.LocationType != f.LocationType {
		return false
	}
	if !f.PostedAfter.IsZero() && (j.PostedAt.IsZero() || j.PostedAt.Before(f.PostedAfter)) {
		return false
	}
	if f.MinMatchScore > 0 && j.MatchScore < f.MinMatchScore {
		return false
	}
	return true
}

// Key is a stable cache-key fragment for the filter combination.
func (f SearchFilters) Key() string {
	after := ""
	if !f.PostedAfter.IsZero() {
		after = f.PostedAfter.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%.2f", f.ExperienceLevel, f.LocationType, after, f.MinMatchScore)
}

// --- Application types ---

// ApplicationStatus is the lifecycle status of a saved listing.
// The engine only ever writes the initial "saved" record; everything after
// that belongs to the store's consumer.
type ApplicationStatus string

const (
	StatusSaved      ApplicationStatus = "saved"
	StatusApplied    ApplicationStatus = "applied"
	StatusInProgress ApplicationStatus = "in_progress"
	StatusRejected   ApplicationStatus = "rejected"
)
