package resume

import (
	"sort"
	"strings"

	"resumescout/internal/engine"
)

// FieldProfile describes what a career field typically asks for. Affinity is
// scored against these reference lists: 60% weight on skill overlap, 40% on
// keyword overlap, plus a flat bonus when the field is named in the
// candidate's own experience text.
type FieldProfile struct {
	Name     string
	Skills   []string
	Keywords []string
}

const (
	skillWeight      = 0.6
	keywordWeight    = 0.4
	experienceBonus  = 0.10
	maxAffinityScore = 1.0
)

var fieldProfiles = []FieldProfile{
	{
		Name:     "Software Engineer",
		Skills:   []string{"Python", "Java", "JavaScript", "Git", "SQL", "REST", "Agile", "C++", "Docker", "Linux"},
		Keywords: []string{"software", "development", "engineering", "code", "programming", "debugging", "testing", "api"},
	},
	{
		Name:     "Data Scientist",
		Skills:   []string{"Python", "R", "SQL", "TensorFlow", "PyTorch", "Pandas", "NumPy", "Scikit-learn", "Tableau", "Spark"},
		Keywords: []string{"data", "analysis", "machine", "learning", "statistics", "model", "prediction", "visualization"},
	},
	{
		Name:     "Data Engineer",
		Skills:   []string{"Python", "SQL", "Spark", "Kafka", "Airflow", "Hadoop", "AWS", "ETL", "Snowflake", "PostgreSQL"},
		Keywords: []string{"data", "pipeline", "etl", "warehouse", "streaming", "batch", "ingestion", "processing"},
	},
	{
		Name:     "DevOps Engineer",
		Skills:   []string{"Docker", "Kubernetes", "Jenkins", "Terraform", "Ansible", "AWS", "Linux", "Git", "CI/CD", "Prometheus"},
		Keywords: []string{"infrastructure", "deployment", "automation", "monitoring", "pipeline", "cloud", "reliability", "operations"},
	},
	{
		Name:     "Cloud Architect",
		Skills:   []string{"AWS", "Azure", "GCP", "Terraform", "Kubernetes", "Docker", "Networking", "Security", "Lambda", "CloudFormation"},
		Keywords: []string{"cloud", "architecture", "migration", "scalability", "infrastructure", "design", "security", "cost"},
	},
	{
		Name:     "Full Stack Developer",
		Skills:   []string{"JavaScript", "React", "Node.js", "HTML", "CSS", "SQL", "MongoDB", "Express", "TypeScript", "REST"},
		Keywords: []string{"frontend", "backend", "web", "application", "development", "responsive", "api", "database"},
	},
	{
		Name:     "Mobile Developer",
		Skills:   []string{"Swift", "Kotlin", "React Native", "Flutter", "Java", "iOS", "Android", "Xcode", "Firebase", "REST"},
		Keywords: []string{"mobile", "ios", "android", "app", "application", "ui", "release", "store"},
	},
	{
		Name:     "Machine Learning Engineer",
		Skills:   []string{"Python", "TensorFlow", "PyTorch", "Scikit-learn", "Docker", "Kubernetes", "AWS", "SQL", "Spark", "MLflow"},
		Keywords: []string{"machine", "learning", "model", "training", "deployment", "inference", "pipeline", "optimization"},
	},
	{
		Name:     "Business Analyst",
		Skills:   []string{"SQL", "Excel", "Tableau", "Power BI", "JIRA", "Agile", "Python", "Confluence", "Visio", "SAP"},
		Keywords: []string{"business", "requirements", "analysis", "stakeholder", "process", "reporting", "documentation", "metrics"},
	},
	{
		Name:     "QA Engineer",
		Skills:   []string{"Selenium", "Cypress", "JIRA", "Python", "Java", "Postman", "Jenkins", "TestNG", "SQL", "Appium"},
		Keywords: []string{"testing", "quality", "automation", "test", "regression", "defect", "qa", "coverage"},
	},
}

// FieldNames returns the career fields affinity scoring knows about, in
// profile order.
func FieldNames() []string {
	names := make([]string, len(fieldProfiles))
	for i, p := range fieldProfiles {
		names[i] = p.Name
	}
	return names
}

// ScoreFields ranks every known career field against a parsed resume. Every
// field always appears in the result, zero-scored fields included, sorted by
// score descending with field name as the tie break.
func ScoreFields(rec engine.ResumeRecord) []engine.FieldAffinity {
	candidateSkills := make(map[string]bool, len(rec.Skills))
	for _, s := range rec.Skills {
		candidateSkills[strings.ToLower(s)] = true
	}
	candidateKeywords := make(map[string]bool, len(rec.Keywords))
	for _, kw := range rec.Keywords {
		candidateKeywords[strings.ToLower(kw.Word)] = true
	}
	var expText strings.Builder
	for _, e := range rec.Experience {
		expText.WriteString(strings.ToLower(e.Title))
		expText.WriteString(" ")
		expText.WriteString(strings.ToLower(e.Description))
		expText.WriteString(" ")
	}
	experience := expText.String()

	out := make([]engine.FieldAffinity, 0, len(fieldProfiles))
	for _, p := range fieldProfiles {
		var matched []string
		for _, s := range p.Skills {
			if candidateSkills[strings.ToLower(s)] {
				matched = append(matched, s)
			}
		}
		kwHits := 0
		for _, k := range p.Keywords {
			if candidateKeywords[strings.ToLower(k)] {
				kwHits++
			}
		}

		score := skillWeight*float64(len(matched))/float64(len(p.Skills)) +
			keywordWeight*float64(kwHits)/float64(len(p.Keywords))
		if strings.Contains(experience, strings.ToLower(p.Name)) {
			score += experienceBonus
		}
		if score > maxAffinityScore {
			score = maxAffinityScore
		}

		out = append(out, engine.FieldAffinity{
			Field:         p.Name,
			Score:         score,
			MatchedSkills: matched,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// ScoreListing rates one job listing against a candidate's skills. The
// listing's wanted skills are inferred from its visible text; the score is
// the matched fraction of those, in [0, 1]. Listings that name no known
// skills score zero with nothing missing.
func ScoreListing(candidateSkills []string, listingText string) (float64, []string, []string) {
	wanted := MatchSkills(listingText)
	if len(wanted) == 0 {
		return 0, nil, nil
	}
	have := make(map[string]bool, len(candidateSkills))
	for _, s := range candidateSkills {
		have[strings.ToLower(s)] = true
	}
	var matched, missing []string
	for _, s := range wanted {
		if have[strings.ToLower(s)] {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return float64(len(matched)) / float64(len(wanted)), matched, missing
}
