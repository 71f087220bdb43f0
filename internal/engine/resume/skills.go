package resume

import (
	"sort"
	"strings"
	"unicode"
)

// Vocabulary is the curated skill list used for resume extraction and for
// inferring required skills from job descriptions. Grouped by category for
// maintainability; matching is flat.
var Vocabulary = map[string][]string{
	"programming_languages": {
		"Python", "JavaScript", "Java", "C++", "C#", "PHP", "Ruby", "Go", "Swift", "Kotlin",
		"TypeScript", "Scala", "R", "MATLAB", "Perl", "Rust", "Dart", "Objective-C", "C",
		"VB.NET", "F#", "Haskell", "Clojure", "Erlang", "Elixir", "Lua", "Shell", "Bash",
	},
	"web_technologies": {
		"React", "Angular", "Vue.js", "Node.js", "Express.js", "Django", "Flask", "Spring",
		"ASP.NET", "Laravel", "Ruby on Rails", "jQuery", "Bootstrap", "Tailwind CSS",
		"HTML5", "CSS3", "SASS", "LESS", "Webpack", "Vite", "Next.js", "Nuxt.js",
		"Svelte", "Ember.js", "Backbone.js", "Redux", "MobX", "GraphQL", "REST API",
	},
	"databases": {
		"MySQL", "PostgreSQL", "MongoDB", "SQLite", "Redis", "Oracle", "SQL Server",
		"Cassandra", "DynamoDB", "Firebase", "Elasticsearch", "Neo4j", "CouchDB",
		"MariaDB", "SQL",
	},
	"cloud_platforms": {
		"AWS", "Azure", "Google Cloud Platform", "GCP", "Digital Ocean", "Heroku",
		"Vercel", "Netlify", "Supabase", "Railway",
	},
	"devops_tools": {
		"Docker", "Kubernetes", "Jenkins", "Git", "GitHub", "GitLab", "Bitbucket",
		"CI/CD", "Terraform", "Ansible", "Chef", "Puppet", "Nginx", "Apache",
		"Linux", "Ubuntu", "Vagrant", "CircleCI", "Travis CI", "Prometheus", "Grafana",
	},
	"data_science_ml": {
		"Machine Learning", "Deep Learning", "TensorFlow", "PyTorch", "Scikit-learn",
		"Pandas", "NumPy", "Matplotlib", "Seaborn", "Jupyter", "Tableau", "Power BI",
		"Apache Spark", "Hadoop", "Kafka", "Airflow", "MLflow", "Kubeflow",
		"OpenCV", "NLTK", "spaCy", "Computer Vision", "NLP", "Statistics", "ETL",
	},
	"soft_skills": {
		"Leadership", "Team Management", "Communication", "Problem Solving",
		"Critical Thinking", "Creativity", "Adaptability", "Time Management",
		"Strategic Planning", "Negotiation", "Mentoring",
	},
}

// roleWords are generic role/seniority words counted as resume keywords in
// addition to vocabulary skills. Only words longer than 3 chars count.
var roleWords = map[string]bool{
	"experienced": true, "certified": true, "expert": true, "specialist": true,
	"manager": true, "developer": true, "engineer": true, "architect": true,
	"analyst": true, "consultant": true, "lead": true, "senior": true,
	"junior": true, "professional": true, "agile": true, "scrum": true,
	"project": true, "team": true, "client": true, "business": true,
	"technical": true, "solution": true, "implementation": true,
	"development": true, "design": true, "analysis": true,
}

// flat vocabulary, longest name first so overlapping entries resolve to the
// longest match ("JavaScript" before "Java"), then lexical for determinism.
var allSkills = func() []string {
	var out []string
	for _, skills := range Vocabulary {
		out = append(out, skills...)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// canonical maps lowercase skill → vocabulary casing.
var canonical = func() map[string]string {
	m := make(map[string]string, len(allSkills))
	for _, s := range allSkills {
		m[strings.ToLower(s)] = s
	}
	return m
}()

// tokenize splits text into lowercase tokens, treating + # . - as word chars
// so "c++", "c#", "node.js" and "scikit-learn" survive intact. Trailing dots
// are trimmed ("node.js." at sentence end → "node.js").
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// MatchSkills returns the vocabulary skills present in text, in canonical
// casing, de-duplicated and sorted. Matching is token-bounded so "Java"
// never fires inside "JavaScript"; when entries overlap the longest wins.
func MatchSkills(text string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	haystack := " " + strings.Join(tokens, " ") + " "

	var found []string
	for _, skill := range allSkills {
		needle := " " + strings.Join(tokenize(skill), " ") + " "
		if strings.Contains(haystack, needle) {
			found = append(found, skill)
		}
	}
	sort.Strings(found)
	return found
}

// extractKeywords counts vocabulary skills and role words in text and
// returns the top n by frequency. Ties break lexically so identical input
// always produces identical output.
func extractKeywords(text string, n int) []keywordCount {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		if roleWords[tok] && len(tok) > 3 {
			counts[tok]++
		} else if _, ok := canonical[tok]; ok {
			counts[tok]++
		}
	}

	out := make([]keywordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, keywordCount{Word: titleWord(w), Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type keywordCount struct {
	Word  string
	Count int
}

// titleWord uppercases the first letter ("python" → "Python").
func titleWord(w string) string {
	if canon, ok := canonical[w]; ok {
		return canon
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
