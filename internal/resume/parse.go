package resume

import (
	"regexp"
	"sort"
	"strings"
)

// Extracted is what Parse finds in resume text.
type Extracted struct {
	GithubURL    string   `json:"github_url,omitempty"`
	LinkedinURL  string   `json:"linkedin_url,omitempty"`
	Skills       []string `json:"skills"`
	Technologies []string `json:"technologies"`
}

var skillVocabulary = []string{
	"Python", "JavaScript", "TypeScript", "Java", "C++", "C#", "Ruby", "Go", "Rust",
	"PHP", "Swift", "Kotlin", "Scala", "R", "MATLAB", "SQL", "HTML", "CSS",
	"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask", "FastAPI",
	"Spring", "Spring Boot", ".NET", "Rails", "Laravel", "Next.js", "Nuxt.js",
	"Machine Learning", "Deep Learning", "Data Science", "Data Analysis",
	"TensorFlow", "PyTorch", "Keras", "scikit-learn", "Pandas", "NumPy",
	"Docker", "Kubernetes", "AWS", "Azure", "GCP", "Git", "Jenkins", "CI/CD",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Elasticsearch", "GraphQL",
	"REST API", "Microservices", "Agile", "Scrum", "Jira", "Linux", "Bash",
}

var technologyVocabulary = []string{
	"React", "Angular", "Vue.js", "Node.js", "Express.js", "Django", "Flask",
	"FastAPI", "Spring Boot", "Docker", "Kubernetes", "AWS", "Azure", "GCP",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Elasticsearch", "Kafka",
	"RabbitMQ", "Nginx", "Jenkins", "GitHub Actions", "GitLab CI", "Terraform",
	"Ansible", "Prometheus", "Grafana", "TensorFlow", "PyTorch", "Jupyter",
}

type term struct {
	name    string
	pattern *regexp.Regexp
}

// compileTerms builds one case-insensitive matcher per term. A term matches only when
// it is not glued to letters, digits, '+' or '#', so "Java" does not match "JavaScript"
// and "C" would not match "C++".
func compileTerms(names []string) []term {
	const boundary = `[^\pL\pN+#]`
	terms := make([]term, 0, len(names))
	for _, name := range names {
		terms = append(terms, term{
			name:    name,
			pattern: regexp.MustCompile(`(?i)(?:^|` + boundary + `)` + regexp.QuoteMeta(name) + `(?:$|` + boundary + `)`),
		})
	}
	return terms
}

var (
	skillTerms      = compileTerms(skillVocabulary)
	technologyTerms = compileTerms(technologyVocabulary)

	githubURL   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[\w-]+(?:/[\w.-]+)?`)
	linkedinURL = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[\w-]+`)
)

// Parse extracts profile links, skills and technologies from resume text. Skill and
// technology lists are deduplicated and sorted.
func Parse(text string) Extracted {
	return Extracted{
		GithubURL:    findURL(githubURL, text),
		LinkedinURL:  findURL(linkedinURL, text),
		Skills:       findTerms(skillTerms, text),
		Technologies: findTerms(technologyTerms, text),
	}
}

func findURL(re *regexp.Regexp, text string) string {
	match := re.FindString(text)
	if match == "" {
		return ""
	}
	lower := strings.ToLower(match)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		match = "https://" + match
	}
	return match
}

func findTerms(terms []term, text string) []string {
	found := []string{}
	for _, t := range terms {
		if t.pattern.MatchString(text) {
			found = append(found, t.name)
		}
	}
	sort.Strings(found)
	return found
}
