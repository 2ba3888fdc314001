package catalog

import (
	"sort"
	"strings"
	"time"
)

// Article is a mock news article.
type Article struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary"`
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// newsCategories keeps a stable category order for the "all" listing.
var newsCategories = []string{"technology", "science", "business"}

var newsTable = map[string][]Article{
	"technology": {
		{"New AI Breakthrough Changes Language Understanding", "Tech Daily", "https://example.com/ai-breakthrough", ts("2023-06-15T18:30:00Z"),
			"Researchers have developed a new approach to natural language understanding that significantly improves performance."},
		{"Quantum Computing Reaches Milestone", "Future Science", "https://example.com/quantum-milestone", ts("2023-06-14T12:45:00Z"),
			"Scientists have achieved a new milestone in quantum computing, demonstrating sustained quantum coherence."},
		{"Tech Giant Announces New Smartphone", "Gadget News", "https://example.com/new-smartphone", ts("2023-06-13T09:15:00Z"),
			"The latest smartphone features revolutionary camera technology and improved battery life."},
	},
	"science": {
		{"Astronomers Discover Earth-like Planet", "Space Journal", "https://example.com/earth-like-planet", ts("2023-06-15T14:20:00Z"),
			"The newly discovered exoplanet has similar characteristics to Earth and is in the habitable zone."},
		{"New Species Found in Deep Ocean", "Marine Biology", "https://example.com/deep-ocean-species", ts("2023-06-12T11:30:00Z"),
			"Researchers have discovered several previously unknown species during a deep-sea expedition."},
	},
	"business": {
		{"Global Markets Reach Record Highs", "Financial Times", "https://example.com/market-highs", ts("2023-06-15T16:45:00Z"),
			"Stock markets around the world have reached new record highs amid positive economic data."},
		{"New Startup Secures $50M Funding", "Venture Capital News", "https://example.com/startup-funding", ts("2023-06-14T10:15:00Z"),
			"The AI-driven healthcare startup has secured Series B funding to expand operations."},
	},
}

func allArticles() []Article {
	var out []Article
	for _, c := range newsCategories {
		out = append(out, newsTable[c]...)
	}
	return out
}

// LatestNews returns up to limit articles, newest first. An empty or unknown
// category lists every category; the returned label is "all" in that case.
func (c *Catalog) LatestNews(category string, limit int) (string, []Article) {
	articles, ok := newsTable[category]
	label := category
	if ok {
		articles = append([]Article(nil), articles...)
	} else {
		articles = allArticles()
		if label == "" {
			label = "all"
		}
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if limit >= 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return label, articles
}

// SearchNews matches query against titles and summaries case-insensitively.
// It returns the limited page and the total number of matches.
func (c *Catalog) SearchNews(query string, limit int) ([]Article, int) {
	needle := strings.ToLower(query)
	var matches []Article
	for _, a := range allArticles() {
		if strings.Contains(strings.ToLower(a.Title), needle) || strings.Contains(strings.ToLower(a.Summary), needle) {
			matches = append(matches, a)
		}
	}
	total := len(matches)
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []Article{}
	}
	return matches, total
}
