package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/nightapi/nightapi/internal/metrics"
)

const (
	alyachanBaseURL = "https://api.alyachan.dev"
	alyachanKey     = "Gata-Dios"
	majhccBaseURL   = "https://api-v1.majhcc.com"
	serpAPIBaseURL  = "https://serpapi.com"

	// DemoSearchNote accompanies results served from the built-in table.
	DemoSearchNote = "Using demo results. Configure SERPAPI_KEY for real search results."
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SearchPage is the outcome of a web search, whichever upstream served it.
type SearchPage struct {
	Screenshot string
	Results    []SearchResult
	Note       string
}

// ScreenshotURL returns a full-page capture URL of the Google results page.
func ScreenshotURL(query string) string {
	return "https://image.thum.io/get/fullpage/https://google.com/search?q=" + escapeComponent(query)
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Alyachan is the primary search upstream.
type Alyachan struct {
	client *Client
}

// NewAlyachan creates the primary search client.
func NewAlyachan(opts ...Option) *Alyachan {
	return &Alyachan{client: newClient("alyachan", alyachanBaseURL, opts...)}
}

// Search queries the upstream.
func (a *Alyachan) Search(ctx context.Context, query string) (SearchPage, error) {
	var resp struct {
		Status bool `json:"status"`
		Data   []struct {
			Title        string `json:"title"`
			URL          string `json:"url"`
			FormattedURL string `json:"formattedUrl"`
			Snippet      string `json:"snippet"`
			Description  string `json:"description"`
		} `json:"data"`
	}
	endpoint := a.client.endpoint("/api/google", url.Values{"q": {query}, "apikey": {alyachanKey}})
	if err := a.client.getJSON(ctx, endpoint, &resp); err != nil {
		return SearchPage{}, err
	}
	if !resp.Status || len(resp.Data) == 0 {
		return SearchPage{}, ErrNoResults
	}

	results := make([]SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		results = append(results, SearchResult{
			Title:       d.Title,
			URL:         firstNonEmpty(d.FormattedURL, d.URL),
			Description: firstNonEmpty(d.Snippet, d.Description),
		})
	}
	return SearchPage{Screenshot: ScreenshotURL(query), Results: results}, nil
}

// Majhcc is the secondary search upstream.
type Majhcc struct {
	client *Client
}

// NewMajhcc creates the secondary search client.
func NewMajhcc(opts ...Option) *Majhcc {
	return &Majhcc{client: newClient("majhcc", majhccBaseURL, opts...)}
}

// Search queries the upstream.
func (m *Majhcc) Search(ctx context.Context, query string) (SearchPage, error) {
	var resp struct {
		Results []struct {
			Title       string `json:"title"`
			Link        string `json:"link"`
			Description string `json:"description"`
		} `json:"results"`
	}
	if err := m.client.getJSON(ctx, m.client.endpoint("/api/google", url.Values{"q": {query}}), &resp); err != nil {
		return SearchPage{}, err
	}
	if len(resp.Results) == 0 {
		return SearchPage{}, ErrNoResults
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.Link, Description: r.Description})
	}
	return SearchPage{Screenshot: ScreenshotURL(query), Results: results}, nil
}

// SerpAPI is the keyed search upstream.
type SerpAPI struct {
	client *Client
	apiKey string
}

// NewSerpAPI creates a SerpAPI client.
func NewSerpAPI(apiKey string, opts ...Option) *SerpAPI {
	return &SerpAPI{client: newClient("serpapi", serpAPIBaseURL, opts...), apiKey: apiKey}
}

// Search queries the upstream.
func (s *SerpAPI) Search(ctx context.Context, query string) (SearchPage, error) {
	var resp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
		SearchMetadata struct {
			GoogleURL string `json:"google_url"`
		} `json:"search_metadata"`
	}
	endpoint := s.client.endpoint("/search.json", url.Values{"q": {query}, "api_key": {s.apiKey}})
	if err := s.client.getJSON(ctx, endpoint, &resp); err != nil {
		return SearchPage{}, err
	}
	if len(resp.OrganicResults) == 0 {
		return SearchPage{}, ErrNoResults
	}

	results := make([]SearchResult, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		results = append(results, SearchResult{Title: r.Title, URL: r.Link, Description: r.Snippet})
	}
	screenshot := resp.SearchMetadata.GoogleURL
	if screenshot == "" {
		screenshot = "https://google.com/search?q=" + escapeComponent(query)
	}
	return SearchPage{Screenshot: screenshot, Results: results}, nil
}

// Searcher is one web search upstream.
type Searcher interface {
	Search(ctx context.Context, query string) (SearchPage, error)
}

// WebSearch runs the search fallback chain. The last step always succeeds
// with built-in demo results.
type WebSearch struct {
	upstreams []namedSearcher
	metrics   metrics.Recorder
	logger    *slog.Logger
}

type namedSearcher struct {
	name string
	s    Searcher
}

// NewWebSearch builds the chain alyachan, majhcc, then serpapi when a key is
// configured.
func NewWebSearch(serpAPIKey string, recorder metrics.Recorder, logger *slog.Logger, opts ...Option) *WebSearch {
	ws := &WebSearch{metrics: recorder, logger: logger}
	ws.Add("alyachan", NewAlyachan(opts...))
	ws.Add("majhcc", NewMajhcc(opts...))
	if serpAPIKey != "" {
		ws.Add("serpapi", NewSerpAPI(serpAPIKey, opts...))
	}
	return ws
}

// Add appends an upstream to the chain.
func (ws *WebSearch) Add(name string, s Searcher) {
	ws.upstreams = append(ws.upstreams, namedSearcher{name: name, s: s})
}

// Search returns the first upstream's results, or demo results with a note.
func (ws *WebSearch) Search(ctx context.Context, query string) (SearchPage, error) {
	steps := make([]Step[SearchPage], 0, len(ws.upstreams)+1)
	for _, u := range ws.upstreams {
		s := u.s
		steps = append(steps, Step[SearchPage]{
			Name: u.name,
			Call: func(ctx context.Context) (SearchPage, error) { return s.Search(ctx, query) },
		})
	}
	steps = append(steps, Step[SearchPage]{
		Name: "demo",
		Call: func(context.Context) (SearchPage, error) {
			return SearchPage{
				Screenshot: ScreenshotURL(query),
				Results:    DemoResults(query),
				Note:       DemoSearchNote,
			}, nil
		},
	})

	page, _, err := NewChain("web_search", ws.metrics, ws.logger, steps...).Run(ctx)
	return page, err
}

var demoKeywords = []string{"night sky photography", "programación javascript", "recetas de cocina"}

var demoResults = map[string][]SearchResult{
	"night sky photography": {
		{Title: "Astrofotografía: Guía para fotografiar el cielo nocturno", URL: "https://www.photopills.com/es/articulos/guia-fotografia-cielo-nocturno", Description: "Descubre cómo capturar impresionantes fotografías del cielo nocturno con consejos de expertos, configuraciones de cámara y técnicas de postprocesado."},
		{Title: "Las mejores cámaras para fotografía nocturna 2023", URL: "https://www.digitalcameraworld.com/best-cameras-for-astrophotography", Description: "Comparativa de las cámaras más adecuadas para astrofotografía, desde opciones para principiantes hasta modelos profesionales."},
		{Title: "Cómo fotografiar la Vía Láctea: guía completa", URL: "https://petapixel.com/how-to-photograph-the-milky-way", Description: "Tutorial paso a paso para capturar espectaculares imágenes de la Vía Láctea, incluyendo planificación, equipo necesario y técnicas de composición."},
	},
	"programación javascript": {
		{Title: "MDN Web Docs: JavaScript", URL: "https://developer.mozilla.org/es/docs/Web/JavaScript", Description: "Documentación completa sobre el lenguaje JavaScript, con tutoriales, referencias y ejemplos prácticos."},
		{Title: "JavaScript.info - El lenguaje JavaScript moderno", URL: "https://es.javascript.info/", Description: "Tutorial desde principiante hasta avanzado sobre JavaScript moderno, con explicaciones detalladas y ejercicios prácticos."},
		{Title: "FreeCodeCamp: Curso de JavaScript", URL: "https://www.freecodecamp.org/espanol/learn/javascript-algorithms-and-data-structures/", Description: "Curso gratuito y certificado de JavaScript que cubre algoritmos, estructuras de datos y programación funcional."},
	},
	"recetas de cocina": {
		{Title: "Recetas fáciles para principiantes", URL: "https://www.recetasgratis.net/recetas-faciles-1.html", Description: "Colección de recetas sencillas ideales para quienes se inician en la cocina, con paso a paso detallados."},
		{Title: "Recetas internacionales - Directo al Paladar", URL: "https://www.directoalpaladar.com/categoria/cocina-internacional", Description: "Las mejores recetas de la gastronomía mundial adaptadas para cocinar en casa."},
		{Title: "Recetas saludables para toda la semana", URL: "https://www.deliciousmagazine.co.uk/collections/healthy-recipes/", Description: "Planifica tus comidas semanales con estas opciones nutritivas y llenas de sabor, perfectas para un estilo de vida saludable."},
	},
}

// DemoResults returns the built-in results whose keyword overlaps query,
// or the first keyword's results.
func DemoResults(query string) []SearchResult {
	q := strings.ToLower(query)
	for _, kw := range demoKeywords {
		if strings.Contains(q, kw) || strings.Contains(kw, q) {
			return demoResults[kw]
		}
	}
	return demoResults[demoKeywords[0]]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
