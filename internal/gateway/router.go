// Package gateway assembles the HTTP route table and middleware pipeline.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/cache"
	"github.com/nightapi/nightapi/internal/catalog"
	"github.com/nightapi/nightapi/internal/handler"
	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/middleware"
	"github.com/nightapi/nightapi/internal/provider"
	"github.com/nightapi/nightapi/internal/shortlink"
	"github.com/nightapi/nightapi/internal/store"
)

// Settings are the tunables the router reads from configuration.
type Settings struct {
	BaseURL            string
	IsDevelopment      bool
	RateLimitEnabled   bool
	DefaultDailyLimit  int
	RedirectRPS        int
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	TempDir            string
	TracingEnabled     bool
}

// Stores are the persistence backends.
type Stores struct {
	Identity store.Identity
	Links    store.Links
	Ledger   store.Ledger
	Content  store.Catalog
	// DB and Cache are probed by /readyz; nil means not configured.
	DB    store.Pinger
	Cache store.Pinger
	// RedirectCache shares the redirect throttle across replicas.
	RedirectCache *cache.Cache
}

// Collaborators are the upstream clients and local engines handlers call.
type Collaborators struct {
	Completer  handler.ChatCompleter
	ChatBot    handler.ChatBot
	GIFs       handler.GIFSource
	Search     provider.Searcher
	Stickers   handler.StickerMaker
	Downloader handler.MediaDownloader
	Speaker    handler.Speaker
	Images     handler.ImageGenerator
	Tracks     handler.TrackSource
	Demo       *catalog.Catalog
	Tokens     *auth.JWTManager
}

// Deps bundles everything NewRouter needs.
type Deps struct {
	Settings      Settings
	Stores        Stores
	Collaborators Collaborators
	Metrics       metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// NewRouter builds the gateway route table.
//
// Every /api route runs Identify, then Quota, then Usage before its handler.
// Unmatched paths and wrong methods answer with the error envelope.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := d.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	s := d.Settings
	c := d.Collaborators
	maxBody := s.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodySize
	}

	health := handler.NewHealthHandler(d.Stores.DB, d.Stores.Cache)
	chat := handler.NewChatHandler(c.Completer, c.ChatBot, logger)
	content := handler.NewContentHandler(d.Stores.Content, logger)
	demo := handler.NewDemoHandler(c.Demo, s.BaseURL)
	authH := handler.NewAuthHandler(d.Stores.Identity, c.Tokens, s.DefaultDailyLimit, logger)
	links := handler.NewLinkHandler(shortlink.NewService(d.Stores.Links, recorder, logger), s.BaseURL, logger)
	mediaH := handler.NewMediaHandler(handler.MediaDeps{
		Downloader: c.Downloader,
		Speaker:    c.Speaker,
		Images:     c.Images,
		Tracks:     c.Tracks,
		TempDir:    s.TempDir,
	}, logger)
	gifs := handler.NewGIFHandler(c.GIFs, logger)
	search := handler.NewSearchHandler(c.Search, logger)
	stickers := handler.NewStickerHandler(c.Stickers, s.TempDir, logger)
	usage := handler.NewUsageHandler(d.Stores.Ledger, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger, recorder))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: s.IsDevelopment}))
	r.Use(middleware.CORS(s.CORSAllowedOrigins))
	if s.TracingEnabled {
		r.Use(otelhttp.NewMiddleware("nightapi"))
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Ambient endpoints
	r.Get("/", handler.Info)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.With(middleware.RedirectLimit(middleware.RedirectLimitConfig{
		RequestsPerSecond: s.RedirectRPS,
		Cache:             d.Stores.RedirectCache,
		Metrics:           recorder,
		Logger:            logger,
	})).Get("/s/{code}", links.Redirect)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxBody))
		r.Use(middleware.Identify(d.Stores.Identity, logger))
		r.Use(middleware.Quota(middleware.QuotaConfig{
			Enabled: s.RateLimitEnabled,
			Ledger:  d.Stores.Ledger,
			Metrics: recorder,
			Logger:  logger,
		}))
		r.Use(middleware.Usage(d.Stores.Ledger, recorder, logger))

		r.Get("/gemini", chat.Gemini)
		r.Post("/gemini", chat.Gemini)
		r.Get("/gemini/{message}", chat.Gemini)
		r.Get("/simi", chat.Simi)

		r.Get("/jokes/random", content.RandomJoke)
		r.Get("/quotes/random", content.RandomQuote)

		r.Get("/weather/current", demo.CurrentWeather)
		r.Get("/weather/forecast", demo.Forecast)
		r.Get("/news/latest", demo.LatestNews)
		r.Get("/news/search", demo.SearchNews)
		r.Get("/currency/rates", demo.CurrencyRates)
		r.Get("/currency/convert", demo.ConvertCurrency)
		r.Get("/image/generate", demo.GenerateImage)
		r.Get("/image/resize", demo.ResizeImage)
		r.Get("/location/geocode", demo.Geocode)
		r.Get("/location/reverse", demo.ReverseGeocode)
		r.Get("/translate", demo.Translate)
		r.Get("/languages", demo.Languages)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Get("/validate", authH.Validate)
		})

		r.Get("/url/shorten", links.Shorten)
		r.Get("/url/info", links.Info)

		r.Get("/ytaudio", mediaH.YTAudio)
		r.Get("/ytvideo", mediaH.YTVideo)
		r.Get("/tts", mediaH.TTS)
		r.Get("/dalle", mediaH.Dalle)
		r.Get("/soundcloud/search", mediaH.SoundCloudSearch)
		r.Get("/soundcloud/download", mediaH.SoundCloudDownload)

		r.Get("/gif/search", gifs.Search)
		r.Get("/gif/random", gifs.Random)
		r.Get("/emojimix", gifs.EmojiMix)

		r.Get("/google", search.Google)
		r.Get("/quote-sticker", stickers.QuoteSticker)

		r.Get("/usage", usage.Today)
	})

	return r
}
