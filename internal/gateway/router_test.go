package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nightapi/nightapi/internal/auth"
	"github.com/nightapi/nightapi/internal/catalog"
	"github.com/nightapi/nightapi/internal/metrics"
	"github.com/nightapi/nightapi/internal/provider"
	"github.com/nightapi/nightapi/internal/store/memory"
)

type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, message string) (string, error) {
	return "echo: " + message, nil
}

type demoSearch struct{}

func (demoSearch) Search(_ context.Context, query string) (provider.SearchPage, error) {
	return provider.SearchPage{
		Screenshot: provider.ScreenshotURL(query),
		Results:    provider.DemoResults(query),
		Note:       provider.DemoSearchNote,
	}, nil
}

type RouterTestSuite struct {
	suite.Suite
	store    *memory.Store
	recorder *metrics.PrometheusRecorder
	server   *httptest.Server
	e        *httpexpect.Expect
}

func (suite *RouterTestSuite) SetupTest() {
	tokens, err := auth.NewJWTManager("router-test-secret", time.Hour)
	require.NoError(suite.T(), err)

	suite.store = memory.New()
	suite.recorder = metrics.NewPrometheus()

	router := NewRouter(Deps{
		Settings: Settings{
			BaseURL:           "https://night.example",
			IsDevelopment:     true,
			RateLimitEnabled:  true,
			DefaultDailyLimit: 2,
			RedirectRPS:       100,
			TempDir:           suite.T().TempDir(),
		},
		Stores: Stores{
			Identity: suite.store,
			Links:    suite.store,
			Ledger:   suite.store,
			Content:  suite.store,
		},
		Collaborators: Collaborators{
			Completer: echoCompleter{},
			Search:    demoSearch{},
			Demo:      catalog.New(),
			Tokens:    tokens,
		},
		Metrics:        suite.recorder,
		MetricsHandler: suite.recorder.Handler(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(suite.server.Close)
	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *RouterTestSuite) register(username string) string {
	return suite.e.POST("/api/auth/register").
		WithJSON(map[string]string{"username": username, "password": "supersecret"}).
		Expect().
		Status(http.StatusCreated).
		JSON().Object().
		Value("api_key").String().Raw()
}

func (suite *RouterTestSuite) TestAmbientRoutes() {
	suite.Run("info", func() {
		suite.e.GET("/").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("name", "NightAPI")
	})

	suite.Run("health", func() {
		suite.e.GET("/healthz").Expect().Status(http.StatusOK)
		suite.e.GET("/readyz").Expect().Status(http.StatusOK)
	})

	suite.Run("request id echoed", func() {
		suite.e.GET("/healthz").
			WithHeader("X-Request-ID", "req-123").
			Expect().
			Header("X-Request-ID").IsEqual("req-123")
	})

	suite.Run("metrics", func() {
		suite.e.GET("/api/languages").Expect().Status(http.StatusOK)
		suite.e.GET("/metrics").
			Expect().
			Status(http.StatusOK).
			Body().Contains("nightapi_requests_total")
	})
}

func (suite *RouterTestSuite) TestUnmatchedRoutes() {
	suite.Run("unknown path", func() {
		suite.e.GET("/nowhere").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "NotFound")
	})

	suite.Run("unknown api path", func() {
		suite.e.GET("/api/nowhere").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().
			HasValue("error", "NotFound")
	})

	suite.Run("wrong method", func() {
		suite.e.DELETE("/api/jokes/random").
			Expect().
			Status(http.StatusMethodNotAllowed).
			JSON().Object().
			HasValue("error", "MethodNotAllowed")
	})
}

func (suite *RouterTestSuite) TestGeminiRouteParam() {
	suite.e.GET("/api/gemini/{message}", "good night").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("message", "echo: good night").
		HasValue("model", provider.GeminiModel)
}

func (suite *RouterTestSuite) TestCurrencyConvert() {
	obj := suite.e.GET("/api/currency/convert").
		WithQuery("from", "USD").
		WithQuery("to", "EUR").
		WithQuery("amount", 100).
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	obj.HasValue("result", 91.25)
	obj.HasValue("rate", 0.9125)
}

func (suite *RouterTestSuite) TestDemoSearchNote() {
	suite.e.GET("/api/google").
		WithQuery("query", "night sky photography").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("note", provider.DemoSearchNote).
		Value("results").Array().NotEmpty()
}

func (suite *RouterTestSuite) TestDailyQuota() {
	key := suite.register("quota-user")

	for i := 0; i < 2; i++ {
		suite.e.GET("/api/jokes/random").
			WithHeader("X-API-Key", key).
			Expect().
			Status(http.StatusOK).
			Header("X-RateLimit-Limit").IsEqual("2")
	}

	resp := suite.e.GET("/api/jokes/random").
		WithHeader("X-API-Key", key).
		Expect().
		Status(http.StatusTooManyRequests)
	resp.Header("Retry-After").NotEmpty()
	resp.JSON().Object().HasValue("error", "RateLimited")

	var attributed int
	for _, entry := range suite.store.Entries() {
		if entry.HasUser() {
			attributed++
			suite.Equal(http.StatusOK, entry.StatusCode)
		}
	}
	suite.Equal(2, attributed, "rejected requests are not recorded")
}

func (suite *RouterTestSuite) TestUnknownKeyFailsOpen() {
	suite.e.GET("/api/jokes/random").
		WithHeader("X-API-Key", "ffffffffffffffffffffffffffffffff").
		Expect().
		Status(http.StatusOK)

	entries := suite.store.Entries()
	require.NotEmpty(suite.T(), entries)
	last := entries[len(entries)-1]
	suite.False(last.HasUser())
	suite.Equal("/api/jokes/random", last.Endpoint)
}

func (suite *RouterTestSuite) TestUsageReport() {
	suite.e.GET("/api/usage").
		Expect().
		Status(http.StatusUnauthorized)

	key := suite.register("usage-user")
	suite.e.GET("/api/languages").WithHeader("X-API-Key", key).Expect().Status(http.StatusOK)

	obj := suite.e.GET("/api/usage").
		WithHeader("X-API-Key", key).
		Expect().
		Status(http.StatusOK).
		JSON().Object()

	obj.HasValue("count", 1)
	obj.HasValue("limit", 2)
	obj.HasValue("remaining", 1)
	obj.Value("by_endpoint").Object().HasValue("/api/languages", 1)
}

func (suite *RouterTestSuite) TestShortenAndRedirect() {
	obj := suite.e.GET("/api/url/shorten").
		WithQuery("url", "https://example.com/night").
		WithQuery("customCode", "night-sky").
		Expect().
		Status(http.StatusOK).
		JSON().Object()
	obj.HasValue("short_url", "https://night.example/s/night-sky")
	obj.HasValue("clicks", 0)

	suite.e.GET("/s/night-sky").
		WithRedirectPolicy(httpexpect.DontFollowRedirects).
		Expect().
		Status(http.StatusFound).
		Header("Location").IsEqual("https://example.com/night")

	suite.e.GET("/api/url/info").
		WithQuery("code", "night-sky").
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("clicks", 1)

	suite.e.GET("/s/unknown").
		WithRedirectPolicy(httpexpect.DontFollowRedirects).
		Expect().
		Status(http.StatusNotFound).
		JSON().Object().
		HasValue("error", "NotFound")
}

func (suite *RouterTestSuite) TestAuthFlow() {
	suite.register("night-owl")

	token := suite.e.POST("/api/auth/login").
		WithJSON(map[string]string{"username": "night-owl", "password": "supersecret"}).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		Value("token").String().Raw()

	suite.e.GET("/api/auth/validate").
		WithHeader("Authorization", "Bearer "+token).
		Expect().
		Status(http.StatusOK).
		JSON().Object().
		HasValue("valid", true).
		HasValue("username", "night-owl")

	suite.e.POST("/api/auth/register").
		WithJSON(map[string]string{"username": "night-owl", "password": "supersecret"}).
		Expect().
		Status(http.StatusBadRequest).
		JSON().Object().
		HasValue("message", "Username already exists")
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
