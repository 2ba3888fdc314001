package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/nightapi/nightapi/internal/metrics"
)

func newFake(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func testOpts(srv *httptest.Server, extra ...Option) []Option {
	return append([]Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(rate.Inf, 1),
	}, extra...)
}

func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	rec := metrics.NewInMemory()
	c := newClient("fake", srv.URL, testOpts(srv, WithMetrics(rec))...)

	var out map[string]any
	err := c.getJSON(context.Background(), c.endpoint("/x", nil), &out)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusTooManyRequests || se.Body != "quota exceeded" {
		t.Errorf("StatusError = %+v", se)
	}
	if got := rec.Snapshot().ProviderFailures["fake"]; got != 1 {
		t.Errorf("provider failures = %d, want 1", got)
	}
}

func TestClient_BadJSON(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	c := newClient("fake", srv.URL, testOpts(srv)...)

	var out map[string]any
	err := c.getJSON(context.Background(), c.endpoint("/", nil), &out)
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got %v", err)
	}
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newClient("flaky", srv.URL, testOpts(srv)...)

	for i := 0; i < breakerFailureThreshold; i++ {
		_ = c.getJSON(context.Background(), c.endpoint("/", nil), &struct{}{})
	}
	err := c.getJSON(context.Background(), c.endpoint("/", nil), &struct{}{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
	if got := hits.Load(); got != breakerFailureThreshold {
		t.Errorf("upstream hits = %d, want %d", got, breakerFailureThreshold)
	}
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := newClient("slow", srv.URL, testOpts(srv, WithTimeout(50*time.Millisecond))...)

	start := time.Now()
	err := c.getJSON(context.Background(), c.endpoint("/", nil), &struct{}{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call took %v, want bounded by client timeout", elapsed)
	}
}

func TestClient_DownloadEmptyBody(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newClient("empty", srv.URL, testOpts(srv)...)

	var buf bytes.Buffer
	_, err := c.download(context.Background(), srv.URL, &buf)
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got %v", err)
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fail := func(context.Context) (string, error) { return "", boom }
	ok := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return v, nil }
	}

	tests := []struct {
		name      string
		steps     []Step[string]
		wantValue string
		wantStep  string
		wantErr   bool
	}{
		{
			name:      "first succeeds",
			steps:     []Step[string]{{Name: "a", Call: ok("A")}, {Name: "b", Call: ok("B")}},
			wantValue: "A",
			wantStep:  "a",
		},
		{
			name:      "falls through",
			steps:     []Step[string]{{Name: "a", Call: fail}, {Name: "b", Call: ok("B")}},
			wantValue: "B",
			wantStep:  "b",
		},
		{
			name:      "nil steps skipped",
			steps:     []Step[string]{{Name: "a", Call: nil}, {Name: "b", Call: ok("B")}},
			wantValue: "B",
			wantStep:  "b",
		},
		{
			name:    "exhausted",
			steps:   []Step[string]{{Name: "a", Call: fail}, {Name: "b", Call: fail}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := metrics.NewInMemory()
			got, step, err := NewChain("test", rec, nil, tt.steps...).Run(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrExhausted) || !errors.Is(err, boom) {
					t.Errorf("expected ErrExhausted wrapping boom, got %v", err)
				}
				if rec.Snapshot().FallbacksExhausted["test"] != 1 {
					t.Error("exhaustion should be recorded")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantValue || step != tt.wantStep {
				t.Errorf("Run = %q from %q, want %q from %q", got, step, tt.wantValue, tt.wantStep)
			}
		})
	}
}

func TestGemini_Complete(t *testing.T) {
	t.Parallel()

	var gotPrompt, gotKey, gotPath string
	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req geminiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there"}]}}]}`))
	})

	g := NewGemini("secret", testOpts(srv)...)
	reply, err := g.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "Hi there" {
		t.Errorf("reply = %q", reply)
	}
	if gotPath != "/v1beta/models/gemini-2.0-flash:generateContent" || gotKey != "secret" {
		t.Errorf("path = %q key = %q", gotPath, gotKey)
	}
	if !strings.HasSuffix(gotPrompt, "Here is the user's message: hello") {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestGemini_MissingCandidates(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := NewGemini("k", testOpts(srv)...).Complete(context.Background(), "x")
	if !errors.Is(err, ErrBadResponse) {
		t.Errorf("expected ErrBadResponse, got %v", err)
	}
}

func TestTenor_Search(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "none" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id":"1","title":"cat","url":"https://tenor.com/1","media_formats":{"gif":{"url":"g1"},"nanogif":{"url":"n1"}}},
			{"id":"2","title":"dog","url":"https://tenor.com/2","media_formats":{"gif":{"url":"g2"},"tinygif":{"url":"t2"}}}
		]}`))
	})
	tenor := NewTenor("k", testOpts(srv)...)

	gifs, err := tenor.Search(context.Background(), "cats", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(gifs) != 2 || gifs[0].Preview != "n1" || gifs[1].Preview != "t2" || gifs[0].URL != "g1" {
		t.Errorf("gifs = %+v", gifs)
	}

	tenor.intn = func(int) int { return 1 }
	gif, err := tenor.Random(context.Background(), "cats")
	if err != nil || gif.ID != "2" {
		t.Errorf("Random = %+v, %v", gif, err)
	}

	if _, err := tenor.Search(context.Background(), "none", 5); !errors.Is(err, ErrNoResults) {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestTenor_Mix(t *testing.T) {
	t.Parallel()

	var q, collection string
	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query().Get("q")
		collection = r.URL.Query().Get("collection")
		_, _ = w.Write([]byte(`{"results":[{"url":"u1"},{"url":"u2","content_description":"fire cat"}]}`))
	})

	mixes, err := NewTenor("k", testOpts(srv)...).Mix(context.Background(), "🔥", "🐱")
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	if q != "🔥_🐱" || collection != "emoji_kitchen_v5" {
		t.Errorf("q = %q collection = %q", q, collection)
	}
	if mixes[0].ContentDescription != "Emoji Mix" || mixes[1].ContentDescription != "fire cat" {
		t.Errorf("mixes = %+v", mixes)
	}
}

func TestWebSearch_FallbackOrder(t *testing.T) {
	t.Parallel()

	down := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	majhcc := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"title":"Go","link":"https://go.dev","description":"The Go language"}]}`))
	})

	ws := &WebSearch{metrics: metrics.NewNoop()}
	ws.Add("alyachan", NewAlyachan(testOpts(down)...))
	ws.Add("majhcc", NewMajhcc(testOpts(majhcc)...))

	page, err := ws.Search(context.Background(), "golang")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Note != "" || len(page.Results) != 1 || page.Results[0].URL != "https://go.dev" {
		t.Errorf("page = %+v", page)
	}
	if page.Screenshot != "https://image.thum.io/get/fullpage/https://google.com/search?q=golang" {
		t.Errorf("screenshot = %q", page.Screenshot)
	}
}

func TestWebSearch_DemoFallback(t *testing.T) {
	t.Parallel()

	down := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	rec := metrics.NewInMemory()
	ws := &WebSearch{metrics: rec}
	ws.Add("alyachan", NewAlyachan(testOpts(down)...))
	ws.Add("majhcc", NewMajhcc(testOpts(down)...))

	page, err := ws.Search(context.Background(), "recetas de cocina faciles")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Note != DemoSearchNote {
		t.Errorf("note = %q", page.Note)
	}
	if len(page.Results) != 3 || !strings.Contains(page.Results[0].Title, "Recetas") {
		t.Errorf("results = %+v", page.Results)
	}
}

func TestNewWebSearch_SerpAPIOnlyWithKey(t *testing.T) {
	t.Parallel()

	if got := len(NewWebSearch("", nil, nil).upstreams); got != 2 {
		t.Errorf("upstreams without key = %d, want 2", got)
	}
	if got := len(NewWebSearch("k", nil, nil).upstreams); got != 3 {
		t.Errorf("upstreams with key = %d, want 3", got)
	}
}

func TestDemoResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
	}{
		{"Programación JavaScript avanzada", "programación javascript"},
		{"night sky", "night sky photography"},
		{"quantum physics", "night sky photography"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			got := DemoResults(tt.query)
			if got[0] != demoResults[tt.want][0] {
				t.Errorf("DemoResults(%q) picked %q", tt.query, got[0].Title)
			}
		})
	}
}

func TestSimi_Reply(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("language") != "en" || q.Get("username") != "nightapi" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"resultado":"hello human"}`))
	})

	reply, err := NewSimi("key", "nightapi", testOpts(srv)...).Reply(context.Background(), "hi", "en")
	if err != nil || reply != "hello human" {
		t.Errorf("Reply = %q, %v", reply, err)
	}
}

func TestSoundCloud(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := newFake(t, mux.ServeHTTP)
	mux.HandleFunc("/starlight/soundcloud-search", func(w http.ResponseWriter, r *http.Request) {
		tracks := make([]Track, 7)
		for i := range tracks {
			tracks[i] = Track{Title: "t", URL: "https://soundcloud.com/x"}
		}
		_ = json.NewEncoder(w).Encode(tracks)
	})
	mux.HandleFunc("/starlight/soundcloud", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TrackDownload{Link: "http://" + r.Host + "/file.mp3", Title: "Song"})
	})
	mux.HandleFunc("/file.mp3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ID3audio"))
	})

	sc := NewSoundCloud(time.Minute, testOpts(srv)...)
	tracks, err := sc.Search(context.Background(), "lofi")
	if err != nil || len(tracks) != maxSoundCloudHits {
		t.Fatalf("Search = %d tracks, %v", len(tracks), err)
	}

	dl, err := sc.Resolve(context.Background(), "https://soundcloud.com/x")
	if err != nil || dl.Title != "Song" {
		t.Fatalf("Resolve = %+v, %v", dl, err)
	}

	var buf bytes.Buffer
	if err := sc.Fetch(context.Background(), dl.Link, &buf); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if buf.String() != "ID3audio" {
		t.Errorf("body = %q", buf.String())
	}
}

func TestStickerGenerator(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Messages[0].From.Name != "Ana" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"image":"iVBORw0K"}}`))
	})
	g := NewStickerGenerator(metrics.NewNoop(), nil, testOpts(srv)...)

	res, err := g.Sticker(context.Background(), "hello", "Ana", DefaultStickerAvatar)
	if err != nil || res.Fallback != nil || len(res.PNG) == 0 {
		t.Fatalf("Sticker = %+v, %v", res, err)
	}

	res, err = g.Sticker(context.Background(), strings.Repeat("x", 85), "Bob", DefaultStickerAvatar)
	if err != nil || res.Fallback == nil {
		t.Fatalf("expected fallback, got %+v, %v", res, err)
	}
	if res.Fallback.Name != "NightWalker" {
		t.Errorf("fallback = %+v", res.Fallback)
	}
}

func TestFallbackSticker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		length int
		want   string
	}{
		{1, "Astro Explorer"},
		{39, "Astro Explorer"},
		{40, "Motivator"},
		{80, "NightWalker"},
		{120, "NightWalker"},
	}
	for _, tt := range tests {
		if got := FallbackSticker(strings.Repeat("a", tt.length)).Name; got != tt.want {
			t.Errorf("FallbackSticker(len %d) = %q, want %q", tt.length, got, tt.want)
		}
	}
}

func TestTTS_Speak(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "tw-ob" || q.Get("tl") != "fr" || q.Get("q") != "bonjour" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("mp3"))
	})

	var buf bytes.Buffer
	if err := NewTTS(testOpts(srv)...).Speak(context.Background(), "bonjour", "fr", &buf); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if buf.String() != "mp3" {
		t.Errorf("body = %q", buf.String())
	}
}

func TestTextToImage_Generate(t *testing.T) {
	t.Parallel()

	srv := newFake(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ai/text2img" || r.URL.Query().Get("prompt") != "a moon" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	})

	var buf bytes.Buffer
	if err := NewTextToImage(testOpts(srv)...).Generate(context.Background(), "a moon", &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if buf.Len() != 3 {
		t.Errorf("len = %d", buf.Len())
	}
}
