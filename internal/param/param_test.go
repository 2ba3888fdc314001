package param

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		build  func() *http.Request
		want   string
		wantOK bool
	}{
		{
			name: "route beats query and body",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/gemini/hi?message=q", strings.NewReader(`{"message":"b"}`))
				r.Header.Set("Content-Type", "application/json")
				return withRouteParam(r, "message", "hi")
			},
			want: "hi", wantOK: true,
		},
		{
			name: "query beats body",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/gemini?message=q", strings.NewReader(`{"message":"b"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			want: "q", wantOK: true,
		},
		{
			name: "canonical query beats alias",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/gemini?mensaje=alias&message=canon", nil)
			},
			want: "canon", wantOK: true,
		},
		{
			name: "alias query",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/gemini?mensaje=hola", nil)
			},
			want: "hola", wantOK: true,
		},
		{
			name: "json body",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(`{"mensaje":"desde body"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			want: "desde body", wantOK: true,
		},
		{
			name: "form body",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader("message=form+value"))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: "form value", wantOK: true,
		},
		{
			name: "absent",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/gemini?other=x", nil)
			},
			want: "", wantOK: false,
		},
		{
			name: "empty values are skipped",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/gemini?message=&mensaje=fallback", nil)
			},
			want: "fallback", wantOK: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Resolve(tt.build(), "message", "mensaje")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolve_RestoresBody(t *testing.T) {
	t.Parallel()

	const payload = `{"message":"keep me"}`
	r := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")

	if _, ok := Resolve(r, "message"); !ok {
		t.Fatal("expected body value")
	}

	rest, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(rest) != payload {
		t.Errorf("body after Resolve = %q, want %q", rest, payload)
	}
}

func TestResolve_MalformedBody(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/gemini", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")

	if v, ok := Resolve(r, "message"); ok {
		t.Errorf("Resolve() = %q, want absent", v)
	}
}

func TestResolve_RouteParamDecodedOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"space", "/api/gemini/good%20night", "good night"},
		{"escaped percent", "/api/gemini/50%2541", "50%41"},
		{"escaped slash", "/api/gemini/a%2Fb", "a/b"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			router := chi.NewRouter()
			router.Get("/api/gemini/{message}", func(w http.ResponseWriter, r *http.Request) {
				got, _ = Resolve(r, "message")
			})
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.target, nil))

			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}
