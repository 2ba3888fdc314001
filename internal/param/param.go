// Package param resolves a logical request parameter from the places a
// client may have put it.
package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// maxBodyPeek bounds how much of the body is buffered for lookup.
const maxBodyPeek = 1 << 20

// Resolve returns the first non-empty value for name, checking in order the
// chi route parameter, the query string (name, then each alias), and the
// request body (JSON object or form-encoded, name then aliases).
// The request body is restored so handlers can read it again.
func Resolve(r *http.Request, name string, aliases ...string) (string, bool) {
	names := append([]string{name}, aliases...)

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if v := rctx.URLParam(name); v != "" {
			// chi matches against RawPath when it is set, leaving the param
			// percent-encoded; otherwise it is already decoded.
			if r.URL.RawPath != "" {
				if decoded, err := url.PathUnescape(v); err == nil {
					v = decoded
				}
			}
			return v, true
		}
	}

	query := r.URL.Query()
	for _, n := range names {
		if v := query.Get(n); v != "" {
			return v, true
		}
	}

	fields, err := bodyFields(r)
	if err != nil {
		return "", false
	}
	for _, n := range names {
		if v := fields[n]; v != "" {
			return v, true
		}
	}

	return "", false
}

// bodyFields buffers the body, restores it on the request and returns its
// top-level string-convertible fields.
func bodyFields(r *http.Request) (map[string]string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(buf) == 0 {
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(buf))
		if err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
		out := make(map[string]string, len(values))
		for k := range values {
			out[k] = values.Get(k)
		}
		return out, nil
	default:
		var raw map[string]any
		if err := json.Unmarshal(buf, &raw); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch tv := v.(type) {
			case string:
				out[k] = tv
			case float64:
				out[k] = strconv.FormatFloat(tv, 'f', -1, 64)
			case bool:
				out[k] = strconv.FormatBool(tv)
			}
		}
		return out, nil
	}
}
