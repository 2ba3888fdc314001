package cache

import (
	"testing"
	"time"

	"github.com/nightapi/nightapi/internal/model"
)

func TestUsageMember_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
	}{
		{"plain", "/api/jokes/random"},
		{"route param", "/api/gemini/hello world"},
		{"pipe in path", "/api/gemini/a|b"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := &model.UsageEntry{ID: "01HZX3Y4Z5ABCDEFGHJKMNPQRS", Endpoint: tt.endpoint}
			if got := memberEndpoint(usageMember(entry)); got != tt.endpoint {
				t.Errorf("memberEndpoint = %q, want %q", got, tt.endpoint)
			}
		})
	}
}

func TestUsageKeyAndScore(t *testing.T) {
	t.Parallel()

	if got := usageKey(42); got != "usage:user:42" {
		t.Errorf("usageKey = %q", got)
	}
	ts := time.UnixMilli(1700000000123)
	if got := scoreOf(ts); got != "1700000000123" {
		t.Errorf("scoreOf = %q", got)
	}
}

func TestHashIP(t *testing.T) {
	t.Parallel()

	a := hashIP("192.168.1.1")
	if len(a) != 16 {
		t.Errorf("hashIP length = %d, want 16", len(a))
	}
	if a != hashIP("192.168.1.1") {
		t.Error("Same IP should produce same hash")
	}
	if a == hashIP("192.168.1.2") {
		t.Error("Different IPs should produce different hashes")
	}
}

func TestIdentityKey_HidesSecret(t *testing.T) {
	t.Parallel()

	key := identityKey("0123456789abcdef0123456789abcdef")
	if key == "identity:key:0123456789abcdef0123456789abcdef" {
		t.Error("identity key must not embed the raw API key")
	}
	if len(key) != len(identityKeyPrefix)+32 {
		t.Errorf("identity key = %q", key)
	}
}
