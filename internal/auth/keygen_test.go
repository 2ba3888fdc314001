package auth

import "testing"

func TestGenerateAPIKey(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey failed: %v", err)
		}
		if len(key) != APIKeyLen {
			t.Errorf("key length = %d, want %d", len(key), APIKeyLen)
		}
		if !ValidKeyFormat(key) {
			t.Errorf("key %q should be lowercase hex", key)
		}
		if seen[key] {
			t.Errorf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestValidKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789ABCDEF", false},
		{"0123456789abcdef", false},
		{"pk_live_abc123_0123456789abcdef0123456789abcdef", false},
	}

	for _, tt := range tests {
		if got := ValidKeyFormat(tt.key); got != tt.want {
			t.Errorf("ValidKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint("secret-a")
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32", len(a))
	}
	if a != Fingerprint("secret-a") {
		t.Error("fingerprint should be deterministic")
	}
	if a == Fingerprint("secret-b") {
		t.Error("different secrets should not share a fingerprint")
	}
}
