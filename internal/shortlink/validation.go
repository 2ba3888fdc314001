package shortlink

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Validation limits.
const (
	MinCodeLength        = 3
	MaxCodeLength        = 20
	MaxOriginalURLLength = 2048
)

// Validation errors.
var (
	ErrInvalidURL   = errors.New("url must be an absolute http(s) URL")
	ErrURLTooLong   = errors.New("url exceeds maximum length")
	ErrUnsafeURL    = errors.New("url uses an unsafe scheme")
	ErrInvalidCode  = errors.New("code must be 3-20 characters of letters, digits, '-' or '_'")
	ErrCodeReserved = errors.New("code is reserved")
)

// reservedCodes cannot be claimed as custom codes.
var reservedCodes = map[string]bool{
	"api":        true,
	"s":          true,
	"healthz":    true,
	"readyz":     true,
	"metrics":    true,
	"static":     true,
	"assets":     true,
	"generated":  true,
	"resized":    true,
	"login":      true,
	"logout":     true,
	"auth":       true,
	"register":   true,
	"usage":      true,
	"nightapi":   true,
	"admin":      true,
	"robots":     true,
	"sitemap":    true,
	"favicon":    true,
	"well-known": true,
}

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateCode checks a custom code. Empty means "generate one".
func ValidateCode(code string) error {
	if code == "" {
		return nil
	}
	if len(code) < MinCodeLength || len(code) > MaxCodeLength || !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	if reservedCodes[strings.ToLower(code)] {
		return ErrCodeReserved
	}
	return nil
}

// ValidateURL checks a URL to be shortened.
func ValidateURL(raw string) error {
	if len(raw) > MaxOriginalURLLength {
		return ErrURLTooLong
	}

	lower := strings.ToLower(raw)
	for _, scheme := range []string{"javascript:", "data:", "vbscript:", "file:"} {
		if strings.Contains(lower, scheme) {
			return ErrUnsafeURL
		}
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
