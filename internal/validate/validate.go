// Package validate holds the pure checks applied to a shortening request
// before anything is written to the store.
package validate

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

const defaultScheme = "https://"

var v = validator.New()

// reservedShortCodes are the first path segments served by fixed routes.
var reservedShortCodes = []string{"api", "docs", "metrics", "swagger"}

// NormalizeURL prepends https:// when raw has neither an http:// nor an https:// prefix.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return defaultScheme + raw
}

// IsValidURL reports whether candidate is an absolute http or https URL with a host.
func IsValidURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidShortCode reports whether code is 3-20 ASCII letters or digits.
func IsValidShortCode(code string) bool {
	return v.Var(code, "required,alphanum,min=3,max=20") == nil
}

// IsReservedShortCode reports whether code collides with a fixed route.
func IsReservedShortCode(code string) bool {
	return slices.Contains(reservedShortCodes, code)
}

// IsShortCodeUnique reports whether no record in existing uses code.
func IsShortCodeUnique(code string, existing []entity.URL) bool {
	for i := range existing {
		if existing[i].ShortCode == code {
			return false
		}
	}
	return true
}

// IsValidValidityMinutes reports whether minutes lies in (0, 1440].
func IsValidValidityMinutes(minutes int) bool {
	return v.Var(minutes, "gt=0,lte=1440") == nil
}

// ParseValidityMinutes parses textual validity input.
func ParseValidityMinutes(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !IsValidValidityMinutes(n) {
		return 0, false
	}
	return n, true
}

// Entry validates a single shortening entry against the records currently in the store
// and returns the normalized URL.
//
// Checks run in order: required URL, URL syntax after normalization, custom code syntax,
// reserved custom codes, custom code uniqueness, validity bounds. The first failing check is returned as an
// *entity.ValidationError. An empty customShortCode means a code will be generated.
func Entry(originalURL, customShortCode string, validityMinutes int, existing []entity.URL) (string, error) {
	raw := strings.TrimSpace(originalURL)
	if raw == "" {
		return "", entity.NewValidationError(entity.FieldOriginalURL, entity.ErrURLRequired)
	}

	normalized := NormalizeURL(raw)
	if !IsValidURL(normalized) {
		return "", entity.NewValidationError(entity.FieldOriginalURL, entity.ErrInvalidURL)
	}

	if customShortCode != "" {
		if !IsValidShortCode(customShortCode) {
			return "", entity.NewValidationError(entity.FieldCustomShortCode, entity.ErrInvalidShortCode)
		}
		if IsReservedShortCode(customShortCode) {
			return "", entity.NewValidationError(entity.FieldCustomShortCode, entity.ErrShortCodeReserved)
		}
		if !IsShortCodeUnique(customShortCode, existing) {
			return "", entity.NewValidationError(entity.FieldCustomShortCode, entity.ErrShortCodeInUse)
		}
	}

	if !IsValidValidityMinutes(validityMinutes) {
		return "", entity.NewValidationError(entity.FieldValidityMinutes, entity.ErrInvalidValidity)
	}

	return normalized, nil
}
