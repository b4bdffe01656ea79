// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL with a limited
// validity window, the Click struct, which represents a recorded visit, and
// the error values shared by every layer.
package entity

import "time"

// Validity bounds, in minutes.
const (
	MinValidityMinutes = 1
	MaxValidityMinutes = 24 * 60
)

// URL represents a shortened URL.
type URL struct {
	ID              string    // ID is the unique identifier of the URL record.
	ShortCode       string    // ShortCode is the code used to shorten the original URL.
	OriginalURL     string    // OriginalURL is the full URL that the short code resolves to.
	ValidityMinutes int       // ValidityMinutes is the validity window chosen at creation.
	IsCustom        bool      // IsCustom reports whether the short code was supplied by the user.
	CreatedAt       time.Time // CreatedAt is the timestamp when the URL was created.
	ExpiresAt       time.Time // ExpiresAt is the timestamp after which the short code stops resolving.
}

// IsExpired reports whether the URL is expired at the given moment.
// A URL is still valid at exactly ExpiresAt.
func (u *URL) IsExpired(now time.Time) bool {
	return now.After(u.ExpiresAt)
}

// TimeRemaining returns how long the URL stays valid, or zero if it is expired.
func (u *URL) TimeRemaining(now time.Time) time.Duration {
	if u.IsExpired(now) {
		return 0
	}
	return u.ExpiresAt.Sub(now)
}

// ExpiryFor returns the expiration timestamp for a URL created at createdAt.
func ExpiryFor(createdAt time.Time, validityMinutes int) time.Time {
	return createdAt.Add(time.Duration(validityMinutes) * time.Minute)
}

// Millis truncates t to millisecond precision, the resolution timestamps are persisted with.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
