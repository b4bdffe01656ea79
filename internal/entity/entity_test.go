package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestURL_IsExpired(t *testing.T) {
	createdAt := time.UnixMilli(1_700_000_000_000)
	url := URL{CreatedAt: createdAt, ExpiresAt: ExpiryFor(createdAt, 30)}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before expiry", now: url.ExpiresAt.Add(-time.Millisecond), want: false},
		{name: "at expiry", now: url.ExpiresAt, want: false},
		{name: "after expiry", now: url.ExpiresAt.Add(time.Millisecond), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, url.IsExpired(tt.now))
		})
	}
}

func TestURL_TimeRemaining(t *testing.T) {
	createdAt := time.UnixMilli(1_700_000_000_000)
	url := URL{CreatedAt: createdAt, ExpiresAt: ExpiryFor(createdAt, 90)}

	assert.Equal(t, 90*time.Minute, url.TimeRemaining(createdAt))
	assert.Zero(t, url.TimeRemaining(url.ExpiresAt.Add(time.Second)))
}

func TestExpiryFor(t *testing.T) {
	createdAt := time.UnixMilli(1_700_000_000_000)

	got := ExpiryFor(createdAt, 30)

	assert.Equal(t, int64(1_800_000), got.UnixMilli()-createdAt.UnixMilli())
}

func TestMillis(t *testing.T) {
	ts := time.Unix(10, 123_456_789)

	assert.Equal(t, int64(10_123), Millis(ts).UnixMilli())
	assert.Zero(t, Millis(ts).Nanosecond()%int(time.Millisecond))
}

func TestNewLocation(t *testing.T) {
	loc := NewLocation(52.52437, 13.41053, 27.6)

	assert.Equal(t, 52.52, loc.Latitude)
	assert.Equal(t, 13.41, loc.Longitude)
	assert.Equal(t, 28, loc.Accuracy)
}

func TestNewReferrerInfo(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)

	t.Run("direct", func(t *testing.T) {
		info := NewReferrerInfo("", "curl/8.0", at)

		assert.Equal(t, DirectReferrer, info.Referrer)
		assert.Equal(t, "curl/8.0", info.UserAgent)
		assert.Equal(t, at, info.Timestamp)
	})

	t.Run("with referrer", func(t *testing.T) {
		info := NewReferrerInfo("https://news.example.com", "curl/8.0", at)

		assert.Equal(t, "https://news.example.com", info.Referrer)
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(FieldOriginalURL, ErrURLRequired)

	assert.ErrorIs(t, err, ErrURLRequired)
	assert.Equal(t, "original_url: URL is required", err.Error())
}
