package entity

import (
	"math"
	"time"
)

// DirectReferrer is recorded when a visit carries no referrer.
const DirectReferrer = "Direct"

// Click represents a single recorded visit to a short code.
type Click struct {
	Timestamp time.Time    // Timestamp is the moment of the click.
	Referrer  ReferrerInfo // Referrer describes where the visitor came from.
	Location  *Location    // Location is the approximate visitor location, nil when unavailable.
}

// ReferrerInfo holds the request metadata captured with a click.
type ReferrerInfo struct {
	Referrer  string
	UserAgent string
	Timestamp time.Time
}

// Location is a coarse visitor location.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  int // meters
}

// NewLocation returns a Location with coordinates rounded to two decimals
// and accuracy rounded to whole meters.
func NewLocation(latitude, longitude, accuracy float64) *Location {
	return &Location{
		Latitude:  math.Round(latitude*100) / 100,
		Longitude: math.Round(longitude*100) / 100,
		Accuracy:  int(math.Round(accuracy)),
	}
}

// NewReferrerInfo builds ReferrerInfo, defaulting an empty referrer to DirectReferrer.
func NewReferrerInfo(referrer, userAgent string, at time.Time) ReferrerInfo {
	if referrer == "" {
		referrer = DirectReferrer
	}

	return ReferrerInfo{
		Referrer:  referrer,
		UserAgent: userAgent,
		Timestamp: at,
	}
}
