package http

import (
	"fmt"
	"time"

	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
)

type shortenEntryRequest struct {
	OriginalURL     string `json:"original_url"`
	ValidityMinutes *int   `json:"validity_minutes"`
	CustomShortCode string `json:"custom_short_code"`
}

type shortenRequest struct {
	URLs []shortenEntryRequest `json:"urls" validate:"required,min=1"`
}

func (r *shortenRequest) toInputs() []usecase.ShortenInput {
	inputs := make([]usecase.ShortenInput, 0, len(r.URLs))
	for _, u := range r.URLs {
		inputs = append(inputs, usecase.ShortenInput{
			OriginalURL:     u.OriginalURL,
			ValidityMinutes: u.ValidityMinutes,
			CustomShortCode: u.CustomShortCode,
		})
	}

	return inputs
}

type urlResponse struct {
	ID              string    `json:"id"`
	ShortCode       string    `json:"short_code"`
	ShortURL        string    `json:"short_url"`
	OriginalURL     string    `json:"original_url"`
	ValidityMinutes int       `json:"validity_minutes"`
	IsCustom        bool      `json:"is_custom"`
	Expired         bool      `json:"expired"`
	TimeRemaining   string    `json:"time_remaining"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func toURLResponse(url *entity.URL, shortURL string, now time.Time) urlResponse {
	return urlResponse{
		ID:              url.ID,
		ShortCode:       url.ShortCode,
		ShortURL:        shortURL,
		OriginalURL:     url.OriginalURL,
		ValidityMinutes: url.ValidityMinutes,
		IsCustom:        url.IsCustom,
		Expired:         url.IsExpired(now),
		TimeRemaining:   formatRemaining(url.TimeRemaining(now)),
		CreatedAt:       url.CreatedAt,
		ExpiresAt:       url.ExpiresAt,
	}
}

// formatRemaining renders d as "1h 5m" or "5m", and "Expired" once d is zero.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}

	hours := int(d / time.Hour)
	minutes := int(d%time.Hour) / int(time.Minute)

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}

// shortenEntryResponse is one element of the batch response, in request order.
type shortenEntryResponse struct {
	Index  int                 `json:"index"`
	URL    *urlResponse        `json:"url,omitempty"`
	Errors []entryErrorDetails `json:"errors,omitempty"`
}

type entryErrorDetails struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  int     `json:"accuracy"`
}

type clickResponse struct {
	Timestamp  time.Time         `json:"timestamp"`
	Referrer   string            `json:"referrer"`
	UserAgent  string            `json:"user_agent"`
	ReferredAt time.Time         `json:"referred_at"`
	Location   *locationResponse `json:"location"`
}

func toClickResponse(c entity.Click) clickResponse {
	resp := clickResponse{
		Timestamp:  c.Timestamp,
		Referrer:   c.Referrer.Referrer,
		UserAgent:  c.Referrer.UserAgent,
		ReferredAt: c.Referrer.Timestamp,
	}

	if c.Location != nil {
		resp.Location = &locationResponse{
			Latitude:  c.Location.Latitude,
			Longitude: c.Location.Longitude,
			Accuracy:  c.Location.Accuracy,
		}
	}

	return resp
}

func toClickResponses(clicks []entity.Click) []clickResponse {
	res := make([]clickResponse, 0, len(clicks))
	for _, c := range clicks {
		res = append(res, toClickResponse(c))
	}

	return res
}

type resolveResponse struct {
	Status      string         `json:"status"`
	ShortCode   string         `json:"short_code"`
	OriginalURL string         `json:"original_url"`
	Click       *clickResponse `json:"click,omitempty"`
	ClickSaved  bool           `json:"click_saved"`
}

type statsResponse struct {
	ShortCode   string          `json:"short_code"`
	TotalClicks int             `json:"total_clicks"`
	Clicks      []clickResponse `json:"clicks"`
}

type summaryResponse struct {
	TotalURLs   int `json:"total_urls"`
	ActiveURLs  int `json:"active_urls"`
	TotalClicks int `json:"total_clicks"`
}

type sweepResponse struct {
	Removed   int64         `json:"removed"`
	Remaining []urlResponse `json:"remaining"`
}
