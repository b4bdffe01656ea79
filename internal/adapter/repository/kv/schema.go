package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

// recordID accepts both string and numeric ids. Older data stored numeric ids.
type recordID string

func (id *recordID) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = recordID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = recordID(n.String())

	return nil
}

type urlKV struct {
	ID          recordID `json:"id"`
	OriginalURL string   `json:"originalUrl"`
	ShortCode   string   `json:"shortCode"`
	CreatedAt   int64    `json:"createdAt"`
	ExpiresAt   int64    `json:"expiresAt"`
	Validity    int      `json:"validity"`
	IsCustom    bool     `json:"isCustom"`
}

func toURLKV(url *entity.URL) urlKV {
	return urlKV{
		ID:          recordID(url.ID),
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		CreatedAt:   url.CreatedAt.UnixMilli(),
		ExpiresAt:   url.ExpiresAt.UnixMilli(),
		Validity:    url.ValidityMinutes,
		IsCustom:    url.IsCustom,
	}
}

func (u *urlKV) toEntity() *entity.URL {
	return &entity.URL{
		ID:              string(u.ID),
		ShortCode:       u.ShortCode,
		OriginalURL:     u.OriginalURL,
		ValidityMinutes: u.Validity,
		IsCustom:        u.IsCustom,
		CreatedAt:       time.UnixMilli(u.CreatedAt),
		ExpiresAt:       time.UnixMilli(u.ExpiresAt),
	}
}

type referrerKV struct {
	Referrer  string `json:"referrer"`
	UserAgent string `json:"userAgent"`
	Timestamp int64  `json:"timestamp"`
}

type locationKV struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  int     `json:"accuracy"`
}

type clickKV struct {
	Timestamp int64       `json:"timestamp"`
	Referrer  referrerKV  `json:"referrer"`
	Location  *locationKV `json:"location"`
	UserAgent string      `json:"userAgent"`
}

func toClickKV(c entity.Click) clickKV {
	click := clickKV{
		Timestamp: c.Timestamp.UnixMilli(),
		Referrer: referrerKV{
			Referrer:  c.Referrer.Referrer,
			UserAgent: c.Referrer.UserAgent,
			Timestamp: c.Referrer.Timestamp.UnixMilli(),
		},
		UserAgent: c.Referrer.UserAgent,
	}

	if c.Location != nil {
		click.Location = &locationKV{
			Latitude:  c.Location.Latitude,
			Longitude: c.Location.Longitude,
			Accuracy:  c.Location.Accuracy,
		}
	}

	return click
}

func (c *clickKV) toEntity() entity.Click {
	ua := c.Referrer.UserAgent
	if ua == "" {
		ua = c.UserAgent
	}

	click := entity.Click{
		Timestamp: time.UnixMilli(c.Timestamp),
		Referrer: entity.ReferrerInfo{
			Referrer:  c.Referrer.Referrer,
			UserAgent: ua,
			Timestamp: time.UnixMilli(c.Referrer.Timestamp),
		},
	}

	if c.Location != nil {
		click.Location = &entity.Location{
			Latitude:  c.Location.Latitude,
			Longitude: c.Location.Longitude,
			Accuracy:  c.Location.Accuracy,
		}
	}

	return click
}

func toClickEntities(clicks []clickKV) []entity.Click {
	res := make([]entity.Click, 0, len(clicks))
	for i := range clicks {
		res = append(res, clicks[i].toEntity())
	}

	return res
}
