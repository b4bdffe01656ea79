// Package kv implements the URL repository on top of a plain key-value backend.
//
// All records live under a single key as a JSON array and all clicks under a second
// key as a JSON object keyed by short code. Every operation is a read-modify-write of
// a whole key, so the repository serializes them with a mutex.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

const DefaultPrefix = "ttl_shortener_"

const (
	urlsKey      = "shortened_urls"
	analyticsKey = "analytics"
)

// Backend stores opaque values by key. Get returns nil, nil for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

type URLRepository struct {
	mu           sync.Mutex
	backend      Backend
	urlsKey      string
	analyticsKey string
}

type Option func(*URLRepository)

// WithPrefix sets the namespace prepended to both storage keys.
func WithPrefix(prefix string) Option {
	return func(r *URLRepository) {
		r.urlsKey = prefix + urlsKey
		r.analyticsKey = prefix + analyticsKey
	}
}

func NewURLRepository(backend Backend, opts ...Option) *URLRepository {
	r := &URLRepository{backend: backend}
	WithPrefix(DefaultPrefix)(r)

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.kv.URLRepository.Save"

	r.mu.Lock()
	defer r.mu.Unlock()

	urls, err := r.loadURLs(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i := range urls {
		if urls[i].ShortCode == url.ShortCode {
			return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}
	}

	urls = append(urls, toURLKV(url))

	if err := r.store(ctx, r.urlsKey, urls); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *URLRepository) List(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.kv.URLRepository.List"

	r.mu.Lock()
	defer r.mu.Unlock()

	urls, err := r.loadURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]entity.URL, 0, len(urls))
	for i := range urls {
		res = append(res, *urls[i].toEntity())
	}

	return res, nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.kv.URLRepository.RetrieveByShortCode"

	r.mu.Lock()
	defer r.mu.Unlock()

	urls, err := r.loadURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range urls {
		if urls[i].ShortCode == shortCode {
			return urls[i].toEntity(), nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
}

// RemoveExpired drops every record expired at now along with its clicks.
// Nothing is written when no record has expired.
func (r *URLRepository) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "adapter.repository.kv.URLRepository.RemoveExpired"

	r.mu.Lock()
	defer r.mu.Unlock()

	urls, err := r.loadURLs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	valid := make([]urlKV, 0, len(urls))
	var expired []string

	for i := range urls {
		if urls[i].toEntity().IsExpired(now) {
			expired = append(expired, urls[i].ShortCode)
			continue
		}
		valid = append(valid, urls[i])
	}

	if len(expired) == 0 {
		return 0, nil
	}

	analytics, err := r.loadAnalytics(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	purged := false
	for _, code := range expired {
		if _, ok := analytics[code]; ok {
			delete(analytics, code)
			purged = true
		}
	}

	// Clicks are written before records so no click outlives its record.
	if purged {
		if err := r.store(ctx, r.analyticsKey, analytics); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := r.store(ctx, r.urlsKey, valid); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return int64(len(expired)), nil
}

func (r *URLRepository) SaveClick(ctx context.Context, shortCode string, click entity.Click) error {
	const op = "adapter.repository.kv.URLRepository.SaveClick"

	r.mu.Lock()
	defer r.mu.Unlock()

	analytics, err := r.loadAnalytics(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	analytics[shortCode] = append(analytics[shortCode], toClickKV(click))

	if err := r.store(ctx, r.analyticsKey, analytics); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *URLRepository) ListClicks(ctx context.Context, shortCode string) ([]entity.Click, error) {
	const op = "adapter.repository.kv.URLRepository.ListClicks"

	r.mu.Lock()
	defer r.mu.Unlock()

	analytics, err := r.loadAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toClickEntities(analytics[shortCode]), nil
}

func (r *URLRepository) Analytics(ctx context.Context) (map[string][]entity.Click, error) {
	const op = "adapter.repository.kv.URLRepository.Analytics"

	r.mu.Lock()
	defer r.mu.Unlock()

	analytics, err := r.loadAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make(map[string][]entity.Click, len(analytics))
	for code, clicks := range analytics {
		res[code] = toClickEntities(clicks)
	}

	return res, nil
}

func (r *URLRepository) Clear(ctx context.Context) error {
	const op = "adapter.repository.kv.URLRepository.Clear"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.Delete(ctx, r.urlsKey, r.analyticsKey); err != nil {
		return fmt.Errorf("%s: failed to delete keys: %w", op, err)
	}

	return nil
}

func (r *URLRepository) loadURLs(ctx context.Context) ([]urlKV, error) {
	var urls []urlKV
	if err := r.load(ctx, r.urlsKey, &urls); err != nil {
		return nil, err
	}

	return urls, nil
}

func (r *URLRepository) loadAnalytics(ctx context.Context) (map[string][]clickKV, error) {
	var analytics map[string][]clickKV
	if err := r.load(ctx, r.analyticsKey, &analytics); err != nil {
		return nil, err
	}

	if analytics == nil {
		analytics = make(map[string][]clickKV)
	}

	return analytics, nil
}

func (r *URLRepository) load(ctx context.Context, key string, v any) error {
	data, err := r.backend.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get %q: %w", key, err)
	}

	if data == nil {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}

	return nil
}

func (r *URLRepository) store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}

	if err := r.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	return nil
}
