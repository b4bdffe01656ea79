package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/metrics"
	"github.com/vadimbarashkov/ttl-shortener/internal/validate"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shortCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	defaultShortCodeLength = 6
	defaultValidityMinutes = 30
	defaultMaxBatchSize    = 5
	defaultGeoTimeout      = 5 * time.Second
)

var (
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	ErrInvalidBatchSize   = errors.New("invalid batch size")
)

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) error
	List(ctx context.Context) ([]entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
	SaveClick(ctx context.Context, shortCode string, click entity.Click) error
	ListClicks(ctx context.Context, shortCode string) ([]entity.Click, error)
	Analytics(ctx context.Context) (map[string][]entity.Click, error)
	Clear(ctx context.Context) error
}

type URLUseCase struct {
	urlRepo         urlRepository
	logger          *slog.Logger
	now             func() time.Time
	baseURL         string
	shortCodeLength int
	defaultValidity int
	maxBatchSize    int
	geoTimeout      time.Duration
}

type Option func(*URLUseCase)

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

func WithBaseURL(baseURL string) Option {
	return func(uc *URLUseCase) {
		uc.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithShortCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		uc.shortCodeLength = n
	}
}

func WithDefaultValidity(minutes int) Option {
	return func(uc *URLUseCase) {
		uc.defaultValidity = minutes
	}
}

func WithMaxBatchSize(n int) Option {
	return func(uc *URLUseCase) {
		uc.maxBatchSize = n
	}
}

func WithGeoTimeout(d time.Duration) Option {
	return func(uc *URLUseCase) {
		uc.geoTimeout = d
	}
}

func New(urlRepo urlRepository, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:         urlRepo,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:             time.Now,
		shortCodeLength: defaultShortCodeLength,
		defaultValidity: defaultValidityMinutes,
		maxBatchSize:    defaultMaxBatchSize,
		geoTimeout:      defaultGeoTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ShortenInput is a single entry of a shortening request.
// A nil ValidityMinutes selects the default validity; an empty
// CustomShortCode selects a generated code.
type ShortenInput struct {
	OriginalURL     string
	ValidityMinutes *int
	CustomShortCode string
}

// ShortenResult holds the outcome of a single entry: either URL or Err is set.
type ShortenResult struct {
	URL *entity.URL
	Err error
}

// ShortURL returns the absolute short URL for shortCode.
func (uc *URLUseCase) ShortURL(shortCode string) string {
	return uc.baseURL + "/" + shortCode
}

// ShortenURLs validates and stores every entry independently, so a failing entry
// does not prevent its siblings from being created. Expired records are swept first.
func (uc *URLUseCase) ShortenURLs(ctx context.Context, inputs []ShortenInput) ([]ShortenResult, error) {
	const op = "usecase.URLUseCase.ShortenURLs"

	if len(inputs) == 0 || len(inputs) > uc.maxBatchSize {
		return nil, fmt.Errorf("%s: %w: got %d entries, want 1-%d", op, ErrInvalidBatchSize, len(inputs), uc.maxBatchSize)
	}

	if _, err := uc.urlRepo.RemoveExpired(ctx, uc.now()); err != nil {
		uc.logger.Warn("failed to sweep expired urls before shortening", slog.String("op", op), slog.Any("err", err))
	}

	results := make([]ShortenResult, len(inputs))

	for i, in := range inputs {
		url, err := uc.shorten(ctx, in)
		if err != nil {
			results[i].Err = err
			continue
		}

		results[i].URL = url
	}

	return results, nil
}

// ShortenURL shortens a single entry.
func (uc *URLUseCase) ShortenURL(ctx context.Context, in ShortenInput) (*entity.URL, error) {
	results, err := uc.ShortenURLs(ctx, []ShortenInput{in})
	if err != nil {
		return nil, err
	}

	return results[0].URL, results[0].Err
}

func (uc *URLUseCase) shorten(ctx context.Context, in ShortenInput) (*entity.URL, error) {
	const op = "usecase.URLUseCase.shorten"
	const maxRetries = 5

	existing, err := uc.urlRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	validity := uc.defaultValidity
	if in.ValidityMinutes != nil {
		validity = *in.ValidityMinutes
	}

	customCode := strings.TrimSpace(in.CustomShortCode)

	originalURL, err := validate.Entry(in.OriginalURL, customCode, validity, existing)
	if err != nil {
		return nil, err
	}

	if customCode != "" {
		url := uc.newURL(customCode, originalURL, validity, true)

		if err := uc.urlRepo.Save(ctx, url); err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				return nil, entity.NewValidationError(entity.FieldCustomShortCode, entity.ErrShortCodeInUse)
			}

			return nil, fmt.Errorf("%s: failed to save url: %w", op, err)
		}

		metrics.ShortenedURLs.WithLabelValues(metrics.KindCustom).Inc()
		uc.logger.Info("url shortened", slog.String("short_code", url.ShortCode), slog.Bool("custom", true))

		return url, nil
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := gonanoid.Generate(shortCodeAlphabet, uc.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		if !validate.IsValidShortCode(shortCode) {
			return nil, fmt.Errorf("%s: generated short code %q: %w", op, shortCode, entity.ErrInvalidShortCode)
		}

		if validate.IsReservedShortCode(shortCode) || !validate.IsShortCodeUnique(shortCode, existing) {
			continue
		}

		url := uc.newURL(shortCode, originalURL, validity, false)

		if err := uc.urlRepo.Save(ctx, url); err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to save url: %w", op, err)
		}

		metrics.ShortenedURLs.WithLabelValues(metrics.KindGenerated).Inc()
		uc.logger.Info("url shortened", slog.String("short_code", url.ShortCode), slog.Bool("custom", false))

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (uc *URLUseCase) newURL(shortCode, originalURL string, validity int, isCustom bool) *entity.URL {
	createdAt := entity.Millis(uc.now())

	return &entity.URL{
		ID:              uuid.NewString(),
		ShortCode:       shortCode,
		OriginalURL:     originalURL,
		ValidityMinutes: validity,
		IsCustom:        isCustom,
		CreatedAt:       createdAt,
		ExpiresAt:       entity.ExpiryFor(createdAt, validity),
	}
}

// ListURLs returns every stored URL, expired ones included, in storage order.
func (uc *URLUseCase) ListURLs(ctx context.Context) ([]entity.URL, error) {
	const op = "usecase.URLUseCase.ListURLs"

	urls, err := uc.urlRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, nil
}

type SweepResult struct {
	Remaining []entity.URL
	Removed   int64
}

// SweepExpired removes every expired URL together with its clicks.
func (uc *URLUseCase) SweepExpired(ctx context.Context) (*SweepResult, error) {
	const op = "usecase.URLUseCase.SweepExpired"

	removed, err := uc.urlRepo.RemoveExpired(ctx, uc.now())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to remove expired urls: %w", op, err)
	}

	remaining, err := uc.urlRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	if removed > 0 {
		metrics.SweptURLs.Add(float64(removed))
		uc.logger.Info("expired urls swept", slog.Int64("removed", removed), slog.Int("remaining", len(remaining)))
	}

	return &SweepResult{Remaining: remaining, Removed: removed}, nil
}

// GetAnalytics returns the clicks recorded for shortCode, or an empty slice.
func (uc *URLUseCase) GetAnalytics(ctx context.Context, shortCode string) ([]entity.Click, error) {
	const op = "usecase.URLUseCase.GetAnalytics"

	clicks, err := uc.urlRepo.ListClicks(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list clicks: %w", op, err)
	}

	if clicks == nil {
		clicks = []entity.Click{}
	}

	return clicks, nil
}

func (uc *URLUseCase) GetAllAnalytics(ctx context.Context) (map[string][]entity.Click, error) {
	const op = "usecase.URLUseCase.GetAllAnalytics"

	analytics, err := uc.urlRepo.Analytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get analytics: %w", op, err)
	}

	return analytics, nil
}

type Summary struct {
	TotalURLs   int
	ActiveURLs  int
	TotalClicks int
}

// Summary counts stored URLs, URLs that are still valid and recorded clicks.
func (uc *URLUseCase) Summary(ctx context.Context) (*Summary, error) {
	const op = "usecase.URLUseCase.Summary"

	urls, err := uc.urlRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	analytics, err := uc.urlRepo.Analytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get analytics: %w", op, err)
	}

	now := uc.now()
	s := &Summary{TotalURLs: len(urls)}

	for i := range urls {
		if !urls[i].IsExpired(now) {
			s.ActiveURLs++
		}
	}

	for _, clicks := range analytics {
		s.TotalClicks += len(clicks)
	}

	return s, nil
}

func (uc *URLUseCase) ClearAll(ctx context.Context) error {
	const op = "usecase.URLUseCase.ClearAll"

	if err := uc.urlRepo.Clear(ctx); err != nil {
		return fmt.Errorf("%s: failed to clear store: %w", op, err)
	}

	uc.logger.Info("all data cleared")

	return nil
}
