package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/metrics"
)

type ResolveStatus int

const (
	StatusLookingUp ResolveStatus = iota
	StatusFoundValid
	StatusFoundExpired
	StatusNotFound
)

func (s ResolveStatus) String() string {
	switch s {
	case StatusFoundValid:
		return "found_valid"
	case StatusFoundExpired:
		return "found_expired"
	case StatusNotFound:
		return "not_found"
	default:
		return "looking_up"
	}
}

// Locator returns the approximate location of the visitor being redirected.
// A nil location with a nil error means the location is unknown.
type Locator interface {
	Locate(ctx context.Context) (*entity.Location, error)
}

// ClientContext is the request metadata captured with a click.
type ClientContext struct {
	Referrer  string
	UserAgent string
	Locator   Locator
}

// Resolution is the outcome of resolving a short code.
type Resolution struct {
	Status ResolveStatus
	URL    *entity.URL
	// Click is the click recorded for a valid URL.
	Click *entity.Click
	// ClickErr is set when the click could not be stored. The redirect still proceeds.
	ClickErr error
}

// Err maps the not-found and expired outcomes to entity errors.
func (r *Resolution) Err() error {
	switch r.Status {
	case StatusNotFound:
		return entity.ErrURLNotFound
	case StatusFoundExpired:
		return entity.ErrURLExpired
	default:
		return nil
	}
}

// Resolve looks up shortCode and, when the URL is still valid, records a click.
//
// Expired URLs are reported but not evicted. A failure to record the click is logged
// and returned in Resolution.ClickErr rather than as an error. The returned error is
// non-nil only when the lookup itself fails.
func (uc *URLUseCase) Resolve(ctx context.Context, shortCode string, client ClientContext) (*Resolution, error) {
	const op = "usecase.URLUseCase.Resolve"

	res := &Resolution{Status: StatusLookingUp}

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			res.Status = StatusNotFound
			uc.observe(res, shortCode)
			return res, nil
		}

		return nil, fmt.Errorf("%s: failed to retrieve url: %w", op, err)
	}

	res.URL = url

	now := uc.now()
	if url.IsExpired(now) {
		res.Status = StatusFoundExpired
		uc.observe(res, shortCode)
		return res, nil
	}

	at := entity.Millis(now)
	click := entity.Click{
		Timestamp: at,
		Referrer:  entity.NewReferrerInfo(client.Referrer, client.UserAgent, at),
		Location:  uc.locate(ctx, client.Locator),
	}

	if err := uc.urlRepo.SaveClick(ctx, shortCode, click); err != nil {
		res.ClickErr = fmt.Errorf("%s: failed to save click: %w", op, err)
		metrics.ClicksFailed.Inc()
		uc.logger.Error("failed to record click", slog.String("short_code", shortCode), slog.Any("err", err))
	} else {
		res.Click = &click
	}

	res.Status = StatusFoundValid
	uc.observe(res, shortCode)

	return res, nil
}

// locate waits at most geoTimeout for the locator. Errors and timeouts yield no location.
func (uc *URLUseCase) locate(ctx context.Context, locator Locator) *entity.Location {
	if locator == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, uc.geoTimeout)
	defer cancel()

	type result struct {
		loc *entity.Location
		err error
	}

	ch := make(chan result, 1)

	go func() {
		loc, err := locator.Locate(ctx)
		ch <- result{loc: loc, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			uc.logger.Warn("location unavailable", slog.Any("err", r.err))
			return nil
		}
		return r.loc
	case <-ctx.Done():
		uc.logger.Warn("location lookup timed out", slog.Duration("timeout", uc.geoTimeout))
		return nil
	}
}

func (uc *URLUseCase) observe(res *Resolution, shortCode string) {
	metrics.Resolutions.WithLabelValues(res.Status.String()).Inc()
	uc.logger.Debug("short code resolved", slog.String("short_code", shortCode), slog.String("status", res.Status.String()))
}
