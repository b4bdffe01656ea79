package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
	"github.com/vadimbarashkov/ttl-shortener/pkg/response"
)

var (
	urlNotFoundResponse = response.ErrorResponse(
		http.StatusNotFound,
		"URL Not Found",
		"Short URL not found.",
	)
	urlExpiredResponse = response.ErrorResponse(
		http.StatusGone,
		"URL Expired",
		"This short URL has expired.",
	)
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortURL(shortCode string) string
	ShortenURLs(ctx context.Context, inputs []usecase.ShortenInput) ([]usecase.ShortenResult, error)
	ListURLs(ctx context.Context) ([]entity.URL, error)
	Resolve(ctx context.Context, shortCode string, client usecase.ClientContext) (*usecase.Resolution, error)
	SweepExpired(ctx context.Context) (*usecase.SweepResult, error)
	GetAnalytics(ctx context.Context, shortCode string) ([]entity.Click, error)
	GetAllAnalytics(ctx context.Context) (map[string][]entity.Click, error)
	Summary(ctx context.Context) (*usecase.Summary, error)
	ClearAll(ctx context.Context) error
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
	now      func() time.Time
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate, now func() time.Time) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
		now:      now,
	}
}

func logError(r *http.Request, op string, err error) {
	httplog.LogEntrySetFields(r.Context(), map[string]any{
		"op":  op,
		"err": err.Error(),
	})
}

func (h *urlHandler) clientContext(r *http.Request) usecase.ClientContext {
	return usecase.ClientContext{
		Referrer:  r.Referer(),
		UserAgent: r.UserAgent(),
		Locator:   locatorFromRequest(r, h.validate),
	}
}

func (h *urlHandler) toURLResponse(url *entity.URL) urlResponse {
	return toURLResponse(url, h.useCase.ShortURL(url.ShortCode), h.now())
}

func (h *urlHandler) shortenURLs(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.shortenURLs"

	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(response.GetValidationErrors(err)))
		return
	}

	results, err := h.useCase.ShortenURLs(r.Context(), req.toInputs())
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidBatchSize) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse([]response.ValidationError{{
				Field: "urls",
				Value: len(req.URLs),
				Issue: "Too many URLs in one request.",
			}}))
			return
		}

		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	entries := make([]shortenEntryResponse, len(results))
	var details []response.ValidationError
	created, failed := 0, 0

	for i, res := range results {
		entries[i].Index = i

		if res.Err == nil {
			url := h.toURLResponse(res.URL)
			entries[i].URL = &url
			created++
			continue
		}

		var vErr *entity.ValidationError
		if errors.As(res.Err, &vErr) {
			entries[i].Errors = []entryErrorDetails{{Field: vErr.Field, Issue: vErr.Reason.Error()}}
			details = append(details, response.ValidationError{
				Field: fmt.Sprintf("urls[%d].%s", i, vErr.Field),
				Value: fieldValue(req.URLs[i], vErr.Field),
				Issue: vErr.Reason.Error(),
			})
			continue
		}

		failed++
		logError(r, op, res.Err)
		entries[i].Errors = []entryErrorDetails{{Issue: response.ServerErrorResponse.Message}}
	}

	switch {
	case created == len(results):
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(http.StatusCreated, "URLs shortened successfully.", entries))
	case created > 0:
		render.Status(r, http.StatusMultiStatus)
		render.JSON(w, r, response.SuccessResponse(http.StatusMultiStatus, "Some URLs could not be shortened.", entries))
	case failed > 0:
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(details))
	}
}

func fieldValue(entry shortenEntryRequest, field string) any {
	switch field {
	case entity.FieldOriginalURL:
		return entry.OriginalURL
	case entity.FieldCustomShortCode:
		return entry.CustomShortCode
	case entity.FieldValidityMinutes:
		if entry.ValidityMinutes != nil {
			return *entry.ValidityMinutes
		}
	}
	return nil
}

func (h *urlHandler) listURLs(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.listURLs"

	urls, err := h.useCase.ListURLs(r.Context())
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	slices.SortStableFunc(urls, func(a, b entity.URL) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	resp := make([]urlResponse, 0, len(urls))
	for i := range urls {
		resp = append(resp, h.toURLResponse(&urls[i]))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "URLs retrieved successfully.", resp))
}

func (h *urlHandler) clearAll(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.clearAll"

	if err := h.useCase.ClearAll(r.Context()); err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *urlHandler) resolve(w http.ResponseWriter, r *http.Request) (*usecase.Resolution, bool) {
	const op = "adapter.delivery.http.urlHandler.resolve"

	shortCode := chi.URLParam(r, "shortCode")

	res, err := h.useCase.Resolve(r.Context(), shortCode, h.clientContext(r))
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return nil, false
	}

	switch res.Status {
	case usecase.StatusNotFound:
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
		return nil, false
	case usecase.StatusFoundExpired:
		render.Status(r, http.StatusGone)
		render.JSON(w, r, urlExpiredResponse)
		return nil, false
	}

	if res.ClickErr != nil {
		logError(r, op, res.ClickErr)
	}

	return res, true
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}

	resp := resolveResponse{
		Status:      res.Status.String(),
		ShortCode:   res.URL.ShortCode,
		OriginalURL: res.URL.OriginalURL,
		ClickSaved:  res.ClickErr == nil,
	}

	if res.Click != nil {
		click := toClickResponse(*res.Click)
		resp.Click = &click
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "Short URL resolved successfully.", resp))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}

	http.Redirect(w, r, res.URL.OriginalURL, http.StatusFound)
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.getURLStats"

	shortCode := chi.URLParam(r, "shortCode")

	clicks, err := h.useCase.GetAnalytics(r.Context(), shortCode)
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "URL stats retrieved successfully.", statsResponse{
		ShortCode:   shortCode,
		TotalClicks: len(clicks),
		Clicks:      toClickResponses(clicks),
	}))
}

func (h *urlHandler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.getAnalytics"

	analytics, err := h.useCase.GetAllAnalytics(r.Context())
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	resp := make(map[string][]clickResponse, len(analytics))
	for code, clicks := range analytics {
		resp[code] = toClickResponses(clicks)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "Analytics retrieved successfully.", resp))
}

func (h *urlHandler) getSummary(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.getSummary"

	s, err := h.useCase.Summary(r.Context())
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "Summary retrieved successfully.", summaryResponse{
		TotalURLs:   s.TotalURLs,
		ActiveURLs:  s.ActiveURLs,
		TotalClicks: s.TotalClicks,
	}))
}

func (h *urlHandler) sweepExpired(w http.ResponseWriter, r *http.Request) {
	const op = "adapter.delivery.http.urlHandler.sweepExpired"

	res, err := h.useCase.SweepExpired(r.Context())
	if err != nil {
		logError(r, op, err)

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	remaining := make([]urlResponse, 0, len(res.Remaining))
	for i := range res.Remaining {
		remaining = append(remaining, h.toURLResponse(&res.Remaining[i]))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(http.StatusOK, "Expired URLs swept.", sweepResponse{
		Removed:   res.Removed,
		Remaining: remaining,
	}))
}
