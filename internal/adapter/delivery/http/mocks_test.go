package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
)

type MockURLUseCase struct {
	mock.Mock
}

func (m *MockURLUseCase) ShortURL(shortCode string) string {
	return "https://sho.rt/" + shortCode
}

func (m *MockURLUseCase) ShortenURLs(ctx context.Context, inputs []usecase.ShortenInput) ([]usecase.ShortenResult, error) {
	args := m.Called(ctx, inputs)
	results, _ := args.Get(0).([]usecase.ShortenResult)
	return results, args.Error(1)
}

func (m *MockURLUseCase) ListURLs(ctx context.Context) ([]entity.URL, error) {
	args := m.Called(ctx)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Error(1)
}

func (m *MockURLUseCase) Resolve(ctx context.Context, shortCode string, client usecase.ClientContext) (*usecase.Resolution, error) {
	args := m.Called(ctx, shortCode, client)
	res, _ := args.Get(0).(*usecase.Resolution)
	return res, args.Error(1)
}

func (m *MockURLUseCase) SweepExpired(ctx context.Context) (*usecase.SweepResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*usecase.SweepResult)
	return res, args.Error(1)
}

func (m *MockURLUseCase) GetAnalytics(ctx context.Context, shortCode string) ([]entity.Click, error) {
	args := m.Called(ctx, shortCode)
	clicks, _ := args.Get(0).([]entity.Click)
	return clicks, args.Error(1)
}

func (m *MockURLUseCase) GetAllAnalytics(ctx context.Context) (map[string][]entity.Click, error) {
	args := m.Called(ctx)
	analytics, _ := args.Get(0).(map[string][]entity.Click)
	return analytics, args.Error(1)
}

func (m *MockURLUseCase) Summary(ctx context.Context) (*usecase.Summary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*usecase.Summary)
	return s, args.Error(1)
}

func (m *MockURLUseCase) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
