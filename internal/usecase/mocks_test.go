package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Save(ctx context.Context, url *entity.URL) error {
	args := r.Called(ctx, url)
	return args.Error(0)
}

func (r *MockURLRepository) List(ctx context.Context) ([]entity.URL, error) {
	args := r.Called(ctx)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	args := r.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (r *MockURLRepository) SaveClick(ctx context.Context, shortCode string, click entity.Click) error {
	args := r.Called(ctx, shortCode, click)
	return args.Error(0)
}

func (r *MockURLRepository) ListClicks(ctx context.Context, shortCode string) ([]entity.Click, error) {
	args := r.Called(ctx, shortCode)
	clicks, _ := args.Get(0).([]entity.Click)
	return clicks, args.Error(1)
}

func (r *MockURLRepository) Analytics(ctx context.Context) (map[string][]entity.Click, error) {
	args := r.Called(ctx)
	analytics, _ := args.Get(0).(map[string][]entity.Click)
	return analytics, args.Error(1)
}

func (r *MockURLRepository) Clear(ctx context.Context) error {
	args := r.Called(ctx)
	return args.Error(0)
}

type stubLocator struct {
	loc     *entity.Location
	err     error
	release chan struct{}
}

func (l *stubLocator) Locate(_ context.Context) (*entity.Location, error) {
	if l.release != nil {
		<-l.release
	}
	return l.loc, l.err
}
