//go:build integration

package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/ttl-shortener/internal/config"

	delivery "github.com/vadimbarashkov/ttl-shortener/internal/adapter/delivery/http"
)

type APITestSuite struct {
	suite.Suite
	pgCont  testcontainers.Container
	cfg     *config.Config
	storage *Storage
	logger  *httplog.Logger
	server  *httptest.Server
	e       *httpexpect.Expect
}

func (suite *APITestSuite) SetupSuite() {
	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "ttl_shortener"

	var err error
	suite.pgCont, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForListeningPort("5432/tcp"),
		},
		Started: true,
	})
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %v", err)
	}
	suite.T().Cleanup(func() {
		if err := suite.pgCont.Terminate(ctx); err != nil {
			suite.T().Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := suite.pgCont.Host(ctx)
	if err != nil {
		suite.T().Fatalf("Failed to get postgres container host: %v", err)
	}

	pgPort, err := suite.pgCont.MappedPort(ctx, "5432")
	if err != nil {
		suite.T().Fatalf("Failed to get postgres container port: %v", err)
	}

	suite.cfg = &config.Config{
		BaseURL:                "https://sho.rt",
		ShortCodeLength:        6,
		DefaultValidityMinutes: 30,
		MaxBatchSize:           5,
		GeoTimeout:             time.Second,
		Storage:                config.Storage{Driver: config.DriverPostgres},
		Postgres: config.Postgres{
			User:           pgUser,
			Password:       pgPassword,
			Host:           pgHost,
			Port:           pgPort.Int(),
			DB:             pgDB,
			SSLMode:        "disable",
			MaxIdleConns:   2,
			MaxOpenConns:   5,
			ConnectRetries: 10,
			MigrationsPath: "file://../../migrations",
		},
	}

	suite.storage, err = OpenStorage(ctx, suite.cfg)
	if err != nil {
		suite.T().Fatalf("Failed to open storage: %v", err)
	}
	suite.T().Cleanup(func() {
		if err := suite.storage.Close(); err != nil {
			suite.T().Fatalf("Failed to close storage: %v", err)
		}
	})

	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	router := delivery.NewRouter(suite.logger, NewURLUseCase(suite.cfg, suite.storage, suite.logger))
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(suite.server.Close)
	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *APITestSuite) TearDownSubTest() {
	if err := suite.storage.repo.Clear(context.Background()); err != nil {
		suite.T().Fatalf("Failed to clean store: %v", err)
	}
}

func (suite *APITestSuite) shorten(entries ...map[string]any) *httpexpect.Array {
	return suite.e.POST("/api/v1/shorten").
		WithJSON(map[string]any{"urls": entries}).
		Expect().
		JSON().Object().
		Value("data").Array()
}

func (suite *APITestSuite) TestPing() {
	suite.Run("success", func() {
		suite.e.GET("/api/v1/ping").
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *APITestSuite) TestShortenAndRedirect() {
	suite.Run("success", func() {
		data := suite.shorten(
			map[string]any{"original_url": "example.com/docs", "custom_short_code": "docs2024"},
			map[string]any{"original_url": "https://example.org", "validity_minutes": 5},
		)

		data.Length().IsEqual(2)
		data.Value(0).Object().Value("url").Object().
			HasValue("short_code", "docs2024").
			HasValue("original_url", "https://example.com/docs").
			HasValue("is_custom", true).
			HasValue("short_url", "https://sho.rt/docs2024")
		data.Value(1).Object().Value("url").Object().
			HasValue("validity_minutes", 5).
			HasValue("is_custom", false)

		suite.e.GET("/docs2024").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			WithHeader("Referer", "https://news.example.org").
			WithHeader("X-Geo-Latitude", "40.712776").
			WithHeader("X-Geo-Longitude", "-74.005974").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/docs")

		stats := suite.e.GET("/api/v1/shorten/docs2024/stats").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Object()

		stats.HasValue("total_clicks", 1)
		click := stats.Value("clicks").Array().Value(0).Object()
		click.HasValue("referrer", "https://news.example.org")
		click.Value("location").Object().
			HasValue("latitude", 40.71).
			HasValue("longitude", -74.01)

		suite.e.GET("/api/v1/stats").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Object().
			HasValue("total_urls", 2).
			HasValue("active_urls", 2).
			HasValue("total_clicks", 1)
	})

	suite.Run("duplicate custom code", func() {
		suite.shorten(map[string]any{"original_url": "example.com", "custom_short_code": "dup123"})

		resp := suite.e.POST("/api/v1/shorten").
			WithJSON(map[string]any{"urls": []map[string]any{
				{"original_url": "example.org", "custom_short_code": "dup123"},
			}}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.Value("details").Array().Value(0).Object().
			HasValue("field", "urls[0].custom_short_code").
			HasValue("issue", "this shortcode is already in use")
	})
}

func (suite *APITestSuite) TestResolveShortCode() {
	const path = "/api/v1/shorten/%s"

	suite.Run("url not found", func() {
		resp := suite.e.GET(fmt.Sprintf(path, "abc123")).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
	})

	suite.Run("success", func() {
		suite.shorten(map[string]any{"original_url": "example.com", "custom_short_code": "abc123"})

		data := suite.e.GET(fmt.Sprintf(path, "abc123")).
			WithHeader("User-Agent", "integration-test").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Object()

		data.HasValue("status", "found_valid")
		data.HasValue("click_saved", true)
		data.Value("click").Object().
			HasValue("referrer", "Direct").
			HasValue("user_agent", "integration-test")
	})
}

func (suite *APITestSuite) TestSweepAndClear() {
	suite.Run("sweep keeps valid urls", func() {
		suite.shorten(map[string]any{"original_url": "example.com", "custom_short_code": "keep01"})

		data := suite.e.POST("/api/v1/sweep").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Object()

		data.HasValue("removed", 0)
		data.Value("remaining").Array().Length().IsEqual(1)
	})

	suite.Run("clear", func() {
		suite.shorten(map[string]any{"original_url": "example.com"})

		suite.e.DELETE("/api/v1/shorten").
			Expect().
			Status(http.StatusNoContent)

		suite.e.GET("/api/v1/shorten").
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			Value("data").Array().IsEmpty()
	})
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
