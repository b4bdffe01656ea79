package config

import (
	"fmt"
	"os"
	"time"

	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Bounds of generated short codes.
const (
	minShortCodeLength = 3
	maxShortCodeLength = 20
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                    string        `yaml:"env"`
	BaseURL                string        `yaml:"base_url"`
	ShortCodeLength        int           `yaml:"short_code_length"`
	DefaultValidityMinutes int           `yaml:"default_validity_minutes"`
	MaxBatchSize           int           `yaml:"max_batch_size"`
	GeoTimeout             time.Duration `yaml:"geo_timeout"`
	HTTPServer             `yaml:"http_server"`
	Storage                `yaml:"storage"`
	Postgres               `yaml:"postgres"`
	Redis                  `yaml:"redis"`
	RateLimit              `yaml:"rate_limit"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Storage struct {
	Driver    string `yaml:"driver"`
	KeyPrefix string `yaml:"key_prefix"`
}

var defaultStorage = Storage{
	Driver:    DriverMemory,
	KeyPrefix: "ttl_shortener_",
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnectRetries  int           `yaml:"connect_retries"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	ConnectRetries:  5,
	MigrationsPath:  "file://migrations",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	MaxRetries int    `yaml:"max_retries"`
}

var defaultRedis = Redis{
	Addr:       "localhost:6379",
	MaxRetries: 3,
}

// RateLimit holds limiter rates in the "<limit>-<period>" format, e.g. "20-M".
// An empty rate disables limiting.
type RateLimit struct {
	Create string `yaml:"create"`
}

var defaultRateLimit = RateLimit{
	Create: "20-M",
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.ShortCodeLength < minShortCodeLength || c.ShortCodeLength > maxShortCodeLength {
		return fmt.Errorf("short_code_length must be between %d and %d, got %d",
			minShortCodeLength, maxShortCodeLength, c.ShortCodeLength)
	}
	if c.DefaultValidityMinutes < entity.MinValidityMinutes || c.DefaultValidityMinutes > entity.MaxValidityMinutes {
		return fmt.Errorf("default_validity_minutes must be between %d and %d, got %d",
			entity.MinValidityMinutes, entity.MaxValidityMinutes, c.DefaultValidityMinutes)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.MaxBatchSize)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.ShortCodeLength = 6
	cfg.DefaultValidityMinutes = 30
	cfg.MaxBatchSize = 5
	cfg.GeoTimeout = 5 * time.Second
	cfg.HTTPServer = defaultHTTPServer
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.RateLimit = defaultRateLimit
}
