package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
)

const (
	uniqueViolationErrCode     = "23505"
	foreignKeyViolationErrCode = "23503"
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

type urlDB struct {
	ID              string    `db:"id"`
	ShortCode       string    `db:"short_code"`
	OriginalURL     string    `db:"original_url"`
	ValidityMinutes int       `db:"validity_minutes"`
	IsCustom        bool      `db:"is_custom"`
	CreatedAt       time.Time `db:"created_at"`
	ExpiresAt       time.Time `db:"expires_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:              u.ID,
		ShortCode:       u.ShortCode,
		OriginalURL:     u.OriginalURL,
		ValidityMinutes: u.ValidityMinutes,
		IsCustom:        u.IsCustom,
		CreatedAt:       u.CreatedAt,
		ExpiresAt:       u.ExpiresAt,
	}
}

type clickDB struct {
	ShortCode  string    `db:"short_code"`
	ClickedAt  time.Time `db:"clicked_at"`
	Referrer   string    `db:"referrer"`
	UserAgent  string    `db:"user_agent"`
	ReferredAt time.Time `db:"referred_at"`
	Latitude   *float64  `db:"latitude"`
	Longitude  *float64  `db:"longitude"`
	Accuracy   *int      `db:"accuracy"`
}

func (c *clickDB) toEntity() entity.Click {
	click := entity.Click{
		Timestamp: c.ClickedAt,
		Referrer: entity.ReferrerInfo{
			Referrer:  c.Referrer,
			UserAgent: c.UserAgent,
			Timestamp: c.ReferredAt,
		},
	}

	if c.Latitude != nil && c.Longitude != nil {
		click.Location = &entity.Location{
			Latitude:  *c.Latitude,
			Longitude: *c.Longitude,
		}
		if c.Accuracy != nil {
			click.Location.Accuracy = *c.Accuracy
		}
	}

	return click
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(id, short_code, original_url, validity_minutes, is_custom, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		url.ID, url.ShortCode, url.OriginalURL, url.ValidityMinutes, url.IsCustom, url.CreatedAt, url.ExpiresAt)
	if err != nil {
		if isPgError(err, uniqueViolationErrCode) {
			return fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) List(ctx context.Context) ([]entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.List"
	const query = `SELECT * FROM urls ORDER BY created_at, short_code`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w", op, err)
	}

	urls := make([]entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, *rows[i].toEntity())
	}

	return urls, nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT * FROM urls WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// RemoveExpired deletes urls expired at now. Their clicks are removed by the foreign key cascade.
func (r *URLRepository) RemoveExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "adapter.repository.postgres.URLRepository.RemoveExpired"
	const query = `DELETE FROM urls WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return rowsAffected, nil
}

func (r *URLRepository) SaveClick(ctx context.Context, shortCode string, click entity.Click) error {
	const op = "adapter.repository.postgres.URLRepository.SaveClick"
	const query = `INSERT INTO clicks(short_code, clicked_at, referrer, user_agent, referred_at, latitude, longitude, accuracy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var lat, lon *float64
	var acc *int

	if loc := click.Location; loc != nil {
		lat, lon, acc = &loc.Latitude, &loc.Longitude, &loc.Accuracy
	}

	_, err := r.db.ExecContext(ctx, query,
		shortCode, click.Timestamp, click.Referrer.Referrer, click.Referrer.UserAgent, click.Referrer.Timestamp,
		lat, lon, acc)
	if err != nil {
		if isPgError(err, foreignKeyViolationErrCode) {
			return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return fmt.Errorf("%s: failed to insert into clicks table: %w", op, err)
	}

	return nil
}

func (r *URLRepository) ListClicks(ctx context.Context, shortCode string) ([]entity.Click, error) {
	const op = "adapter.repository.postgres.URLRepository.ListClicks"
	const query = `SELECT short_code, clicked_at, referrer, user_agent, referred_at, latitude, longitude, accuracy
		FROM clicks WHERE short_code = $1 ORDER BY clicked_at, id`

	var rows []clickDB

	if err := r.db.SelectContext(ctx, &rows, query, shortCode); err != nil {
		return nil, fmt.Errorf("%s: failed to select from clicks table: %w", op, err)
	}

	clicks := make([]entity.Click, 0, len(rows))
	for i := range rows {
		clicks = append(clicks, rows[i].toEntity())
	}

	return clicks, nil
}

func (r *URLRepository) Analytics(ctx context.Context) (map[string][]entity.Click, error) {
	const op = "adapter.repository.postgres.URLRepository.Analytics"
	const query = `SELECT short_code, clicked_at, referrer, user_agent, referred_at, latitude, longitude, accuracy
		FROM clicks ORDER BY short_code, clicked_at, id`

	var rows []clickDB

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: failed to select from clicks table: %w", op, err)
	}

	analytics := make(map[string][]entity.Click)
	for i := range rows {
		analytics[rows[i].ShortCode] = append(analytics[rows[i].ShortCode], rows[i].toEntity())
	}

	return analytics, nil
}

func (r *URLRepository) Clear(ctx context.Context) error {
	const op = "adapter.repository.postgres.URLRepository.Clear"
	const query = `TRUNCATE TABLE clicks, urls RESTART IDENTITY`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: failed to truncate tables: %w", op, err)
	}

	return nil
}
