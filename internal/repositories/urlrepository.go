package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	shortIDConstraint = "short_links_short_id_key"
	emailConstraint   = "users_email_idx"
)

// Querier подмножество методов pgxpool.Pool, нужное репозиторию.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PGRepository хранит ссылки и пользователей в PostgreSQL.
type PGRepository struct {
	DB    Querier
	close func()
}

// NewPGRepository создаёт репозиторий поверх пула соединений.
// closeFn вызывается из Close и может быть nil.
func NewPGRepository(db Querier, closeFn func()) *PGRepository {
	return &PGRepository{DB: db, close: closeFn}
}

const linkColumns = `id, short_id, long_url, created_by, visit_history, created_at, updated_at`

func scanLink(row pgx.Row) (*model.ShortLink, error) {
	var (
		link      model.ShortLink
		createdBy *string
		visits    []int64
	)
	err := row.Scan(&link.ID, &link.ShortID, &link.LongURL, &createdBy, &visits, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		link.CreatedBy = *createdBy
	}
	link.VisitHistory = make([]model.Visit, len(visits))
	for i, ts := range visits {
		link.VisitHistory[i] = model.Visit{Timestamp: ts}
	}
	return &link, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return fmt.Errorf("database error: %w", err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// FindByLongURL ищет самую раннюю ссылку на longURL того же владельца.
func (r *PGRepository) FindByLongURL(ctx context.Context, longURL, ownerID string) (*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links
              WHERE long_url = $1 AND created_by IS NOT DISTINCT FROM $2
              ORDER BY created_at LIMIT 1`
	link, err := scanLink(r.DB.QueryRow(ctx, query, longURL, nullable(ownerID)))
	if err != nil {
		return nil, notFound(err, "link by long url")
	}
	return link, nil
}

// Create сохраняет новую ссылку.
// Если short_id уже занят, возвращает model.ErrCodeTaken.
func (r *PGRepository) Create(ctx context.Context, link *model.ShortLink) error {
	query := `INSERT INTO short_links (id, short_id, long_url, created_by, visit_history, created_at, updated_at)
              VALUES ($1, $2, $3, $4, '{}', $5, $6)`
	_, err := r.DB.Exec(ctx, query, link.ID, link.ShortID, link.LongURL, nullable(link.CreatedBy), link.CreatedAt, link.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, shortIDConstraint) {
			return model.ErrCodeTaken
		}
		return fmt.Errorf("database insert error: %w", err)
	}
	return nil
}

// FindByCode извлекает ссылку по короткому идентификатору.
func (r *PGRepository) FindByCode(ctx context.Context, shortID string) (*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE short_id = $1`
	link, err := scanLink(r.DB.QueryRow(ctx, query, shortID))
	if err != nil {
		return nil, notFound(err, "link by short id")
	}
	return link, nil
}

// FindByID извлекает ссылку по id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE id = $1`
	link, err := scanLink(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "link by id")
	}
	return link, nil
}

// AppendVisit дописывает переход одним UPDATE: блокировка строки не даёт
// потерять конкурентные переходы.
func (r *PGRepository) AppendVisit(ctx context.Context, shortID string, at time.Time) (*model.ShortLink, error) {
	query := `UPDATE short_links
              SET visit_history = array_append(visit_history, $2), updated_at = $3
              WHERE short_id = $1
              RETURNING ` + linkColumns
	link, err := scanLink(r.DB.QueryRow(ctx, query, shortID, at.UnixMilli(), at))
	if err != nil {
		return nil, notFound(err, "append visit")
	}
	return link, nil
}

// ListByOwner возвращает все сокращённые ссылки пользователя.
func (r *PGRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE created_by = $1 ORDER BY created_at`
	return r.queryLinks(ctx, query, ownerID)
}

// ListAll возвращает все ссылки.
func (r *PGRepository) ListAll(ctx context.Context) ([]*model.ShortLink, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links ORDER BY created_at`
	return r.queryLinks(ctx, query)
}

func (r *PGRepository) queryLinks(ctx context.Context, query string, args ...any) ([]*model.ShortLink, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	results := make([]*model.ShortLink, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return results, nil
}

// DeleteByID удаляет ссылку.
func (r *PGRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM short_links WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Ping проверяет доступность базы данных.
func (r *PGRepository) Ping(ctx context.Context) error {
	return r.DB.Ping(ctx)
}

// Close освобождает пул соединений.
func (r *PGRepository) Close() error {
	if r.close != nil {
		r.close()
	}
	return nil
}
