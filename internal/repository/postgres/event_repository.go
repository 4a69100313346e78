package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

var _ repository.EventRepository = (*eventRepository)(nil)

const eventColumns = `
	id,
	title,
	location,
	date,
	start_time,
	end_time,
	details,
	category,
	department,
	published,
	created_by_id,
	created_at,
	updated_at
`

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	item, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *eventRepository) Create(ctx context.Context, item *model.Event) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	query := `
		INSERT INTO events (
			id, title, location, date, start_time, end_time, details,
			category, department, published, created_by_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(
		ctx,
		query,
		item.ID,
		item.Title,
		item.Location,
		item.Date,
		item.StartTime,
		item.EndTime,
		item.Details,
		item.Category,
		item.Department,
		item.Published,
		item.CreatedByID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return translateError(err)
}

func (r *eventRepository) Update(ctx context.Context, item *model.Event) error {
	item.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE events
		SET title = $2,
			location = $3,
			date = $4,
			start_time = $5,
			end_time = $6,
			details = $7,
			category = $8,
			department = $9,
			published = $10,
			updated_at = $11
		WHERE id = $1
	`
	tag, err := r.pool.Exec(
		ctx,
		query,
		item.ID,
		item.Title,
		item.Location,
		item.Date,
		item.StartTime,
		item.EndTime,
		item.Details,
		item.Category,
		item.Department,
		item.Published,
		item.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *eventRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET published = $2, updated_at = NOW() WHERE id = $1`, id, published)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *eventRepository) List(ctx context.Context, filter repository.EventListFilter) ([]*model.Event, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args := make([]any, 0, 6)
	conditions := buildEventConditions(filter, &args)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(eventColumns)
	builder.WriteString(" FROM events")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit, offset)
	_, _ = fmt.Fprintf(&builder, " ORDER BY date ASC, start_time ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.Event, 0, limit)
	for rows.Next() {
		item, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *eventRepository) Count(ctx context.Context, filter repository.EventListFilter) (int64, error) {
	args := make([]any, 0, 4)
	conditions := buildEventConditions(filter, &args)

	query := "SELECT COUNT(*) FROM events"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildEventConditions(filter repository.EventListFilter, args *[]any) []string {
	conditions := make([]string, 0, 4)
	if filter.Category != nil {
		*args = append(*args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(*args)))
	}
	if filter.From != nil {
		*args = append(*args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(*args)))
	}
	if filter.To != nil {
		*args = append(*args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(*args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	return conditions
}

func scanEvent(src scanTarget) (*model.Event, error) {
	item := &model.Event{}
	err := src.Scan(
		&item.ID,
		&item.Title,
		&item.Location,
		&item.Date,
		&item.StartTime,
		&item.EndTime,
		&item.Details,
		&item.Category,
		&item.Department,
		&item.Published,
		&item.CreatedByID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}
