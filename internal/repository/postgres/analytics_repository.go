package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type analyticsRepository struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepository(pool *pgxpool.Pool) repository.AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

var _ repository.AnalyticsRepository = (*analyticsRepository)(nil)

const analyticsColumns = `
	id,
	date,
	active_users,
	new_users,
	page_views,
	desktop_users,
	mobile_users,
	tablet_users,
	avg_session_duration,
	bounce_rate,
	recorded_by_id,
	created_at
`

func (r *analyticsRepository) Create(ctx context.Context, item *model.Analytics) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Date.IsZero() {
		item.Date = item.CreatedAt
	}

	query := `
		INSERT INTO analytics (
			id, date, active_users, new_users, page_views, desktop_users, mobile_users,
			tablet_users, avg_session_duration, bounce_rate, recorded_by_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Date,
		item.ActiveUsers,
		item.NewUsers,
		item.PageViews,
		item.DesktopUsers,
		item.MobileUsers,
		item.TabletUsers,
		item.AvgSessionDuration,
		item.BounceRate,
		item.RecordedByID,
		item.CreatedAt,
	)
	return translateError(err)
}

func (r *analyticsRepository) List(ctx context.Context, filter repository.AnalyticsListFilter) ([]*model.Analytics, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args := make([]any, 0, 4)
	conditions := dateRangeConditions(filter.From, filter.To, &args)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(analyticsColumns)
	builder.WriteString(" FROM analytics")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	args = append(args, limit, offset)
	_, _ = fmt.Fprintf(&builder, " ORDER BY date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.Analytics, 0, limit)
	for rows.Next() {
		item := &model.Analytics{}
		if err := rows.Scan(
			&item.ID,
			&item.Date,
			&item.ActiveUsers,
			&item.NewUsers,
			&item.PageViews,
			&item.DesktopUsers,
			&item.MobileUsers,
			&item.TabletUsers,
			&item.AvgSessionDuration,
			&item.BounceRate,
			&item.RecordedByID,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *analyticsRepository) Totals(ctx context.Context, from, to *time.Time) (*model.AnalyticsTotals, error) {
	args := make([]any, 0, 2)
	conditions := dateRangeConditions(from, to, &args)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(active_users), 0),
			COALESCE(SUM(new_users), 0),
			COALESCE(SUM(page_views), 0),
			COALESCE(SUM(desktop_users), 0),
			COALESCE(SUM(mobile_users), 0),
			COALESCE(SUM(tablet_users), 0),
			COALESCE(AVG(avg_session_duration), 0),
			COALESCE(AVG(bounce_rate), 0)
		FROM analytics
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	totals := &model.AnalyticsTotals{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&totals.Days,
		&totals.ActiveUsers,
		&totals.NewUsers,
		&totals.PageViews,
		&totals.DesktopUsers,
		&totals.MobileUsers,
		&totals.TabletUsers,
		&totals.AvgSessionDuration,
		&totals.BounceRate,
	)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *analyticsRepository) TopContent(ctx context.Context, limit int) ([]*model.ContentEngagement, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		WITH engagement AS (
			SELECT 'announcement' AS kind, a.id, a.title, a.published,
				(SELECT COUNT(*) FROM comments c WHERE c.announcement_id = a.id) AS comments,
				(SELECT COUNT(*) FROM reactions r WHERE r.announcement_id = a.id) AS reactions
			FROM announcements a
			UNION ALL
			SELECT 'event' AS kind, e.id, e.title, e.published,
				(SELECT COUNT(*) FROM comments c WHERE c.event_id = e.id) AS comments,
				(SELECT COUNT(*) FROM reactions r WHERE r.event_id = e.id) AS reactions
			FROM events e
		)
		SELECT kind, id, title, published, comments, reactions
		FROM engagement
		WHERE comments + reactions > 0
		ORDER BY comments + reactions DESC, title ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.ContentEngagement, 0, limit)
	for rows.Next() {
		item := &model.ContentEngagement{}
		if err := rows.Scan(&item.Kind, &item.ID, &item.Title, &item.Published, &item.Comments, &item.Reactions); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func dateRangeConditions(from, to *time.Time, args *[]any) []string {
	conditions := make([]string, 0, 2)
	if from != nil {
		*args = append(*args, *from)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(*args)))
	}
	if to != nil {
		*args = append(*args, *to)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(*args)))
	}
	return conditions
}
