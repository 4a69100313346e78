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

type announcementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(pool *pgxpool.Pool) repository.AnnouncementRepository {
	return &announcementRepository{pool: pool}
}

var _ repository.AnnouncementRepository = (*announcementRepository)(nil)

const announcementColumns = `
	id,
	title,
	content,
	category,
	display_type,
	date,
	published,
	author_id,
	image,
	images,
	hotspots,
	timeline_events,
	created_at,
	updated_at
`

func (r *announcementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`
	item, err := scanAnnouncement(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *announcementRepository) Create(ctx context.Context, item *model.Announcement) error {
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
	if item.Date.IsZero() {
		item.Date = item.CreatedAt
	}

	payload, err := encodeAnnouncementPayload(item)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO announcements (
			id, title, content, category, display_type, date, published, author_id,
			image, images, hotspots, timeline_events, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.pool.Exec(
		ctx,
		query,
		item.ID,
		item.Title,
		item.Content,
		item.Category,
		item.DisplayType,
		item.Date,
		item.Published,
		item.AuthorID,
		item.Image,
		payload.images,
		payload.hotspots,
		payload.timeline,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return translateError(err)
}

func (r *announcementRepository) Update(ctx context.Context, item *model.Announcement) error {
	item.UpdatedAt = time.Now().UTC()
	payload, err := encodeAnnouncementPayload(item)
	if err != nil {
		return err
	}

	query := `
		UPDATE announcements
		SET title = $2,
			content = $3,
			category = $4,
			display_type = $5,
			date = $6,
			published = $7,
			image = $8,
			images = $9,
			hotspots = $10,
			timeline_events = $11,
			updated_at = $12
		WHERE id = $1
	`

	tag, err := r.pool.Exec(
		ctx,
		query,
		item.ID,
		item.Title,
		item.Content,
		item.Category,
		item.DisplayType,
		item.Date,
		item.Published,
		item.Image,
		payload.images,
		payload.hotspots,
		payload.timeline,
		item.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	query := `UPDATE announcements SET published = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, published)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *announcementRepository) List(ctx context.Context, filter repository.AnnouncementListFilter) ([]*model.Announcement, error) {
	limit, offset := normalizePagination(filter.Pagination)

	args := make([]any, 0, 4)
	conditions := buildAnnouncementConditions(filter, &args)

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(announcementColumns)
	builder.WriteString(" FROM announcements")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	args = append(args, limit, offset)
	_, _ = fmt.Fprintf(&builder, " ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.Announcement, 0, limit)
	for rows.Next() {
		item, err := scanAnnouncement(rows)
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

func (r *announcementRepository) Count(ctx context.Context, filter repository.AnnouncementListFilter) (int64, error) {
	args := make([]any, 0, 2)
	conditions := buildAnnouncementConditions(filter, &args)

	query := "SELECT COUNT(*) FROM announcements"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildAnnouncementConditions(filter repository.AnnouncementListFilter, args *[]any) []string {
	conditions := make([]string, 0, 2)
	if filter.Category != nil {
		*args = append(*args, *filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(*args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	return conditions
}

type announcementPayload struct {
	images   []byte
	hotspots []byte
	timeline []byte
}

func encodeAnnouncementPayload(item *model.Announcement) (announcementPayload, error) {
	var (
		out announcementPayload
		err error
	)
	if out.images, err = encodeJSONList(item.Images); err != nil {
		return out, fmt.Errorf("encode images: %w", err)
	}
	if out.hotspots, err = encodeJSONList(item.Hotspots); err != nil {
		return out, fmt.Errorf("encode hotspots: %w", err)
	}
	if out.timeline, err = encodeJSONList(item.TimelineEvents); err != nil {
		return out, fmt.Errorf("encode timeline events: %w", err)
	}
	return out, nil
}

func scanAnnouncement(src scanTarget) (*model.Announcement, error) {
	item := &model.Announcement{}
	var imagesRaw, hotspotsRaw, timelineRaw []byte

	err := src.Scan(
		&item.ID,
		&item.Title,
		&item.Content,
		&item.Category,
		&item.DisplayType,
		&item.Date,
		&item.Published,
		&item.AuthorID,
		&item.Image,
		&imagesRaw,
		&hotspotsRaw,
		&timelineRaw,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if item.Images, err = decodeJSONList[string](imagesRaw); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if item.Hotspots, err = decodeJSONList[model.Hotspot](hotspotsRaw); err != nil {
		return nil, fmt.Errorf("decode hotspots: %w", err)
	}
	if item.TimelineEvents, err = decodeJSONList[model.TimelineEvent](timelineRaw); err != nil {
		return nil, fmt.Errorf("decode timeline events: %w", err)
	}

	return item, nil
}
