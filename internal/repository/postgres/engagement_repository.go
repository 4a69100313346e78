package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type commentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) repository.CommentRepository {
	return &commentRepository{pool: pool}
}

var _ repository.CommentRepository = (*commentRepository)(nil)

const commentColumns = `
	c.id,
	c.content,
	c.author_id,
	COALESCE(u.name, ''),
	c.announcement_id,
	c.event_id,
	c.created_at
`

const commentFrom = ` FROM comments c LEFT JOIN users u ON u.id = c.author_id`

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	query := `SELECT ` + commentColumns + commentFrom + ` WHERE c.id = $1`
	item, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *commentRepository) ListByTarget(ctx context.Context, target model.ContentRef, page repository.Pagination) ([]*model.Comment, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	limit, offset := normalizePagination(page)

	column := targetColumn(target, "c.")
	query := fmt.Sprintf(`SELECT %s%s WHERE %s = $1 ORDER BY c.created_at ASC LIMIT $2 OFFSET $3`,
		commentColumns, commentFrom, column)

	rows, err := r.pool.Query(ctx, query, target.ID(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*model.Comment, 0, limit)
	for rows.Next() {
		item, err := scanComment(rows)
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

func (r *commentRepository) Create(ctx context.Context, item *model.Comment) error {
	if err := item.Target().Validate(); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO comments (id, content, author_id, announcement_id, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Content,
		item.AuthorID,
		item.AnnouncementID,
		item.EventID,
		item.CreatedAt,
	)
	return translateError(err)
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanComment(src scanTarget) (*model.Comment, error) {
	item := &model.Comment{}
	err := src.Scan(
		&item.ID,
		&item.Content,
		&item.AuthorID,
		&item.AuthorName,
		&item.AnnouncementID,
		&item.EventID,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

type reactionRepository struct {
	pool *pgxpool.Pool
}

func NewReactionRepository(pool *pgxpool.Pool) repository.ReactionRepository {
	return &reactionRepository{pool: pool}
}

var _ repository.ReactionRepository = (*reactionRepository)(nil)

const reactionColumns = `
	id,
	type,
	user_id,
	announcement_id,
	event_id,
	created_at
`

func (r *reactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Reaction, error) {
	query := `SELECT ` + reactionColumns + ` FROM reactions WHERE id = $1`
	item := &model.Reaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Type,
		&item.UserID,
		&item.AnnouncementID,
		&item.EventID,
		&item.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Create fails with repository.ErrConflict when the user already left the
// same reaction type on the target.
func (r *reactionRepository) Create(ctx context.Context, item *model.Reaction) error {
	if err := item.Target().Validate(); err != nil {
		return err
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reactions (id, type, user_id, announcement_id, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Type,
		item.UserID,
		item.AnnouncementID,
		item.EventID,
		item.CreatedAt,
	)
	return translateError(err)
}

func (r *reactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return ensureAffected(tag)
}

func (r *reactionRepository) CountByTarget(ctx context.Context, target model.ContentRef) (map[model.ReactionType]int64, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT type, COUNT(*) FROM reactions WHERE %s = $1 GROUP BY type`, targetColumn(target, ""))

	rows, err := r.pool.Query(ctx, query, target.ID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.ReactionType]int64)
	for rows.Next() {
		var (
			reactionType model.ReactionType
			count        int64
		)
		if err := rows.Scan(&reactionType, &count); err != nil {
			return nil, err
		}
		counts[reactionType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *reactionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reactions`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func targetColumn(target model.ContentRef, prefix string) string {
	if target.Kind() == model.ContentEvent {
		return prefix + "event_id"
	}
	return prefix + "announcement_id"
}
