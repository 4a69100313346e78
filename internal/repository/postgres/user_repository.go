package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

var _ repository.UserRepository = (*userRepository)(nil)

const userColumns = "id, email, password_hash, name, role, active, created_at, updated_at"

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail matches case-insensitively, mirroring the unique index on LOWER(email).
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

func (r *userRepository) findOne(ctx context.Context, condition string, arg any) (*model.User, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+condition, arg)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	_, err := r.pool.Exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ("+placeholders(8)+")",
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	return translateError(err)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, name = $4, role = $5, active = $6, updated_at = $7
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.Active, user.UpdatedAt,
	)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

// Delete fails with repository.ErrReferenced while the user still authors
// announcements or events.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return ensureAffected(tag)
}

func (r *userRepository) List(ctx context.Context, filter repository.UserListFilter) ([]*model.User, error) {
	limit, offset := normalizePagination(filter.Pagination)
	where := userFilter(filter)
	query := "SELECT " + userColumns + " FROM users" + where.sql() +
		where.page("ORDER BY created_at DESC", limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.User, error) {
		return scanUser(row)
	})
}

func (r *userRepository) Count(ctx context.Context, filter repository.UserListFilter) (int64, error) {
	where := userFilter(filter)

	var total int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where.sql(), where.args...).Scan(&total)
	return total, err
}

func userFilter(filter repository.UserListFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.Role != nil {
		where.add("role = $%d", *filter.Role)
	}
	if filter.Active != nil {
		where.add("active = $%d", *filter.Active)
	}
	if filter.Keyword != nil {
		if keyword := strings.TrimSpace(*filter.Keyword); keyword != "" {
			where.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+keyword+"%")
		}
	}
	return where
}

func scanUser(src scanTarget) (*model.User, error) {
	var user model.User
	if err := src.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
