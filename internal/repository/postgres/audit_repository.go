package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/janzenegnisaban/vision-board-sub000/internal/model"
	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

// auditRepository is append-only: rows are written by services and read by
// the superadmin audit view.
type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &auditRepository{pool: pool}
}

var _ repository.AuditRepository = (*auditRepository)(nil)

var auditInsertColumns = []string{
	"actor_id", "actor_role", "action", "resource_type", "resource_id",
	"old_value", "new_value", "ip_address", "user_agent", "created_at",
}

var auditSelectColumns = "id, " + strings.Join(auditInsertColumns, ", ")

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	before, err := encodeJSONMap(entry.OldValue)
	if err != nil {
		return fmt.Errorf("encode audit old value: %w", err)
	}
	after, err := encodeJSONMap(entry.NewValue)
	if err != nil {
		return fmt.Errorf("encode audit new value: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO audit_logs (%s) VALUES (%s) RETURNING id",
		strings.Join(auditInsertColumns, ", "), placeholders(len(auditInsertColumns)))

	return translateError(r.pool.QueryRow(ctx, query,
		entry.ActorID, entry.ActorRole, entry.Action, entry.ResourceType, entry.ResourceID,
		before, after, entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	).Scan(&entry.ID))
}

func (r *auditRepository) List(ctx context.Context, filter repository.AuditListFilter) ([]*model.AuditLog, error) {
	limit, offset := normalizePagination(filter.Pagination)

	var where whereBuilder
	if filter.ActorID != nil {
		where.add("actor_id = $%d", *filter.ActorID)
	}
	if filter.ResourceType != nil {
		where.add("resource_type = $%d", *filter.ResourceType)
	}
	if filter.StartTime != nil {
		where.add("created_at >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		where.add("created_at <= $%d", *filter.EndTime)
	}

	query := "SELECT " + auditSelectColumns + " FROM audit_logs" + where.sql() +
		where.page("ORDER BY created_at DESC, id DESC", limit, offset)

	rows, err := r.pool.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.AuditLog, error) {
		return scanAuditLog(row)
	})
}

func scanAuditLog(src scanTarget) (*model.AuditLog, error) {
	var (
		entry         model.AuditLog
		before, after []byte
	)
	if err := src.Scan(
		&entry.ID, &entry.ActorID, &entry.ActorRole, &entry.Action, &entry.ResourceType, &entry.ResourceID,
		&before, &after, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if entry.OldValue, err = decodeJSONMap(before); err != nil {
		return nil, fmt.Errorf("decode audit old value: %w", err)
	}
	if entry.NewValue, err = decodeJSONMap(after); err != nil {
		return nil, fmt.Errorf("decode audit new value: %w", err)
	}
	return &entry, nil
}
