package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

var ErrNotFound = repository.ErrNotFound

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type scanTarget interface {
	Scan(dest ...any) error
}

func normalizePagination(page repository.Pagination) (int32, int32) {
	return page.Normalize()
}

// translateError maps constraint violations onto repository errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repository.ErrConflict
		case pgForeignKeyViolation:
			return repository.ErrReferenced
		}
	}
	return err
}

func decodeJSONMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func encodeJSONMap(value map[string]any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	return json.Marshal(value)
}

// encodeJSONList stores nil and empty slices as SQL NULL.
func encodeJSONList[T any](items []T) ([]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	return json.Marshal(items)
}

func decodeJSONList[T any](raw []byte) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ensureAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// whereBuilder numbers positional arguments as conditions are added.
type whereBuilder struct {
	conditions []string
	args       []any
}

// add appends a condition whose single %d verb becomes the next $n.
func (w *whereBuilder) add(format string, value any) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) sql() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// page appends the ordering and LIMIT/OFFSET arguments.
func (w *whereBuilder) page(orderBy string, limit, offset int32) string {
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" %s LIMIT $%d OFFSET $%d", orderBy, len(w.args)-1, len(w.args))
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}
