package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/janzenegnisaban/vision-board-sub000/internal/repository"
)

func normalizeStringPointer(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseID(raw string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		// A malformed id cannot match any row.
		return uuid.Nil, notFound
	}
	return id, nil
}

func pageOf(limit, offset int) repository.Pagination {
	return repository.Pagination{Limit: clampInt32(limit), Offset: clampInt32(offset)}
}

func clampInt32(v int) int32 {
	const maxInt32 = int(^uint32(0) >> 1)
	if v > maxInt32 {
		return int32(maxInt32)
	}
	if v < 0 {
		return 0
	}
	return int32(v)
}

func stringPtrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
