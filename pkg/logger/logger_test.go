package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeFieldsMasksCredentials(t *testing.T) {
	fields := SanitizeFields([]zap.Field{
		zap.String("new_password", "hunter22"),
		zap.String("X-Refresh-Token", "abc"),
		zap.String("email", "ada@example.com"),
		zap.Any("body", map[string]any{
			"email": "ada@example.com",
			"credentials": map[string]any{
				"passwd": "hunter22",
			},
		}),
	})

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}

	assert.Equal(t, redacted, enc.Fields["new_password"])
	assert.Equal(t, redacted, enc.Fields["X-Refresh-Token"])
	assert.Equal(t, "ada@example.com", enc.Fields["email"])

	body, ok := enc.Fields["body"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Equal(t, map[string]any{"passwd": redacted}, body["credentials"])
}

func TestSystemLogStoreKeepsNewestEntries(t *testing.T) {
	store := NewSystemLogStore(3)
	core, _ := observer.New(zapcore.DebugLevel)
	log := WrapZapLogger(zap.New(core), store)

	for _, msg := range []string{"one", "two", "three", "four"} {
		log.Info(msg)
	}

	entries, total := store.Query(LogQuery{})
	assert.EqualValues(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, "four", entries[0].Message)
	assert.Equal(t, "two", entries[2].Message)
	assert.Greater(t, entries[0].ID, entries[1].ID)
}

func TestSystemLogStoreFilters(t *testing.T) {
	store := NewSystemLogStore(10)
	core, recorded := observer.New(zapcore.DebugLevel)
	log := WrapZapLogger(zap.New(core), store).With(zap.String("component", "board"))

	log.Debug("cache warm")
	log.Info("announcement published", zap.String("id", "a1"))
	log.Warn("slow query", zap.String("token", "should-not-leak"))
	log.Error("database down")

	assert.Equal(t, 4, recorded.Len())

	entries, total := store.Query(LogQuery{MinLevel: "warn"})
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)
	assert.Equal(t, "database down", entries[0].Message)
	assert.Equal(t, redacted, entries[1].Fields["token"])
	assert.Equal(t, "board", entries[1].Fields["component"])

	entries, _ = store.Query(LogQuery{Keyword: "A1"})
	require.Len(t, entries, 1)
	assert.Equal(t, "announcement published", entries[0].Message)

	entries, total = store.Query(LogQuery{Limit: 1, Offset: 1})
	assert.EqualValues(t, 4, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "slow query", entries[0].Message)
}

func TestWrapZapLoggerRespectsLevel(t *testing.T) {
	store := NewSystemLogStore(10)
	core, _ := observer.New(zapcore.InfoLevel)
	log := WrapZapLogger(zap.New(core), store)

	log.Debug("hidden")
	log.Info("shown")

	assert.Equal(t, 1, store.Len())
}
