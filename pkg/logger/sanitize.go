package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "***"

// sensitiveKeys are matched as substrings after lower-casing and removing
// "-" and "_", so "X-Refresh-Token" and "new_password" both hit.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"pwd",
	"token",
	"secret",
	"authorization",
	"cookie",
	"privatekey",
}

// SanitizeFields masks fields whose key, or any nested map key, looks
// like a credential.
func SanitizeFields(fields []zap.Field) []zap.Field {
	if len(fields) == 0 {
		return fields
	}

	out := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if IsSensitiveKey(field.Key) {
			out = append(out, zap.String(field.Key, redacted))
			continue
		}

		value, ok := encodeField(field)[field.Key]
		if !ok {
			out = append(out, field)
			continue
		}
		switch value.(type) {
		case map[string]any, []any:
			out = append(out, zap.Any(field.Key, scrub(field.Key, value)))
		default:
			out = append(out, field)
		}
	}
	return out
}

// SanitizeMap returns a copy of values with credential-like keys masked.
func SanitizeMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out, _ := scrub("", values).(map[string]any)
	return out
}

func scrub(key string, value any) any {
	if IsSensitiveKey(key) {
		return redacted
	}

	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = scrub(k, v)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, scrub(key, item))
		}
		return out
	default:
		return typed
	}
}

func encodeField(field zap.Field) map[string]any {
	enc := zapcore.NewMapObjectEncoder()
	field.AddTo(enc)
	return enc.Fields
}

func IsSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	normalized = strings.NewReplacer("-", "", "_", "").Replace(normalized)

	for _, token := range sensitiveKeys {
		if strings.Contains(normalized, token) {
			return true
		}
	}
	return false
}
