package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Endpoint: "  "})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestServiceNameDefault(t *testing.T) {
	assert.Equal(t, "visionboard", Config{}.Name())
	assert.Equal(t, "board-api", Config{ServiceName: " board-api "}.Name())
}
