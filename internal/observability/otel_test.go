package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 0.5, clampRatio(0.5))
	assert.Equal(t, 1.0, clampRatio(3))
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "collector:4318", hostPort("http://collector:4318/v1/traces"))
	assert.Equal(t, "collector:4318", hostPort("https://collector:4318"))
	assert.Equal(t, "collector:4318", hostPort("collector:4318"))
}

func TestInitOTelDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}
