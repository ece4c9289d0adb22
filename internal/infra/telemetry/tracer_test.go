package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/orderledger/server/internal/infra/config"
)

func TestInit_WithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Init(ctx, &config.TelemetryConfig{ServiceName: "orderledger-test", SampleRatio: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(ctx, "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.SpanContext().IsSampled())
}
