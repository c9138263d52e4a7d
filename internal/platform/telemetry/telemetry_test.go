package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/phrazzld/montage-api/internal/config"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_RequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), config.TelemetryConfig{Enabled: true}, "test")
	assert.Error(t, err)
}

func TestNewTracerProvider_EmitsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()

	tp, err := NewTracerProvider(exp, "montage-api", "v0")
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "video.submit")
	span.SetAttributes(attribute.String("task.id", "t-1"))
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "video.submit", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("task.id", "t-1"))

	var serviceName string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, "montage-api", serviceName)

	require.NoError(t, tp.Shutdown(context.Background()))
}
