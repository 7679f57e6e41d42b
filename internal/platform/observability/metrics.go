package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hanko-field/product-editor/internal/platform/observability"

// EditorMetrics groups the counters recorded by editing sessions. A nil *EditorMetrics records
// nothing.
type EditorMetrics struct {
	regenerations metric.Int64Counter
	combinations  metric.Int64Counter
	mediaRewrites metric.Int64Counter
}

// NewEditorMetrics registers the editor counters on the supplied meter provider. A nil provider
// uses the global one, which is a no-op until the host installs an SDK.
func NewEditorMetrics(provider metric.MeterProvider) (*EditorMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	regenerations, err := meter.Int64Counter("editor.regenerations",
		metric.WithDescription("Matrix regeneration passes"))
	if err != nil {
		return nil, fmt.Errorf("observability: register regenerations counter: %w", err)
	}
	combinations, err := meter.Int64Counter("editor.combinations.generated",
		metric.WithDescription("Combinations produced by regeneration"))
	if err != nil {
		return nil, fmt.Errorf("observability: register combinations counter: %w", err)
	}
	mediaRewrites, err := meter.Int64Counter("editor.media.rewrites",
		metric.WithDescription("Media id lists rewritten once uploads finished"))
	if err != nil {
		return nil, fmt.Errorf("observability: register media rewrites counter: %w", err)
	}
	return &EditorMetrics{
		regenerations: regenerations,
		combinations:  combinations,
		mediaRewrites: mediaRewrites,
	}, nil
}

// RecordRegeneration counts one regeneration pass and the combinations it produced.
func (m *EditorMetrics) RecordRegeneration(ctx context.Context, generated int, catalogAvailable bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("catalog.available", catalogAvailable))
	m.regenerations.Add(ctx, 1, attrs)
	m.combinations.Add(ctx, int64(generated), attrs)
}

// RecordMediaRewrites counts media id lists that had placeholders replaced.
func (m *EditorMetrics) RecordMediaRewrites(ctx context.Context, rewrites int) {
	if m == nil || rewrites <= 0 {
		return
	}
	m.mediaRewrites.Add(ctx, int64(rewrites))
}
