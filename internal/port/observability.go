package port

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/storefront/internal/core/domain"
)

type GatewayMetrics interface {
	ObserveFetch(outcome string)
}

type InventoryMetrics interface {
	ObserveItem(outcome domain.ItemOutcome)
	ObserveCommit(err error)
}

type Tracer interface {
	Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}
