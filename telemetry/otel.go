package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each Event into an immediately-closed OpenTelemetry
// span: one point-in-time occurrence rather than a duration, matching how
// Events are produced here (deploy accepted, heartbeat missed, operator
// panic) rather than wrapping a long-lived operation.
type OTelEmitter struct {
	tracer trace.Tracer
}

func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("job_id", event.JobId),
		attribute.String("execution_id", event.ExecutionId),
		attribute.Int("operator_id", event.OperatorId),
	)
	for k, v := range event.Meta {
		span.SetAttributes(attribute.String(k, toAttrString(v)))
	}
	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, toAttrString(errVal))
	}
}

func toAttrString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (o *OTelEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		o.Emit(event)
	}
	return nil
}

// Flush is a no-op: span export is the tracer provider's responsibility,
// configured by whoever constructed the trace.Tracer this emitter wraps.
func (o *OTelEmitter) Flush(context.Context) error { return nil }
