package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsIdentifiers(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("action", "payout_decision"),
		attribute.String("payout_id", "P1"),
		attribute.String("actor_id", "admin-1"),
		attribute.String("service_module", "blind-date"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "payout_id" || attr.Key == "actor_id" {
			t.Fatalf("identifier %s leaked into labels", attr.Key)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCommand(context.Background(), "advance_booking", "blind-date", "ok")
	m.RecordTransition(context.Background(), "booking", "completed")
	m.RecordNotification(context.Background(), "amqp", "ok")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "rendezvous"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordCommand(context.Background(), "decide_payout", "", "conflict")
}
