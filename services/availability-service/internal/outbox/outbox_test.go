package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/kafkax"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewDoctorEvent(t *testing.T) {
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	evt, err := NewDoctorEvent(EventOpeningCreated, ChangePayload{
		DoctorID: "doc-1", EntityID: "op-1", StartUTC: start, EndUTC: start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.AggregateType != AggregateDoctor || evt.AggregateID != "doc-1" || evt.EventType != EventOpeningCreated {
		t.Fatalf("unexpected envelope %+v", evt)
	}

	var body map[string]any
	if err := json.Unmarshal(evt.Payload, &body); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if body["doctor_id"] != "doc-1" || body["start_utc"] != "2026-03-02T06:00:00Z" {
		t.Fatalf("unexpected payload %s", evt.Payload)
	}
	if _, ok := body["occurred_at"]; !ok {
		t.Fatalf("expected occurred_at to be filled")
	}
}

func TestMessage_CarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	r := Record{
		ID: 7, EventID: "evt-7", AggregateID: "doc-1", EventType: EventScheduleUpdated,
		Payload:     []byte(`{"doctor_id":"doc-1"}`),
		Traceparent: "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01",
	}
	msg := Message(context.Background(), r)
	if msg.Topic != EventScheduleUpdated || string(msg.Key) != "doc-1" {
		t.Fatalf("unexpected routing %s/%s", msg.Topic, msg.Key)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "evt-7" || meta.EventType != EventScheduleUpdated {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if got := kafkax.HeaderValue(msg.Headers, "traceparent"); got != r.Traceparent {
		t.Fatalf("expected traceparent %q, got %q", r.Traceparent, got)
	}
}
