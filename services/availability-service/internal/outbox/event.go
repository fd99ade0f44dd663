package outbox

import (
	"encoding/json"
	"time"
)

// Event is the envelope written to outbox_events. The Kafka topic is the
// event type and the key is the aggregate id.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const AggregateDoctor = "doctor"

const (
	EventOpeningCreated        = "availability.opening.created.v1"
	EventOpeningDeleted        = "availability.opening.deleted.v1"
	EventUnavailabilityCreated = "availability.unavailability.created.v1"
	EventUnavailabilityDeleted = "availability.unavailability.deleted.v1"
	EventScheduleUpdated       = "availability.schedule.updated.v1"
	EventDoctorUpdated         = "availability.doctor.updated.v1"
)

// ChangePayload describes what changed in a doctor's availability. Range
// fields are empty for schedule and doctor config changes.
type ChangePayload struct {
	DoctorID   string    `json:"doctor_id"`
	EntityID   string    `json:"entity_id,omitempty"`
	StartUTC   time.Time `json:"start_utc,omitzero"`
	EndUTC     time.Time `json:"end_utc,omitzero"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewDoctorEvent(eventType string, p ChangePayload) (Event, error) {
	if p.OccurredAt.IsZero() {
		p.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateDoctor,
		AggregateID:   p.DoctorID,
		EventType:     eventType,
		Payload:       b,
	}, nil
}
