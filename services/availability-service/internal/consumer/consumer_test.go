package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"github.com/segmentio/kafka-go"
)

type fakeBookings struct {
	recorded  []model.Booking
	cancelled []string
	err       error
}

func (f *fakeBookings) RecordBooking(_ context.Context, b model.Booking) error {
	if f.err != nil {
		return f.err
	}
	f.recorded = append(f.recorded, b)
	return nil
}

func (f *fakeBookings) CancelBooking(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeInbox struct {
	seen      map[string]bool
	forgotten []string
}

func (f *fakeInbox) Record(_ context.Context, id, _ string) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeInbox) Forget(_ context.Context, id string) error {
	delete(f.seen, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

// fakeReader hands out msgs in order, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []kafka.Message
	closed    bool
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{msgs: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) == 0 {
		r.mu.Unlock()
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	r.mu.Unlock()
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func eventMessage(id string, offset int64) kafka.Message {
	return kafka.Message{
		Topic:   TopicBookingBooked,
		Offset:  offset,
		Value:   []byte(`{"appointment_id":"5f0c7a52-3c55-4a8e-9a43-0d6f1b4a8e11","doctor_id":"doc-1","start_time":"2026-03-02T07:00:00Z","end_time":"2026-03-02T07:30:00Z"}`),
		Headers: []kafka.Header{{Key: "event_id", Value: []byte(id)}},
	}
}

func runUntil(t *testing.T, c *Consumer, ready <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("consumer did not reach the expected state")
	}
	cancel()
	<-done
}

func TestBookingHandler(t *testing.T) {
	store := &fakeBookings{}
	h := BookingHandler(store, quietLogger())
	ctx := context.Background()

	msgs := []kafka.Message{
		{Topic: TopicBookingBooked, Value: []byte(`{"appointment_id":"5f0c7a52-3c55-4a8e-9a43-0d6f1b4a8e11","doctor_id":"doc-1","service_id":"consult","start_time":"2026-03-02T10:00:00+03:00","end_time":"2026-03-02T10:30:00+03:00"}`)},
		{Topic: TopicBookingCancelled, Value: []byte(`{"appointment_id":"0b6f77f1-4a3e-4f0f-8f43-6a0f1b2c3d4e","staff_id":"doc-2","start_time":"2026-03-02T08:00:00Z","end_time":"2026-03-02T08:30:00Z"}`)},
		{Topic: TopicBookingCancelled, Value: []byte(`{"appointment_id":"5f0c7a52-3c55-4a8e-9a43-0d6f1b4a8e11"}`)},
		{Topic: TopicBookingBooked, Value: []byte(`not json`)},
		{Topic: TopicBookingBooked, Value: []byte(`{"appointment_id":"a3","doctor_id":"doc-1"}`)},
		{Topic: TopicBookingBooked, Value: []byte(`{"appointment_id":"9d1c1f7e-2b1a-4c7e-8d9f-1a2b3c4d5e6f","doctor_id":"doc-1","start_time":"2026-03-02T08:00:00Z","end_time":"2026-03-02T08:00:00Z"}`)},
	}
	for _, m := range msgs {
		if err := h(ctx, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(store.recorded) != 2 {
		t.Fatalf("expected 2 recorded bookings, got %v", store.recorded)
	}
	first := store.recorded[0]
	if first.DoctorID != "doc-1" || first.Status != model.BookingConfirmed || first.ServiceID != "consult" ||
		!first.StartUTC.Equal(time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected booking %+v", first)
	}
	if second := store.recorded[1]; second.DoctorID != "doc-2" || second.Status != model.BookingCancelled {
		t.Fatalf("unexpected cancelled booking %+v", second)
	}
	if len(store.cancelled) != 1 || store.cancelled[0] != "5f0c7a52-3c55-4a8e-9a43-0d6f1b4a8e11" {
		t.Fatalf("expected a bare cancellation by id, got %v", store.cancelled)
	}

	store.err = errors.New("db down")
	if err := h(ctx, msgs[0]); err == nil {
		t.Fatalf("expected store error to surface")
	}
}

func TestRun_CommitsHandledAndDuplicateMessages(t *testing.T) {
	ib := &fakeInbox{seen: map[string]bool{}}
	calls := 0
	reader := newFakeReader(eventMessage("evt-1", 1), eventMessage("evt-1", 2), eventMessage("evt-2", 3))
	c := &Consumer{reader: reader, logger: quietLogger(), inbox: ib, retry: time.Millisecond,
		handler: func(context.Context, kafka.Message) error {
			calls++
			return nil
		}}

	runUntil(t, c, reader.drained)

	if calls != 2 {
		t.Fatalf("expected the duplicate to skip the handler, got %d calls", calls)
	}
	if len(reader.committed) != 3 {
		t.Fatalf("expected every message to be committed, got %d", len(reader.committed))
	}
	if !reader.closed {
		t.Fatalf("expected reader to be closed")
	}
}

func TestRun_FailedHandlerLeavesMessageUncommitted(t *testing.T) {
	ib := &fakeInbox{seen: map[string]bool{}}
	reader := newFakeReader(eventMessage("evt-1", 7))
	failed := make(chan struct{})
	attempts := 0
	c := &Consumer{reader: reader, logger: quietLogger(), inbox: ib, retry: time.Millisecond,
		handler: func(context.Context, kafka.Message) error {
			attempts++
			if attempts == 3 {
				close(failed)
			}
			return errors.New("db down")
		}}

	runUntil(t, c, failed)

	if len(reader.committed) != 0 {
		t.Fatalf("expected no commit after handler failures, got %v", reader.committed)
	}
	if len(ib.forgotten) < 3 || ib.seen["evt-1"] {
		t.Fatalf("expected each failed attempt to be forgotten, got %v", ib.forgotten)
	}
}

func TestRun_RetriesUntilHandlerSucceeds(t *testing.T) {
	ib := &fakeInbox{seen: map[string]bool{}}
	reader := newFakeReader(eventMessage("evt-1", 7))
	attempts := 0
	c := &Consumer{reader: reader, logger: quietLogger(), inbox: ib, retry: time.Millisecond,
		handler: func(context.Context, kafka.Message) error {
			attempts++
			if attempts < 3 {
				return errors.New("db down")
			}
			return nil
		}}

	runUntil(t, c, reader.drained)

	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(reader.committed) != 1 || reader.committed[0].Offset != 7 {
		t.Fatalf("expected the message to be committed once, got %v", reader.committed)
	}
	if !ib.seen["evt-1"] {
		t.Fatalf("expected the handled event to stay in the inbox")
	}
}
