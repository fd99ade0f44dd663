package rpcclient

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/grpcserver"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubEngine struct {
	query availability.Query
}

func (s *stubEngine) ComputeSlots(_ context.Context, q availability.Query) ([]availability.Slot, error) {
	s.query = q
	if q.DoctorID == "ghost" {
		return nil, availability.ErrNotFound
	}
	if q.ServiceDurationMin <= 0 {
		return nil, availability.ErrInvalidDuration
	}
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	return []availability.Slot{
		{StartUTC: start, EndUTC: start.Add(30 * time.Minute)},
		{StartUTC: start.Add(30 * time.Minute), EndUTC: start.Add(time.Hour)},
	}, nil
}

func (s *stubEngine) CheckInterval(_ context.Context, _ string, start, _, _ time.Time) (bool, error) {
	return start.Hour() == 6, nil
}

func startServer(t *testing.T, engine grpcserver.Engine) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	grpcserver.Register(srv, engine, nil)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestClient_ComputeSlots(t *testing.T) {
	engine := &stubEngine{}
	addr := startServer(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(ctx, addr)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	slots, err := client.ComputeSlots(ctx, "doc-1", "2026-03-02", 30, "Europe/Moscow")
	if err != nil {
		t.Fatalf("compute slots: %v", err)
	}
	if len(slots) != 2 || slots[1].EndUTC.Hour() != 7 {
		t.Fatalf("unexpected slots %+v", slots)
	}
	if engine.query.ServiceDurationMin != 30 || engine.query.Timezone != "Europe/Moscow" {
		t.Fatalf("unexpected query %+v", engine.query)
	}

	if _, err := client.ComputeSlots(ctx, "ghost", "2026-03-02", 30, ""); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, err := client.ComputeSlots(ctx, "doc-1", "2026-03-02", 0, ""); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestClient_CheckInterval(t *testing.T) {
	addr := startServer(t, &stubEngine{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := NewClient(ctx, addr)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	ok, err := client.CheckInterval(ctx, "doc-1", start, start.Add(30*time.Minute))
	if err != nil || !ok {
		t.Fatalf("expected available, got %v %v", ok, err)
	}
	ok, err = client.CheckInterval(ctx, "doc-1", start.Add(2*time.Hour), start.Add(3*time.Hour))
	if err != nil || ok {
		t.Fatalf("expected unavailable, got %v %v", ok, err)
	}
}
