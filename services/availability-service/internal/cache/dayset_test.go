package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

func TestEntryKey_IncludesVersion(t *testing.T) {
	c := NewDaySetCache(nil, 0, "")
	k := availability.DaySetKey{DoctorID: "doc-1", Date: "2026-03-02", Timezone: "Europe/Moscow", Version: 3}
	if got := c.entryKey(k); got != "slots:day:doc-1:3:2026-03-02:Europe/Moscow" {
		t.Fatalf("unexpected key %q", got)
	}
	k.Version = 4
	if c.entryKey(k) == "slots:day:doc-1:3:2026-03-02:Europe/Moscow" {
		t.Fatalf("version bump must change the key")
	}
	if c.versionKey("doc-1") != "slots:ver:doc-1" {
		t.Fatalf("unexpected version key %q", c.versionKey("doc-1"))
	}
	if c.ttl != 10*time.Minute {
		t.Fatalf("expected default ttl, got %s", c.ttl)
	}
}

func TestEncodeDecode(t *testing.T) {
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	day := availability.DaySet{
		Covered: []availability.Interval{{Start: start, End: start.Add(9 * time.Hour)}},
		Blocked: []availability.Interval{{Start: start.Add(45 * time.Minute), End: start.Add(105 * time.Minute)}},
	}
	b, err := encode(day)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Covered) != 1 || !got.Covered[0].End.Equal(day.Covered[0].End) {
		t.Fatalf("unexpected decoded coverage %v", got.Covered)
	}
	if len(got.Blocked) != 1 || !got.Blocked[0].Start.Equal(day.Blocked[0].Start) {
		t.Fatalf("unexpected decoded blocks %v", got.Blocked)
	}

	if _, err := decode([]byte(`{"covered":[{"s":"2026-03-02T06:00:00Z","e":"2026-03-02T06:00:00Z"}]}`)); !errors.Is(err, availability.ErrMalformedInterval) {
		t.Fatalf("expected malformed interval to be rejected, got %v", err)
	}
}

func TestUnreachableRedisReturnsErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	c := NewDaySetCache(rdb, time.Minute, "test")

	ctx := context.Background()
	if _, err := c.Version(ctx, "doc-1"); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
	if err := c.Invalidate(ctx, "doc-1"); err == nil {
		t.Fatalf("expected error from unreachable redis")
	}
}
