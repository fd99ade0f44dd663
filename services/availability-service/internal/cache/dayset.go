package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

// DaySetCache keeps each doctor's per-day coverage and unavailability in
// Redis. Each doctor has a version counter that is part of every entry key;
// Invalidate bumps it, which orphans all older entries until their TTL
// expires. Bookings are never stored here.
type DaySetCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

var _ availability.DaySetCache = (*DaySetCache)(nil)

func NewDaySetCache(rdb *redis.Client, ttl time.Duration, prefix string) *DaySetCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "slots"
	}
	return &DaySetCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *DaySetCache) versionKey(doctorID string) string {
	return c.prefix + ":ver:" + doctorID
}

func (c *DaySetCache) entryKey(k availability.DaySetKey) string {
	return c.prefix + ":day:" + k.DoctorID + ":" + strconv.FormatInt(k.Version, 10) + ":" + k.Date + ":" + k.Timezone
}

func (c *DaySetCache) Version(ctx context.Context, doctorID string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey(doctorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get day set version: %w", err)
	}
	return v, nil
}

func (c *DaySetCache) Get(ctx context.Context, key availability.DaySetKey) (availability.DaySet, bool, error) {
	b, err := c.rdb.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return availability.DaySet{}, false, nil
	}
	if err != nil {
		return availability.DaySet{}, false, fmt.Errorf("get day set: %w", err)
	}
	day, err := decode(b)
	if err != nil {
		return availability.DaySet{}, false, fmt.Errorf("decode day set: %w", err)
	}
	return day, true, nil
}

func (c *DaySetCache) Set(ctx context.Context, key availability.DaySetKey, day availability.DaySet) error {
	b, err := encode(day)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.entryKey(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("set day set: %w", err)
	}
	return nil
}

func (c *DaySetCache) Invalidate(ctx context.Context, doctorID string) error {
	if err := c.rdb.Incr(ctx, c.versionKey(doctorID)).Err(); err != nil {
		return fmt.Errorf("bump day set version: %w", err)
	}
	return nil
}

func (c *DaySetCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

type wireInterval struct {
	Start string `json:"s"`
	End   string `json:"e"`
}

type wireDay struct {
	Covered []wireInterval `json:"covered"`
	Blocked []wireInterval `json:"blocked"`
}

func encode(day availability.DaySet) ([]byte, error) {
	return json.Marshal(wireDay{Covered: toWire(day.Covered), Blocked: toWire(day.Blocked)})
}

func decode(b []byte) (availability.DaySet, error) {
	var in wireDay
	if err := json.Unmarshal(b, &in); err != nil {
		return availability.DaySet{}, err
	}
	covered, err := fromWire(in.Covered)
	if err != nil {
		return availability.DaySet{}, err
	}
	blocked, err := fromWire(in.Blocked)
	if err != nil {
		return availability.DaySet{}, err
	}
	return availability.DaySet{Covered: covered, Blocked: blocked}, nil
}

func toWire(ivs []availability.Interval) []wireInterval {
	out := make([]wireInterval, 0, len(ivs))
	for _, iv := range ivs {
		out = append(out, wireInterval{
			Start: iv.Start.UTC().Format(time.RFC3339Nano),
			End:   iv.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func fromWire(in []wireInterval) ([]availability.Interval, error) {
	out := make([]availability.Interval, 0, len(in))
	for _, w := range in {
		start, err := time.Parse(time.RFC3339Nano, w.Start)
		if err != nil {
			return nil, err
		}
		end, err := time.Parse(time.RFC3339Nano, w.End)
		if err != nil {
			return nil, err
		}
		iv, err := availability.NewInterval(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}
