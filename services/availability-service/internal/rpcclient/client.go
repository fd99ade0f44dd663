package rpcclient

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/grpcx"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/grpcserver"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client struct {
	conn *grpc.ClientConn
}

func NewClient(ctx context.Context, addr string) (*Client, error) {
	conn, err := grpcx.Dial(ctx, addr, grpcx.DialOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

type Slot struct {
	StartUTC time.Time
	EndUTC   time.Time
}

// ComputeSlots asks the service for slots. A zero durationMin lets the
// server reject it; the HTTP default-duration rule does not apply here.
func (c *Client) ComputeSlots(ctx context.Context, doctorID, date string, durationMin int, tz string) ([]Slot, error) {
	req, err := structpb.NewStruct(map[string]any{
		"doctor_id":        doctorID,
		"date":             date,
		"duration_minutes": durationMin,
		"tz":               tz,
	})
	if err != nil {
		return nil, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcserver.MethodComputeSlots, req, resp); err != nil {
		return nil, err
	}

	values := resp.GetFields()["slots"].GetListValue().GetValues()
	slots := make([]Slot, 0, len(values))
	for i, v := range values {
		f := v.GetStructValue().GetFields()
		start, err := time.Parse(time.RFC3339, f["start_utc"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		end, err := time.Parse(time.RFC3339, f["end_utc"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		slots = append(slots, Slot{StartUTC: start.UTC(), EndUTC: end.UTC()})
	}
	return slots, nil
}

func (c *Client) CheckInterval(ctx context.Context, doctorID string, start, end time.Time) (bool, error) {
	req, err := structpb.NewStruct(map[string]any{
		"doctor_id": doctorID,
		"start_utc": start.UTC().Format(time.RFC3339),
		"end_utc":   end.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, err
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcserver.MethodCheckInterval, req, resp); err != nil {
		return false, err
	}
	return resp.GetFields()["available"].GetBoolValue(), nil
}
