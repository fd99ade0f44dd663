package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: x", availability.ErrInvalidDate), codes.InvalidArgument},
		{availability.ErrInvalidTimezone, codes.InvalidArgument},
		{fmt.Errorf("doctor x: %w", availability.ErrNotFound), codes.NotFound},
		{availability.ErrAmbiguousLocalTime, codes.FailedPrecondition},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("boom"), codes.Internal},
		{fmt.Errorf("%w: opening o1: %w", availability.ErrInvalidStoredData, availability.ErrMalformedInterval), codes.Internal},
	}
	for _, tc := range cases {
		if got := status.Code(toStatus(tc.err)); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestComputeSlots_RequiresDoctor(t *testing.T) {
	s := &server{}
	req, err := structpb.NewStruct(map[string]any{"date": "2026-03-02"})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if _, err := s.ComputeSlots(context.Background(), req); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}
