package grpcx

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestIncomingRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-7"))
	if got := incomingRequestID(ctx); got != "req-7" {
		t.Fatalf("expected caller id, got %q", got)
	}
	if got := incomingRequestID(context.Background()); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
	if got := RequestIDFromContext(WithRequestID(context.Background(), "")); got != "" {
		t.Fatalf("empty id must not be stored, got %q", got)
	}
}
