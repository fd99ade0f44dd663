package grpcserver

import (
	"context"
	"errors"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName         = "clinicslots.availability.v1.AvailabilityService"
	MethodComputeSlots  = "/" + ServiceName + "/ComputeSlots"
	MethodCheckInterval = "/" + ServiceName + "/CheckInterval"
)

type Engine interface {
	ComputeSlots(ctx context.Context, q availability.Query) ([]availability.Slot, error)
	CheckInterval(ctx context.Context, doctorID string, start, end, now time.Time) (bool, error)
}

// AvailabilityServer carries requests and replies as structpb.Struct so the
// service needs no generated stubs. Field names match the HTTP API.
type AvailabilityServer interface {
	ComputeSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type server struct {
	engine Engine
	now    func() time.Time
}

func Register(grpcServer grpc.ServiceRegistrar, engine Engine, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	grpcServer.RegisterService(&serviceDesc, &server{engine: engine, now: now})
}

func (s *server) ComputeSlots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	q := availability.Query{
		DoctorID:           fields["doctor_id"].GetStringValue(),
		Date:               fields["date"].GetStringValue(),
		ServiceDurationMin: int(fields["duration_minutes"].GetNumberValue()),
		Timezone:           fields["tz"].GetStringValue(),
		Now:                s.now(),
	}
	if q.DoctorID == "" {
		return nil, status.Error(codes.InvalidArgument, "doctor_id required")
	}

	slots, err := s.engine.ComputeSlots(ctx, q)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(slots))
	for _, sl := range slots {
		items = append(items, map[string]any{
			"start_utc": sl.StartUTC.UTC().Format(time.RFC3339),
			"end_utc":   sl.EndUTC.UTC().Format(time.RFC3339),
		})
	}
	resp, err := structpb.NewStruct(map[string]any{"slots": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (s *server) CheckInterval(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	doctorID := fields["doctor_id"].GetStringValue()
	if doctorID == "" {
		return nil, status.Error(codes.InvalidArgument, "doctor_id required")
	}
	start, err := time.Parse(time.RFC3339, fields["start_utc"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid start_utc")
	}
	end, err := time.Parse(time.RFC3339, fields["end_utc"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid end_utc")
	}

	ok, err := s.engine.CheckInterval(ctx, doctorID, start.UTC(), end.UTC(), s.now())
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"available": ok})
}

func toStatus(err error) error {
	switch {
	case availability.IsInputError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, availability.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case availability.IsLocalTimeError(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func computeSlotsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).ComputeSlots(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodComputeSlots}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).ComputeSlots(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func checkIntervalHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).CheckInterval(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCheckInterval}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).CheckInterval(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeSlots", Handler: computeSlotsHandler},
		{MethodName: "CheckInterval", Handler: checkIntervalHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clinicslots/availability/v1/availability.proto",
}
