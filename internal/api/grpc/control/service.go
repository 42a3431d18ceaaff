package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "greensentinel.control.v1.ControlService"
	// StopMethod is the full method name of Stop.
	StopMethod = "/" + ServiceName + "/Stop"
	// GetStatusMethod is the full method name of GetStatus.
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
)

// ControlServer is the server side of the control API.
type ControlServer interface {
	// Stop asks the sentinel to silence an active alarm. The request carries the actor.
	Stop(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	// GetStatus returns the pipeline status.
	GetStatus(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterControlServer registers srv on registrar.
func RegisterControlServer(registrar grpc.ServiceRegistrar, srv ControlServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

//nolint:gochecknoglobals // gRPC service descriptors are package-level by convention.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Stop", Handler: stopHandler},
		{MethodName: "GetStatus", Handler: getStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "greensentinel/control/v1/control.proto",
}

//nolint:forcetypeassert // The descriptor guarantees the server type.
func stopHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ControlServer).Stop(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: StopMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Stop(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:forcetypeassert // The descriptor guarantees the server type.
func getStatusHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ControlServer).GetStatus(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).GetStatus(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

// ControlClient is the client side of the control API.
type ControlClient struct {
	// cc is the connection calls are made on.
	cc grpc.ClientConnInterface
}

// NewControlClient creates a client on cc.
func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

// Stop calls ControlService.Stop.
func (c *ControlClient) Stop(ctx context.Context, request *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StopMethod, request, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetStatus calls ControlService.GetStatus.
func (c *ControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
