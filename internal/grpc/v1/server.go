package v1

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Totarae/relay/internal/handlers"
	"github.com/Totarae/relay/internal/jsoncodec"
	"github.com/Totarae/relay/internal/model"
	"github.com/Totarae/relay/internal/relay"
)

const (
	// ServiceName полное имя gRPC-сервиса
	ServiceName = "relay.v1.RelayService"
	// RelayFullMethod полное имя метода Relay
	RelayFullMethod = "/" + ServiceName + "/Relay"
)

// RelayServiceServer серверная часть relay.v1.RelayService.
// Запрос и ответ передаются как google.protobuf.Struct.
type RelayServiceServer interface {
	Relay(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type GRPCServer struct {
	Service handlers.Relayer
}

func NewGRPCServer(service handlers.Relayer) *GRPCServer {
	return &GRPCServer{Service: service}
}

func (s *GRPCServer) Relay(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, handlers.InvalidInputMessage)
	}

	body, err := jsoncodec.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, handlers.InvalidInputMessage)
	}

	result, err := s.Service.Relay(ctx, body)
	if err != nil {
		if errors.Is(err, relay.ErrInvalidInput) {
			return nil, status.Error(codes.InvalidArgument, handlers.InvalidInputMessage)
		}
		return nil, status.Errorf(codes.Internal, "relay: %v", err)
	}

	value, err := result.Value.Float64()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"status": model.StatusSuccess,
		"result": value,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// RegisterRelayServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterRelayServiceServer(s grpc.ServiceRegistrar, srv RelayServiceServer) {
	s.RegisterService(&relayServiceDesc, srv)
}

var relayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Relay",
			Handler:    relayHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay/v1/relay.proto",
}

func relayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RelayServiceServer).Relay(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RelayFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RelayServiceServer).Relay(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
