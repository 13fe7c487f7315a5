package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// RelayServiceClient клиент relay.v1.RelayService.
type RelayServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRelayServiceClient(cc grpc.ClientConnInterface) *RelayServiceClient {
	return &RelayServiceClient{cc: cc}
}

func (c *RelayServiceClient) Relay(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RelayFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
