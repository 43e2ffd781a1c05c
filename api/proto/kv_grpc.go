// Package proto holds the gRPC service definition of the KV command API.
//
// The service carries well-known protobuf types only, so it needs no
// generated message code:
//
//	service KV {
//	  rpc Do(google.protobuf.ListValue) returns (google.protobuf.Value);
//	}
//
// The request is the argument vector of one command, e.g. ["SET", "k", "v"].
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName  = "pyazkv.v1.KV"
	DoFullMethod = "/pyazkv.v1.KV/Do"
)

// KVServiceClient is the client API for the KV service.
type KVServiceClient interface {
	Do(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.Value, error)
}

type kvServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewKVServiceClient(cc grpc.ClientConnInterface) KVServiceClient {
	return &kvServiceClient{cc}
}

func (c *kvServiceClient) Do(ctx context.Context, in *structpb.ListValue, opts ...grpc.CallOption) (*structpb.Value, error) {
	out := new(structpb.Value)
	if err := c.cc.Invoke(ctx, DoFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// KVServiceServer is the server API for the KV service.
// Implementations must embed UnimplementedKVServiceServer.
type KVServiceServer interface {
	Do(context.Context, *structpb.ListValue) (*structpb.Value, error)
	mustEmbedUnimplementedKVServiceServer()
}

// UnimplementedKVServiceServer must be embedded to have forward compatible implementations.
type UnimplementedKVServiceServer struct{}

func (UnimplementedKVServiceServer) Do(context.Context, *structpb.ListValue) (*structpb.Value, error) {
	return nil, status.Error(codes.Unimplemented, "method Do not implemented")
}
func (UnimplementedKVServiceServer) mustEmbedUnimplementedKVServiceServer() {}

func RegisterKVServiceServer(s grpc.ServiceRegistrar, srv KVServiceServer) {
	s.RegisterService(&KVService_ServiceDesc, srv)
}

func _KVService_Do_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KVServiceServer).Do(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: DoFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(KVServiceServer).Do(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

// KVService_ServiceDesc is the grpc.ServiceDesc for the KV service.
var KVService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KVServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Do",
			Handler:    _KVService_Do_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pyazkv/v1/kv.proto",
}
