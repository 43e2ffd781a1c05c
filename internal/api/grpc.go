package api

import (
	"context"

	"github.com/heysubinoy/pyazkv/api/proto"
	"github.com/heysubinoy/pyazkv/internal/command"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCServer implements the proto.KVServiceServer interface.
// It wraps a kv.Store and exposes its commands over gRPC.
type GRPCServer struct {
	proto.UnimplementedKVServiceServer
	Store kv.Store

	dispatcher *command.Dispatcher
	logger     *zap.Logger
}

// NewGRPCServer creates a new gRPC server with the given store.
func NewGRPCServer(store kv.Store, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{
		Store:      store,
		dispatcher: command.NewDispatcher(store),
		logger:     logger,
	}
}

// Do executes one command.
func (s *GRPCServer) Do(ctx context.Context, req *structpb.ListValue) (*structpb.Value, error) {
	args, err := command.ArgsFromProto(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, errorMessage(err))
	}

	reply, err := s.dispatcher.Exec(args)
	if err != nil {
		code := grpcCode(err)
		if code == codes.Internal {
			s.logger.Error("command failed", zap.Strings("args", args), zap.Error(err))
		}
		return nil, status.Error(code, errorMessage(err))
	}
	return reply.Proto(), nil
}
