package api

import (
	"errors"
	"net/http"

	"github.com/hashicorp/raft"
	"github.com/heysubinoy/pyazkv/internal/command"
	"github.com/heysubinoy/pyazkv/pkg/kv"
	"google.golang.org/grpc/codes"
)

// errorKind groups store and command errors by how transports report them.
type errorKind int

const (
	kindInternal errorKind = iota
	kindBadRequest
	kindConflict
	kindUnavailable
)

func classify(err error) errorKind {
	switch {
	case errors.Is(err, kv.ErrWrongType):
		return kindConflict
	case errors.Is(err, kv.ErrNotInteger),
		errors.Is(err, kv.ErrOverflow),
		errors.Is(err, kv.ErrInvalidArgument),
		errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, command.ErrArity),
		errors.Is(err, command.ErrSyntax):
		return kindBadRequest
	case errors.Is(err, raft.ErrNotLeader),
		errors.Is(err, raft.ErrLeadershipLost),
		errors.Is(err, raft.ErrRaftShutdown),
		errors.Is(err, raft.ErrEnqueueTimeout):
		return kindUnavailable
	}
	return kindInternal
}

func grpcCode(err error) codes.Code {
	switch classify(err) {
	case kindBadRequest:
		return codes.InvalidArgument
	case kindConflict:
		return codes.FailedPrecondition
	case kindUnavailable:
		return codes.Unavailable
	}
	return codes.Internal
}

func httpStatus(err error) int {
	switch classify(err) {
	case kindBadRequest:
		return http.StatusBadRequest
	case kindConflict:
		return http.StatusConflict
	case kindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// errorMessage prefixes errors the way Redis clients expect: the wrong-type
// error carries its own WRONGTYPE prefix, everything else gets ERR.
func errorMessage(err error) string {
	if errors.Is(err, kv.ErrWrongType) {
		return kv.ErrWrongType.Error()
	}
	return "ERR " + err.Error()
}
