package grpc

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
)

type recordingLogger struct {
	nopLogger
	msgs *[]string
	args *[][]any
}

func (r recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	*r.msgs = append(*r.msgs, msg)
	*r.args = append(*r.args, args)
}

func (r recordingLogger) With(...any) logging.Logger { return r }

func TestLoggingInterceptor_PassesThroughAndLogs(t *testing.T) {
	var msgs []string
	var args [][]any
	s := NewGRPCServer("bufnet", recordingLogger{msgs: &msgs, args: &args})

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	handlerCalled := false
	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(msgs) != 1 || msgs[0] != "rpc processed" {
		t.Fatalf("unexpected log messages: %v", msgs)
	}
	if args[0][1] != info.FullMethod || args[0][3] != codes.OK.String() {
		t.Fatalf("unexpected log args: %v", args[0])
	}
}

func TestLoggingInterceptor_PropagatesError(t *testing.T) {
	var msgs []string
	var args [][]any
	s := NewGRPCServer("bufnet", recordingLogger{msgs: &msgs, args: &args})

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.NotFound, "unknown service")
	h := func(ctx context.Context, req any) (any, error) {
		return nil, want
	}

	_, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if !errors.Is(err, want) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if args[0][3] != codes.NotFound.String() {
		t.Fatalf("expected NotFound code in log, got %v", args[0][3])
	}
}
