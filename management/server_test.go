package management

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/randcast-network/randcast-node/log"
	rpcmanagement "github.com/randcast-network/randcast-node/rpc/management"
	"github.com/randcast-network/randcast-node/scheduler"
)

// fakeRegistry backs the server with one real fixed scheduler and a stub
// listener that waits for cancellation.
type fakeRegistry struct {
	fts    *scheduler.FixedTaskScheduler
	chains map[uint32]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		fts:    scheduler.NewFixedTaskScheduler(log.DefaultLogger()),
		chains: map[uint32]bool{1: true},
	}
}

func (r *fakeRegistry) Scheduler(chainID uint32) (*scheduler.FixedTaskScheduler, bool) {
	if !r.chains[chainID] {
		return nil, false
	}
	return r.fts, true
}

func (r *fakeRegistry) StartListener(ctx context.Context, chainID uint32, listenerType string) error {
	return r.fts.AddTask(ctx, scheduler.TaskType{Name: listenerType, ChainID: chainID},
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
}

func (r *fakeRegistry) ChainIDs() []uint32 { return []uint32{1} }

func authedCtx(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("authorization", "Bearer "+token))
}

func passthrough(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

func TestAuthInterceptor(t *testing.T) {
	s := NewServer(log.DefaultLogger(), "secret", newFakeRegistry())
	info := &grpc.UnaryServerInfo{FullMethod: "/management.ManagementService/ListFixedTasks"}

	_, err := s.UnaryAuthInterceptor(context.Background(), nil, info, passthrough)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = s.UnaryAuthInterceptor(authedCtx("wrong"), nil, info, passthrough)
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	out, err := s.UnaryAuthInterceptor(authedCtx("secret"), nil, info, passthrough)
	require.NoError(t, err)
	require.Equal(t, "ok", out)
}

func TestStartListenerDuplicateIsAlreadyExists(t *testing.T) {
	reg := newFakeRegistry()
	defer reg.fts.Shutdown()
	s := NewServer(log.DefaultLogger(), "secret", reg)

	req := &rpcmanagement.StartListenerRequest{ChainId: 1, ListenerType: "block"}
	_, err := s.StartListener(context.Background(), req)
	require.NoError(t, err)

	_, err = s.StartListener(context.Background(), req)
	require.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestStartListenerUnknownChain(t *testing.T) {
	s := NewServer(log.DefaultLogger(), "secret", newFakeRegistry())
	_, err := s.StartListener(context.Background(), &rpcmanagement.StartListenerRequest{ChainId: 9, ListenerType: "block"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestShutdownListener(t *testing.T) {
	reg := newFakeRegistry()
	defer reg.fts.Shutdown()
	s := NewServer(log.DefaultLogger(), "secret", reg)

	_, err := s.ShutdownListener(context.Background(), &rpcmanagement.ShutdownListenerRequest{ChainId: 1, ListenerType: "block"})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.StartListener(context.Background(), &rpcmanagement.StartListenerRequest{ChainId: 1, ListenerType: "block"})
	require.NoError(t, err)

	reply, err := s.ShutdownListener(context.Background(), &rpcmanagement.ShutdownListenerRequest{ChainId: 1, ListenerType: "block"})
	require.NoError(t, err)
	require.True(t, reply.GetResult())
	require.False(t, reg.fts.Has(scheduler.TaskType{Name: "block", ChainID: 1}))
}

func TestListFixedTasks(t *testing.T) {
	reg := newFakeRegistry()
	defer reg.fts.Shutdown()
	s := NewServer(log.DefaultLogger(), "secret", reg)

	_, err := s.StartListener(context.Background(), &rpcmanagement.StartListenerRequest{ChainId: 1, ListenerType: "block"})
	require.NoError(t, err)

	reply, err := s.ListFixedTasks(context.Background(), &rpcmanagement.ListFixedTasksRequest{})
	require.NoError(t, err)
	require.Len(t, reply.GetTasks(), 1)
}

func TestNodeActivateAndQuitAreUnimplemented(t *testing.T) {
	s := NewServer(log.DefaultLogger(), "secret", newFakeRegistry())

	_, err := s.NodeActivate(context.Background(), &rpcmanagement.NodeActivateRequest{})
	require.Equal(t, codes.Unimplemented, status.Code(err))
	_, err = s.NodeQuit(context.Background(), &rpcmanagement.NodeQuitRequest{})
	require.Equal(t, codes.Unimplemented, status.Code(err))
}
