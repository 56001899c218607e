// Package management implements C9's admin surface (spec.md §4.9, §6):
// start/stop a named listener's fixed task and list what is currently
// running. Every call is gated by a bearer token, checked the way the
// teacher's grpc-ecosystem/go-grpc-middleware auth interceptor gates drand's
// control plane.
package management

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/randcast-network/randcast-node/log"
	rpcmanagement "github.com/randcast-network/randcast-node/rpc/management"
	"github.com/randcast-network/randcast-node/scheduler"
)

// ListenerRegistry is the subset of node wiring the management server needs:
// the fixed scheduler holding each chain id's tasks (one scheduler may serve
// several chains), with tasks keyed by listener type and chain id.
type ListenerRegistry interface {
	// Scheduler returns the fixed task scheduler for chainID, or false if
	// the node does not know about that chain.
	Scheduler(chainID uint32) (*scheduler.FixedTaskScheduler, bool)
	// StartListener (re)starts listenerType's fixed task on chainID.
	StartListener(ctx context.Context, chainID uint32, listenerType string) error
}

// Server implements rpc/management.ManagementServiceServer.
type Server struct {
	rpcmanagement.UnimplementedManagementServiceServer

	log      log.Logger
	token    string
	registry ListenerRegistry
}

// NewServer returns a management RPC server that rejects calls not bearing
// token in their "authorization" metadata.
func NewServer(l log.Logger, token string, registry ListenerRegistry) *Server {
	return &Server{
		log:      l.Named("management-server"),
		token:    token,
		registry: registry,
	}
}

// UnaryAuthInterceptor enforces the bearer token on every RPC in this
// service, mirroring the teacher's grpc_auth.UnaryServerInterceptor wiring.
func (s *Server) UnaryAuthInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if err := s.authorize(ctx); err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (s *Server) authorize(ctx context.Context) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return status.Error(codes.Unauthenticated, "missing authorization header")
	}
	presented := strings.TrimPrefix(values[0], "Bearer ")
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid token")
	}
	return nil
}

// StartListener starts listener_type on chain_id; a duplicate is reported as
// AlreadyExists (spec.md §4.9 "idempotent failure on duplicate").
func (s *Server) StartListener(ctx context.Context, req *rpcmanagement.StartListenerRequest) (*rpcmanagement.Result, error) {
	fts, ok := s.registry.Scheduler(req.GetChainId())
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown chain id")
	}
	key := scheduler.TaskType{Name: req.GetListenerType(), ChainID: req.GetChainId()}
	if fts.Has(key) {
		return nil, status.Errorf(codes.AlreadyExists, "listener %s already running on chain %d", req.GetListenerType(), req.GetChainId())
	}
	if err := s.registry.StartListener(ctx, req.GetChainId(), req.GetListenerType()); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &rpcmanagement.Result{Result: true}, nil
}

// ShutdownListener aborts listener_type on chain_id; absent is reported as
// NotFound (spec.md §4.9).
func (s *Server) ShutdownListener(ctx context.Context, req *rpcmanagement.ShutdownListenerRequest) (*rpcmanagement.Result, error) {
	fts, ok := s.registry.Scheduler(req.GetChainId())
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown chain id")
	}
	key := scheduler.TaskType{Name: req.GetListenerType(), ChainID: req.GetChainId()}
	if !fts.Has(key) {
		return nil, status.Errorf(codes.NotFound, "listener %s not running on chain %d", req.GetListenerType(), req.GetChainId())
	}
	fts.Abort(key)
	return &rpcmanagement.Result{Result: true}, nil
}

// ListFixedTasks reports every fixed task name currently scheduled, across
// every chain this node knows about.
func (s *Server) ListFixedTasks(ctx context.Context, req *rpcmanagement.ListFixedTasksRequest) (*rpcmanagement.ListFixedTasksReply, error) {
	var names []string
	seen := make(map[*scheduler.FixedTaskScheduler]bool)
	for _, chainID := range s.knownChains() {
		fts, ok := s.registry.Scheduler(chainID)
		if !ok || seen[fts] {
			continue
		}
		seen[fts] = true
		for _, t := range fts.List() {
			names = append(names, t.String())
		}
	}
	return &rpcmanagement.ListFixedTasksReply{Tasks: names}, nil
}

// NodeActivate and NodeQuit are intentionally unimplemented (spec.md §9):
// the original system leaves staking-driven activation/exit undefined here.
func (s *Server) NodeActivate(ctx context.Context, req *rpcmanagement.NodeActivateRequest) (*rpcmanagement.Result, error) {
	return nil, status.Error(codes.Unimplemented, "node_activate is not implemented")
}

func (s *Server) NodeQuit(ctx context.Context, req *rpcmanagement.NodeQuitRequest) (*rpcmanagement.Result, error) {
	return nil, status.Error(codes.Unimplemented, "node_quit is not implemented")
}

// chainLister lets the server enumerate known chains without importing the
// node package (which imports management), avoiding an import cycle.
type chainLister interface {
	ChainIDs() []uint32
}

func (s *Server) knownChains() []uint32 {
	if cl, ok := s.registry.(chainLister); ok {
		return cl.ChainIDs()
	}
	return nil
}
