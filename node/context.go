package node

import (
	"context"
	"fmt"
	"net"

	"github.com/ethereum/go-ethereum/common"
	grpcmiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	clockwork "github.com/jonboulle/clockwork"
	"google.golang.org/grpc"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/committer"
	"github.com/randcast-network/randcast-node/contractclient"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/listener"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/management"
	"github.com/randcast-network/randcast-node/metrics"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	rpcmanagement "github.com/randcast-network/randcast-node/rpc/management"
	"github.com/randcast-network/randcast-node/scheduler"
	"github.com/randcast-network/randcast-node/subscriber"
)

// Fixed-scheduler task names for the non-listener services.
const (
	taskCommitterRPCServer  = "committer_rpc_server"
	taskManagementRPCServer = "management_rpc_server"
	taskMetricsServer       = "metrics_server"
)

// Context owns the wired node: the event bus, both schedulers, the chain
// router, the shared caches, and the RPC servers. It is built once at
// bootstrap and started once; the management RPC drives listener lifecycle
// through it afterwards.
type Context struct {
	log   log.Logger
	clock clockwork.Clock
	cfg   *Config

	bus *eventbus.Bus
	fts *scheduler.FixedTaskScheduler
	dts *scheduler.DynamicTaskScheduler

	router   *ChainRouter
	group    cache.GroupInfoHandler
	nodeInfo cache.NodeInfoHandler
	selfAddr common.Address

	committerClient *committer.Client
}

// NewContext assembles a context over pre-built caches and chains. ctx
// bounds the dynamic scheduler's sweeper.
func NewContext(
	ctx context.Context,
	l log.Logger,
	clock clockwork.Clock,
	cfg *Config,
	router *ChainRouter,
	group cache.GroupInfoHandler,
	nodeInfo cache.NodeInfoHandler,
	selfAddr common.Address,
) *Context {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Context{
		log:             l,
		clock:           clock,
		cfg:             cfg,
		bus:             eventbus.New(l),
		fts:             scheduler.NewFixedTaskScheduler(l),
		dts:             scheduler.NewDynamicTaskScheduler(ctx, l, clock),
		router:          router,
		group:           group,
		nodeInfo:        nodeInfo,
		selfAddr:        selfAddr,
		committerClient: committer.NewClient(l, clock),
	}
}

// Bus exposes the event bus, mainly for tests and the demo CLI mode.
func (c *Context) Bus() *eventbus.Bus { return c.bus }

// Router exposes the chain router.
func (c *Context) Router() *ChainRouter { return c.router }

// Start registers every subscriber, starts every listener on every chain it
// applies to, and brings up the committer, management, and metrics servers.
func (c *Context) Start(ctx context.Context) error {
	c.registerSubscribers(ctx)

	for _, chainID := range c.router.ChainIDs() {
		for _, listenerType := range c.supportedListeners(chainID) {
			if err := c.StartListener(ctx, chainID, listenerType); err != nil {
				return fmt.Errorf("start listener %s on chain %d: %w", listenerType, chainID, err)
			}
		}
	}

	return c.startServers(ctx)
}

// Stop tears down both schedulers and the committer client's connections.
func (c *Context) Stop() {
	if err := c.fts.Shutdown(); err != nil {
		c.log.Warnw("fixed scheduler shutdown reported errors", "err", err)
	}
	c.dts.Shutdown()
	c.committerClient.Stop()
}

func (c *Context) registerSubscribers(ctx context.Context) {
	main := c.router.Main()

	blocks := make(map[uint32]*chain.BlockCache)
	for _, chainID := range c.router.ChainIDs() {
		comp, _ := c.router.Chain(chainID)
		blocks[chainID] = comp.Blocks
	}
	c.bus.Subscribe(eventbus.TopicNewBlock, subscriber.NewBlockSubscriber(c.log, blocks))

	c.bus.Subscribe(eventbus.TopicRunDKG, subscriber.NewInGroupingSubscriber(
		c.log, c.clock, c.selfAddr, main.Signer, c.group, c.nodeInfo,
		main.Controller, coordinatorProvider{c}, c.dts,
		subscriber.InGroupingConfig{
			PhaseInterval:         c.cfg.TimeLimits.DKGPhaseInterval(),
			ShutdownCheckInterval: c.cfg.TimeLimits.ListenerConfig().Interval,
		}))
	c.bus.Subscribe(eventbus.TopicDKGSuccess, subscriber.NewPostSuccessGroupingSubscriber(c.log, c.group))
	c.bus.Subscribe(eventbus.TopicDKGPostProcess, subscriber.NewPostGroupingSubscriber(
		c.log, main.Signer, main.Controller, c.dts))

	partialRetry := c.cfg.TimeLimits.CommitPartialSignatureRetry.Descriptor()
	for _, chainID := range c.router.ChainIDs() {
		comp, _ := c.router.Chain(chainID)
		c.bus.Subscribe(eventbus.TopicReadyToHandleRandomnessTask,
			subscriber.NewReadyToHandleRandomnessTaskSubscriber(
				c.log, chainID, c.selfAddr, c.group, comp.Results,
				c.committerClient, c.dts, partialRetry))
		c.bus.Subscribe(eventbus.TopicReadyToFulfillRandomnessTask,
			subscriber.NewSignatureAggregationSubscriber(
				c.log, chainID, comp.Signer, c.group, comp.Results,
				comp.Adapter, comp.Backend, comp.Backend, c.dts))
	}
}

// supportedListeners lists which listener types run on chainID: grouping
// listeners only exist where the controller does (the main chain).
func (c *Context) supportedListeners(chainID uint32) []string {
	if chainID == c.router.MainChainID() {
		return listener.Types
	}
	return []string{
		listener.TypeBlock,
		listener.TypeNewRandomnessTask,
		listener.TypeReadyToHandleRandomnessTask,
		listener.TypeRandomnessSignatureAggregation,
	}
}

// StartListener builds and schedules listenerType's fixed task on chainID.
// It implements half of management.ListenerRegistry; the fixed scheduler
// itself rejects duplicates.
func (c *Context) StartListener(ctx context.Context, chainID uint32, listenerType string) error {
	comp, ok := c.router.Chain(chainID)
	if !ok {
		return fmt.Errorf("unknown chain id %d", chainID)
	}

	tickCfg := c.cfg.TimeLimits.ListenerConfig()
	var work scheduler.FixedWork

	switch listenerType {
	case listener.TypeBlock:
		work = listener.NewBlockListener(c.log, c.clock, chainID, comp.Backend, comp.Blocks, c.bus, tickCfg)
	case listener.TypePreGrouping:
		if comp.Controller == nil {
			return fmt.Errorf("listener %s only runs on the main chain", listenerType)
		}
		work = listener.NewPreGroupingListener(c.log, c.clock, c.selfAddr, comp.Controller, c.group, c.bus, tickCfg)
	case listener.TypePostCommitGrouping:
		if comp.Controller == nil {
			return fmt.Errorf("listener %s only runs on the main chain", listenerType)
		}
		work = listener.NewPostCommitGroupingListener(c.log, c.clock, comp.Controller, c.group, c.bus, tickCfg)
	case listener.TypePostGrouping:
		if comp.Controller == nil {
			return fmt.Errorf("listener %s only runs on the main chain", listenerType)
		}
		work = listener.NewPostGroupingListener(c.log, c.clock, c.group, comp.Blocks,
			c.cfg.TimeLimits.DKGTimeoutDuration, c.bus, tickCfg)
	case listener.TypeNewRandomnessTask:
		work = listener.NewRandomnessTaskListener(c.log, c.clock, chainID, comp.Adapter, comp.Tasks, c.bus, tickCfg)
	case listener.TypeReadyToHandleRandomnessTask:
		work = listener.NewReadyToHandleRandomnessTaskListener(c.log, c.clock, chainID, c.group,
			comp.Tasks, comp.Blocks, c.cfg.TimeLimits.RandomnessTaskExclusiveWindow, c.bus, tickCfg)
	case listener.TypeRandomnessSignatureAggregation:
		work = listener.NewSignatureAggregationListener(c.log, c.clock, chainID, comp.Results,
			comp.Blocks, c.bus, tickCfg)
	default:
		return fmt.Errorf("unknown listener type %q", listenerType)
	}

	return c.fts.AddTask(ctx, scheduler.TaskType{Name: listenerType, ChainID: chainID}, work)
}

// Scheduler implements management.ListenerRegistry: one fixed scheduler
// serves every chain, keyed by (name, chain_id).
func (c *Context) Scheduler(chainID uint32) (*scheduler.FixedTaskScheduler, bool) {
	if _, ok := c.router.Chain(chainID); !ok {
		return nil, false
	}
	return c.fts, true
}

// ChainIDs lets the management server enumerate chains without importing
// this package.
func (c *Context) ChainIDs() []uint32 { return c.router.ChainIDs() }

func (c *Context) startServers(ctx context.Context) error {
	committerServer := committer.NewServer(c.log, c.selfAddr, c.group, c.router)
	grpcCommitter := grpc.NewServer(
		grpcmiddleware.WithUnaryServerChain(metrics.GRPCServerMetrics.UnaryServerInterceptor()),
	)
	rpccommitter.RegisterCommitterServiceServer(grpcCommitter, committerServer)
	metrics.GRPCServerMetrics.InitializeMetrics(grpcCommitter)
	if err := c.fts.AddTask(ctx, scheduler.TaskType{Name: taskCommitterRPCServer},
		serveGRPC(c.log, grpcCommitter, c.cfg.NodeCommitterRPCEndpoint)); err != nil {
		return err
	}

	managementServer := management.NewServer(c.log, c.cfg.NodeManagementRPCToken, c)
	grpcManagement := grpc.NewServer(
		grpcmiddleware.WithUnaryServerChain(
			metrics.GRPCServerMetrics.UnaryServerInterceptor(),
			managementServer.UnaryAuthInterceptor,
		),
	)
	rpcmanagement.RegisterManagementServiceServer(grpcManagement, managementServer)
	metrics.GRPCServerMetrics.InitializeMetrics(grpcManagement)
	if err := c.fts.AddTask(ctx, scheduler.TaskType{Name: taskManagementRPCServer},
		serveGRPC(c.log, grpcManagement, c.cfg.NodeManagementRPCEndpoint)); err != nil {
		return err
	}

	if c.cfg.MetricsEndpoint != "" {
		if err := c.fts.AddTask(ctx, scheduler.TaskType{Name: taskMetricsServer},
			metrics.Serve(c.log, c.cfg.MetricsEndpoint)); err != nil {
			return err
		}
	}
	return nil
}

// serveGRPC shapes a gRPC server as a fixed task: serve until ctx cancels,
// then stop gracefully.
func serveGRPC(l log.Logger, srv *grpc.Server, addr string) scheduler.FixedWork {
	return func(ctx context.Context) error {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		l.Infow("grpc server up", "addr", addr)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Serve(lis) }()

		select {
		case <-ctx.Done():
			srv.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		}
	}
}

// coordinatorProvider builds a coordinator session against the main chain's
// backend for whatever ephemeral address a DKG task names.
type coordinatorProvider struct {
	c *Context
}

func (p coordinatorProvider) Coordinator(addr common.Address) (dkg.Coordinator, error) {
	main := p.c.router.Main()
	client, err := contractclient.NewCoordinatorClient(addr, main.Backend, p.c.log, p.c.clock,
		p.c.cfg.TimeLimits.ContractTransactionRetry.Descriptor())
	if err != nil {
		return nil, err
	}
	return contractclient.NewCoordinatorSession(client, main.Signer), nil
}
