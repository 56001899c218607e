// Package metrics exposes the node's Prometheus surface: scheduler depth,
// DKG lifecycle, partial-signature traffic, and fulfillment outcomes, plus
// the gRPC server metrics the committer and management services report.
package metrics

import (
	"context"
	"net/http"
	"time"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/randcast-network/randcast-node/log"
)

var registry = prometheus.NewRegistry()

// GRPCServerMetrics instruments the committer and management gRPC servers;
// node/context.go chains its interceptor and initializes it per server.
var GRPCServerMetrics = grpcprometheus.NewServerMetrics()

var (
	// DKGStatus reports the DKG state machine's position per group.
	DKGStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "randcast_node_dkg_status",
		Help: "Current DKG status (0 none, 1 in_phase, 2 commit_success, 3 wait_for_post_process, 4 post_process_success)",
	}, []string{"group_index", "epoch"})

	// PartialSignaturesAccepted counts partials deposited through the
	// committer RPC, per chain.
	PartialSignaturesAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "randcast_node_partial_signatures_accepted_total",
		Help: "Partial signatures accepted into the result cache by the committer service",
	}, []string{"chain_id"})

	// FulfillmentResults counts fulfillment attempts by outcome
	// (committed, committed_by_others, reverted).
	FulfillmentResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "randcast_node_fulfillment_results_total",
		Help: "Randomness fulfillment attempts by terminal cache state",
	}, []string{"chain_id", "result"})

	// DynamicTasks reports the dynamic scheduler's live handle count.
	DynamicTasks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "randcast_node_dynamic_tasks",
		Help: "Dynamic tasks tracked (not yet swept) by the scheduler",
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		GRPCServerMetrics,
		DKGStatus,
		PartialSignaturesAccepted,
		FulfillmentResults,
		DynamicTasks,
	)
}

// Serve runs the metrics HTTP endpoint until ctx is cancelled. It is shaped
// as a fixed-scheduler task.
func Serve(l log.Logger, addr string) func(ctx context.Context) error {
	l = l.Named("metrics")
	return func(ctx context.Context) error {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: addr, Handler: mux}

		errCh := make(chan error, 1)
		go func() { errCh <- server.ListenAndServe() }()
		l.Infow("metrics endpoint up", "addr", addr)

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	}
}
