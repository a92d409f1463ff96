// Command worker runs a FlowDAG worker process: accepts deployed
// subdataflows from the coordinator over transport.WorkerService and runs
// them to completion.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowdag/flowdag/config"
	"github.com/flowdag/flowdag/connector"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/script"
	"github.com/flowdag/flowdag/script/anthropic"
	"github.com/flowdag/flowdag/script/google"
	"github.com/flowdag/flowdag/script/openai"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/telemetry"
	"github.com/flowdag/flowdag/transport"
	"github.com/flowdag/flowdag/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("worker: loading config: %v", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("worker: opening state backend: %v", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	emitter := telemetry.NewLogEmitter(os.Stdout, false)

	self := selfAddr()
	runtimes := buildRuntimeFactory(self)

	coordDial := func(ctx context.Context) (*transport.CoordinatorClient, error) {
		conn, err := transport.Dial(ctx, cfg.CoordinatorURI)
		if err != nil {
			return nil, err
		}
		return transport.NewCoordinatorClient(conn, transport.DefaultRetryPolicy()).WithMetrics(m), nil
	}

	srv := worker.New(self, runtimes, connector.Resolver{}, store, m, emitter, coordDial)

	grpcServer := grpc.NewServer()
	transport.RegisterWorkerServer(grpcServer, srv)

	lis, err := net.Listen("tcp", self.String())
	if err != nil {
		log.Fatalf("worker: listening on %s: %v", self, err)
	}

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(metricsAddr(), nil); err != nil {
			log.Printf("worker: metrics server: %v", err)
		}
	}()

	log.Printf("worker: listening on %s", self)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("worker: serve: %v", err)
	}
}

func openStore(cfg config.Config) (state.Store, func(), error) {
	switch cfg.StateBackend {
	case config.StateBackendSQLite:
		s, err := state.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return state.NewMemStore(), func() {}, nil
	}
}

// buildRuntimeFactory wires script.LLMRuntime in when a provider API key is
// present in the environment (checked in the order ANTHROPIC_API_KEY,
// OPENAI_API_KEY, GOOGLE_API_KEY), falling back to script.GoRuntime
// otherwise. This lives outside the config package deliberately: the
// provider SDKs (anthropic-sdk-go, openai-go, generative-ai-go) each read
// their own transport-level environment variables, and config.Load's
// contract is limited to COORDINATOR_URI/STATE_MANAGER/SQLITE_PATH.
//
// The GoRuntime fallback has no registered transforms — every FuncBody it
// sees folds to value.Invalid() per script/goruntime.go's unregistered-body
// contract — so a worker started with no provider credential can accept
// deploys but cannot evaluate a real operator. That is an operational
// misconfiguration to fix by setting a provider key, not a bug in this
// binary: GoRuntime's registry exists for embedding precompiled transforms
// a specific deployment links in, which this generic binary does not do.
func buildRuntimeFactory(self event.HostAddr) func(event.DetailsKind) script.Runtime {
	script.Bootstrap()

	modelName := os.Getenv("LLM_MODEL")
	// RuntimeFactory carries no job context, so one CostTracker is shared
	// by every job this process deploys; JobID is set to this worker's own
	// address rather than left blank, purely to identify the source in
	// logs/metrics that read CostTracker.JobID.
	tracker := script.NewCostTracker(self.String())

	var model script.ChatModel
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		model = anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), modelName)
	case os.Getenv("OPENAI_API_KEY") != "":
		model = openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), modelName)
	case os.Getenv("GOOGLE_API_KEY") != "":
		model = google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), modelName)
	}

	if model == nil {
		log.Println("worker: no LLM provider credential configured (ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY); falling back to script.GoRuntime, which cannot evaluate user-supplied transform bodies")
		return func(event.DetailsKind) script.Runtime {
			return script.NewGoRuntime()
		}
	}

	return func(event.DetailsKind) script.Runtime {
		return script.NewLLMRuntime(model, modelName, tracker)
	}
}

func selfAddr() event.HostAddr {
	raw := os.Getenv("WORKER_ADDR")
	if raw == "" {
		raw = "localhost:9100"
	}
	idx := strings.LastIndexByte(raw, ':')
	if idx < 0 {
		return event.HostAddr{Host: raw, Port: 9100}
	}
	port, err := strconv.Atoi(raw[idx+1:])
	if err != nil {
		port = 9100
	}
	return event.HostAddr{Host: raw[:idx], Port: port}
}

func metricsAddr() string {
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		return addr
	}
	return ":9091"
}
