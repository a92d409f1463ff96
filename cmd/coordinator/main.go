// Command coordinator runs the FlowDAG coordinator process: the
// Dispatcher's CoordinatorService RPCs, a cluster.View of registered
// workers, and a Prometheus /metrics endpoint.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowdag/flowdag/cluster"
	"github.com/flowdag/flowdag/config"
	"github.com/flowdag/flowdag/coordinatorserver"
	"github.com/flowdag/flowdag/dispatcher"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/telemetry"
	"github.com/flowdag/flowdag/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("coordinator: loading config: %v", err)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("coordinator: opening state backend: %v", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	emitter := telemetry.NewLogEmitter(os.Stdout, false)

	view := cluster.NewView(probeWorker)
	for _, addr := range initialWorkers() {
		view.AddWorker(addr)
	}

	d := dispatcher.New(view, store, dispatcher.Config{
		HeartbeatAddr:    cfg.CoordinatorURI,
		HeartbeatPeriod:  5 * time.Second,
		MissedForSuspect: 3,
		MissedForFailed:  6,
	}, dispatcher.DialWorker(context.Background(), m))

	go runSweepLoop(d, emitter)

	srv := grpc.NewServer()
	transport.RegisterCoordinatorServer(srv, coordinatorserver.New(d, m))

	lis, err := net.Listen("tcp", cfg.CoordinatorURI)
	if err != nil {
		log.Fatalf("coordinator: listening on %s: %v", cfg.CoordinatorURI, err)
	}

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(metricsAddr(), nil); err != nil {
			log.Printf("coordinator: metrics server: %v", err)
		}
	}()

	log.Printf("coordinator: listening on %s", cfg.CoordinatorURI)
	if err := srv.Serve(lis); err != nil {
		log.Fatalf("coordinator: serve: %v", err)
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

// initialWorkers reads WORKER_ADDRS as a comma-separated host:port list.
// The cluster.View this seeds can grow at runtime via an admin RPC in a
// fuller deployment; wiring that surface is out of this binary's scope.
func initialWorkers() []event.HostAddr {
	raw := os.Getenv("WORKER_ADDRS")
	if raw == "" {
		return nil
	}
	var out []event.HostAddr
	for _, part := range splitAndTrim(raw) {
		host, portStr, ok := cutLast(part, ':')
		if !ok {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		out = append(out, event.HostAddr{Host: host, Port: port})
	}
	return out
}

func splitAndTrim(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func cutLast(s string, sep byte) (string, string, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func metricsAddr() string {
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		return addr
	}
	return ":9090"
}

// probeWorker is the cluster.View's LivenessProbe: it opens a gRPC
// connection to addr and waits briefly for it to report Ready.
func probeWorker(addr event.HostAddr) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := transport.Dial(ctx, addr.String())
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	conn.Connect()
	for {
		st := conn.GetState()
		if st == connectivity.Ready {
			return true
		}
		if st == connectivity.TransientFailure || st == connectivity.Shutdown {
			return false
		}
		if !conn.WaitForStateChange(ctx, st) {
			return false
		}
	}
}

func runSweepLoop(d *dispatcher.Dispatcher, emitter telemetry.Emitter) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for now := range ticker.C {
		for jobID, transitions := range d.Sweep(now) {
			for execID, status := range transitions {
				emitter.Emit(telemetry.Event{
					JobId:       jobID.String(),
					ExecutionId: execID.String(),
					Msg:         "execution_status_changed",
					Meta:        map[string]interface{}{"status": status.String()},
				})
			}
		}
	}
}
