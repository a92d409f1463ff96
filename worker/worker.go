// Package worker implements the worker process's transport.WorkerService:
// accepting deployed subdataflows, running them to completion or
// termination, and routing forwarded cross-worker events into the right
// execution's mailbox (spec §4.2, §4.4, §4.9).
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowdag/flowdag/edge"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/execution"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/state"
	"github.com/flowdag/flowdag/telemetry"
	"github.com/flowdag/flowdag/transport"
)

// Server implements transport.WorkerService. It owns every Execution
// currently deployed to this process, keyed by ExecutionId, and the shared
// dependencies every Execution is built from.
type Server struct {
	self       event.HostAddr
	runtimes   execution.RuntimeFactory
	connectors execution.ConnectorResolver
	store      state.Store
	metrics    *metrics.Metrics
	emitter    telemetry.Emitter

	coordDial func(ctx context.Context) (*transport.CoordinatorClient, error)

	mu         sync.Mutex
	executions map[event.ExecutionId]*execution.Execution
	peers      map[string]*transport.WorkerClient
	coord      *transport.CoordinatorClient
}

// New builds a Server. self is this process's own HostAddr, used by every
// Execution it starts to decide which OperatorInfo entries are local (see
// execution.Execution.isLocal). coordDial opens (or reuses) a connection to
// the coordinator named by a deployment's HeartbeatAddr.
func New(
	self event.HostAddr,
	runtimes execution.RuntimeFactory,
	connectors execution.ConnectorResolver,
	store state.Store,
	m *metrics.Metrics,
	emitter telemetry.Emitter,
	coordDial func(ctx context.Context) (*transport.CoordinatorClient, error),
) *Server {
	return &Server{
		self:       self,
		runtimes:   runtimes,
		connectors: connectors,
		store:      store,
		metrics:    m,
		emitter:    emitter,
		coordDial:  coordDial,
		executions: make(map[event.ExecutionId]*execution.Execution),
		peers:      make(map[string]*transport.WorkerClient),
	}
}

func (s *Server) peerClient(ctx context.Context, addr event.HostAddr) (*transport.WorkerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := addr.String()
	if c, ok := s.peers[key]; ok {
		return c, nil
	}
	conn, err := transport.Dial(ctx, key)
	if err != nil {
		return nil, err
	}
	c := transport.NewWorkerClient(conn, transport.DefaultRetryPolicy()).WithMetrics(s.metrics)
	s.peers[key] = c
	return c, nil
}

// dialOutEdge implements execution.WorkerDialer for every Execution this
// Server starts.
func (s *Server) dialOutEdge(addr event.HostAddr, jobID event.JobId, toOperatorID int) (edge.OutEdge, error) {
	client, err := s.peerClient(context.Background(), addr)
	if err != nil {
		return nil, fmt.Errorf("worker: dialing peer %s: %w", addr, err)
	}
	return edge.NewRemoteOutEdge(client, jobID, toOperatorID), nil
}

// coordClient returns this process's cached connection to the coordinator,
// dialing it once on first use.
func (s *Server) coordClient(ctx context.Context) (*transport.CoordinatorClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coord != nil {
		return s.coord, nil
	}
	c, err := s.coordDial(ctx)
	if err != nil {
		return nil, err
	}
	s.coord = c
	return c, nil
}

// CreateSubDataflow implements transport.WorkerService.
func (s *Server) CreateSubDataflow(ctx context.Context, req *transport.DeployRequest) (*transport.DeployResponse, error) {
	coord, err := s.coordClient(ctx)
	if err != nil {
		return &transport.DeployResponse{Accepted: false, Reason: err.Error()}, nil
	}

	exec, err := execution.New(execution.Config{
		ExecutionID:     req.ExecutionId,
		Subdataflow:     req.Subdataflow,
		Runtimes:        s.runtimes,
		Store:           s.store,
		Connectors:      s.connectors,
		Dial:            s.dialOutEdge,
		Metrics:         s.metrics,
		HeartbeatPeriod: req.HeartbeatPeriod,
		HeartbeatSend: func(ctx context.Context, hb heartbeat.Heartbeat) error {
			_, err := coord.Heartbeat(ctx, &transport.HeartbeatRequest{
				ExecutionId: hb.ExecutionId,
				Timestamp:   hb.Timestamp,
				Sequence:    hb.Sequence,
			})
			return err
		},
		AckSend: func(ctx context.Context, ack heartbeat.Ack) error {
			_, err := coord.Ack(ctx, &transport.AckRequest{
				ExecutionId: ack.ExecutionId,
				Sequence:    ack.Sequence,
			})
			return err
		},
	})
	if err != nil {
		s.emitter.Emit(telemetry.Event{
			JobId:       req.ExecutionId.JobId.String(),
			ExecutionId: req.ExecutionId.String(),
			Msg:         "deploy_rejected",
			Meta:        map[string]interface{}{"error": err.Error()},
		})
		if s.metrics != nil {
			s.metrics.IncrementDeploymentFailures(req.ExecutionId.JobId.String(), "build_failed")
		}
		return &transport.DeployResponse{Accepted: false, Reason: err.Error()}, nil
	}

	s.mu.Lock()
	s.executions[req.ExecutionId] = exec
	s.mu.Unlock()

	go func() {
		if err := exec.Run(context.Background()); err != nil {
			s.emitter.Emit(telemetry.Event{
				JobId:       req.ExecutionId.JobId.String(),
				ExecutionId: req.ExecutionId.String(),
				Msg:         "execution_failed",
				Meta:        map[string]interface{}{"error": err.Error()},
			})
		}
	}()

	s.emitter.Emit(telemetry.Event{
		JobId:       req.ExecutionId.JobId.String(),
		ExecutionId: req.ExecutionId.String(),
		Msg:         "deploy_accepted",
	})
	return &transport.DeployResponse{Accepted: true}, nil
}

// StopSubDataflow implements transport.WorkerService.
func (s *Server) StopSubDataflow(ctx context.Context, req *transport.TerminateRequest) (*transport.TerminateResponse, error) {
	s.mu.Lock()
	exec, ok := s.executions[req.ExecutionId]
	s.mu.Unlock()
	if !ok {
		// Already gone (or never deployed here) — idempotently report success.
		return &transport.TerminateResponse{Accepted: true}, nil
	}

	if err := exec.Terminate(ctx); err != nil {
		return &transport.TerminateResponse{Accepted: false}, nil
	}

	s.mu.Lock()
	delete(s.executions, req.ExecutionId)
	s.mu.Unlock()
	return &transport.TerminateResponse{Accepted: true}, nil
}

// SendEventToOperator implements transport.WorkerService, delivering a
// peer-forwarded event into the destination execution's mailbox.
func (s *Server) SendEventToOperator(ctx context.Context, req *transport.SendEventRequest) (*transport.SendEventResponse, error) {
	s.mu.Lock()
	var exec *execution.Execution
	for id, e := range s.executions {
		if id.JobId == req.Event.JobId {
			exec = e
			break
		}
	}
	s.mu.Unlock()

	if exec == nil {
		return nil, fmt.Errorf("worker: no execution running for job %s", req.Event.JobId)
	}
	if err := exec.Deliver(ctx, req.Event); err != nil {
		return nil, err
	}
	return &transport.SendEventResponse{}, nil
}
