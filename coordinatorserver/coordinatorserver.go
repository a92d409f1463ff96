// Package coordinatorserver adapts dispatcher.Dispatcher to
// transport.CoordinatorService: the gRPC-facing surface a worker's
// heartbeat emitter, ack responder, and get-dataflow callers reach (spec
// §4.6, §4.9).
package coordinatorserver

import (
	"context"
	"errors"
	"time"

	"github.com/flowdag/flowdag/dispatcher"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/transport"
)

// Server wraps a *dispatcher.Dispatcher as a transport.CoordinatorService.
type Server struct {
	dispatcher *dispatcher.Dispatcher
	metrics    *metrics.Metrics // optional; nil disables recording
}

// New builds a Server. m may be nil, in which case no metrics are recorded.
func New(d *dispatcher.Dispatcher, m *metrics.Metrics) *Server {
	return &Server{dispatcher: d, metrics: m}
}

// Heartbeat implements transport.CoordinatorService.
func (s *Server) Heartbeat(_ context.Context, req *transport.HeartbeatRequest) (*transport.HeartbeatResponse, error) {
	if s.metrics != nil && !req.Timestamp.IsZero() {
		s.metrics.ObserveHeartbeatLag(req.ExecutionId.JobId.String(), time.Since(req.Timestamp))
	}

	err := s.dispatcher.UpdateHeartbeatStatus(heartbeat.Heartbeat{
		ExecutionId: req.ExecutionId,
		Timestamp:   req.Timestamp,
		Sequence:    req.Sequence,
	})
	if err != nil && !errors.Is(err, heartbeat.ErrMonotonicViolation) {
		return nil, err
	}
	return &transport.HeartbeatResponse{AckedSequence: req.Sequence}, nil
}

// Ack implements transport.CoordinatorService.
func (s *Server) Ack(_ context.Context, req *transport.AckRequest) (*transport.AckResponse, error) {
	if err := s.dispatcher.AckFromExecution(heartbeat.Ack{
		ExecutionId: req.ExecutionId,
		Sequence:    req.Sequence,
	}); err != nil {
		return nil, err
	}
	return &transport.AckResponse{}, nil
}

// GetDataflow implements transport.CoordinatorService.
func (s *Server) GetDataflow(ctx context.Context, req *transport.GetDataflowRequest) (*transport.GetDataflowResponse, error) {
	df, ok, err := s.dispatcher.GetDataflow(ctx, req.JobId)
	if err != nil {
		return nil, err
	}
	return &transport.GetDataflowResponse{Found: ok, Dataflow: df}, nil
}
