package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/flowdag/flowdag/metrics"
)

// Invoker is the slice of *grpc.ClientConn that WorkerClient/CoordinatorClient
// actually use. Depending on the interface rather than the concrete type
// lets tests, and edge.RemoteOutEdge's own tests, substitute a fake that
// never opens a socket.
type Invoker interface {
	Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error
}

// Dial opens a gRPC connection to addr using the flowdag-json codec in
// place of protobuf, so calls can carry the plain Go structs in messages.go
// without a .proto/protoc-gen-go pipeline. FlowDAG's intra-cluster traffic
// runs over a trusted network, matching the teacher corpus's use of
// insecure.NewCredentials() for internal service-to-service calls.
func Dial(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return conn, nil
}

// WorkerClient calls a remote worker's WorkerService, retrying transient
// failures per its RetryPolicy.
type WorkerClient struct {
	conn    Invoker
	close   func() error
	policy  RetryPolicy
	metrics *metrics.Metrics
}

// NewWorkerClient wraps an established connection. policy defaults to
// DefaultRetryPolicy when zero-valued (MaxAttempts == 0).
func NewWorkerClient(conn *grpc.ClientConn, policy RetryPolicy) *WorkerClient {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &WorkerClient{conn: conn, close: conn.Close, policy: policy}
}

// NewWorkerClientWithInvoker builds a WorkerClient over any Invoker, not
// just a dialed *grpc.ClientConn. Close is a no-op since the caller retains
// ownership of inv's lifecycle.
func NewWorkerClientWithInvoker(inv Invoker, policy RetryPolicy) *WorkerClient {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &WorkerClient{conn: inv, policy: policy}
}

// WithMetrics records a retry on m's flowdag_rpc_retries_total counter every
// time this client retries an RPC. Returns c for chaining at construction.
func (c *WorkerClient) WithMetrics(m *metrics.Metrics) *WorkerClient {
	c.metrics = m
	return c
}

func (c *WorkerClient) CreateSubDataflow(ctx context.Context, req *DeployRequest) (*DeployResponse, error) {
	resp := new(DeployResponse)
	err := withRetry(ctx, c.policy, c.metrics, "CreateSubDataflow", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(workerServiceName, "CreateSubDataflow"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

func (c *WorkerClient) StopSubDataflow(ctx context.Context, req *TerminateRequest) (*TerminateResponse, error) {
	resp := new(TerminateResponse)
	err := withRetry(ctx, c.policy, c.metrics, "StopSubDataflow", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(workerServiceName, "StopSubDataflow"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

// SendEventToOperator forwards a data event to a peer worker (the RPC
// RemoteOutEdge targets, spec §4.2). Callers are expected to have already
// dropped Terminate control events before reaching this call — RemoteOutEdge
// handles that filtering.
func (c *WorkerClient) SendEventToOperator(ctx context.Context, req *SendEventRequest) (*SendEventResponse, error) {
	resp := new(SendEventResponse)
	err := withRetry(ctx, c.policy, c.metrics, "SendEventToOperator", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(workerServiceName, "SendEventToOperator"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

func (c *WorkerClient) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// CoordinatorClient calls the coordinator's CoordinatorService.
type CoordinatorClient struct {
	conn    Invoker
	close   func() error
	policy  RetryPolicy
	metrics *metrics.Metrics
}

func NewCoordinatorClient(conn *grpc.ClientConn, policy RetryPolicy) *CoordinatorClient {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &CoordinatorClient{conn: conn, close: conn.Close, policy: policy}
}

// NewCoordinatorClientWithInvoker builds a CoordinatorClient over any
// Invoker, not just a dialed *grpc.ClientConn — the CoordinatorClient
// counterpart to NewWorkerClientWithInvoker, for tests that substitute a
// fake Invoker rather than opening a socket.
func NewCoordinatorClientWithInvoker(inv Invoker, policy RetryPolicy) *CoordinatorClient {
	if policy.MaxAttempts == 0 {
		policy = DefaultRetryPolicy()
	}
	return &CoordinatorClient{conn: inv, policy: policy}
}

// WithMetrics records a retry on m's flowdag_rpc_retries_total counter every
// time this client retries an RPC. Returns c for chaining at construction.
func (c *CoordinatorClient) WithMetrics(m *metrics.Metrics) *CoordinatorClient {
	c.metrics = m
	return c
}

func (c *CoordinatorClient) Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error) {
	resp := new(HeartbeatResponse)
	err := withRetry(ctx, c.policy, c.metrics, "Heartbeat", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(coordinatorServiceName, "Heartbeat"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

// Ack reports receipt of a control message back to the coordinator (spec
// §4.3: "Ack flow is reverse to heartbeat").
func (c *CoordinatorClient) Ack(ctx context.Context, req *AckRequest) (*AckResponse, error) {
	resp := new(AckResponse)
	err := withRetry(ctx, c.policy, c.metrics, "Ack", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(coordinatorServiceName, "Ack"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

func (c *CoordinatorClient) GetDataflow(ctx context.Context, req *GetDataflowRequest) (*GetDataflowResponse, error) {
	resp := new(GetDataflowResponse)
	err := withRetry(ctx, c.policy, c.metrics, "GetDataflow", func(ctx context.Context) error {
		return c.conn.Invoke(ctx, method(coordinatorServiceName, "GetDataflow"), req, resp)
	})
	if err != nil {
		return nil, SendToRemoteFailed(err)
	}
	return resp, nil
}

func (c *CoordinatorClient) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func method(service, rpc string) string {
	return "/" + service + "/" + rpc
}
