package transport

import (
	"context"

	"google.golang.org/grpc"
)

// WorkerService is the RPC surface a worker process exposes: accepting a
// deployed subdataflow, stopping it, and receiving forwarded data events
// from a peer worker's RemoteOutEdge (spec §4.2, §4.4, §4.9).
type WorkerService interface {
	CreateSubDataflow(ctx context.Context, req *DeployRequest) (*DeployResponse, error)
	StopSubDataflow(ctx context.Context, req *TerminateRequest) (*TerminateResponse, error)
	SendEventToOperator(ctx context.Context, req *SendEventRequest) (*SendEventResponse, error)
}

// CoordinatorService is the RPC surface the coordinator exposes: receiving
// heartbeats and acks from executions, and resolving a job's persisted
// Dataflow (spec §4.3, §4.5, §4.9).
type CoordinatorService interface {
	Heartbeat(ctx context.Context, req *HeartbeatRequest) (*HeartbeatResponse, error)
	Ack(ctx context.Context, req *AckRequest) (*AckResponse, error)
	GetDataflow(ctx context.Context, req *GetDataflowRequest) (*GetDataflowResponse, error)
}

// serviceName values double as the grpc.ServiceDesc.ServiceName and as the
// RPC path segment ("/<service>/<method>"), matching what protoc-gen-go
// would emit for a .proto service — hand-rolled here since the corpus's
// grpc usage assumes a generated package we don't have (see codec.go).
const (
	workerServiceName      = "flowdag.transport.Worker"
	coordinatorServiceName = "flowdag.transport.Coordinator"
)

func workerServiceDesc(impl WorkerService) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: workerServiceName,
		HandlerType: (*WorkerService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "CreateSubDataflow",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(DeployRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(WorkerService).CreateSubDataflow(ctx, req)
				},
			},
			{
				MethodName: "StopSubDataflow",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(TerminateRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(WorkerService).StopSubDataflow(ctx, req)
				},
			},
			{
				MethodName: "SendEventToOperator",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(SendEventRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(WorkerService).SendEventToOperator(ctx, req)
				},
			},
		},
		Metadata: "flowdag/transport/worker.proto",
	}
}

func coordinatorServiceDesc(impl CoordinatorService) *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: coordinatorServiceName,
		HandlerType: (*CoordinatorService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Heartbeat",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(HeartbeatRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(CoordinatorService).Heartbeat(ctx, req)
				},
			},
			{
				MethodName: "Ack",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(AckRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(CoordinatorService).Ack(ctx, req)
				},
			},
			{
				MethodName: "GetDataflow",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					req := new(GetDataflowRequest)
					if err := dec(req); err != nil {
						return nil, err
					}
					return srv.(CoordinatorService).GetDataflow(ctx, req)
				},
			},
		},
		Metadata: "flowdag/transport/coordinator.proto",
	}
}

// RegisterWorkerServer registers impl's methods on srv using a hand-written
// ServiceDesc (see workerServiceDesc), the role protoc-gen-go-grpc's
// RegisterXServer would otherwise play.
func RegisterWorkerServer(srv *grpc.Server, impl WorkerService) {
	srv.RegisterService(workerServiceDesc(impl), impl)
}

// RegisterCoordinatorServer registers impl's methods on srv.
func RegisterCoordinatorServer(srv *grpc.Server, impl CoordinatorService) {
	srv.RegisterService(coordinatorServiceDesc(impl), impl)
}
