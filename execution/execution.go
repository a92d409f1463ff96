package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowdag/flowdag/edge"
	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/heartbeat"
	"github.com/flowdag/flowdag/metrics"
	"github.com/flowdag/flowdag/operator"
	"github.com/flowdag/flowdag/state"
)

// queueDepthSamplePeriod is how often Run samples each local mailbox's depth
// into Config.Metrics, when configured.
const queueDepthSamplePeriod = 2 * time.Second

// WorkerDialer opens an edge.OutEdge to an operator hosted on a different
// worker, given that worker's address. A concrete implementation dials
// once via transport.Dial/NewWorkerClient and wraps the result with
// edge.NewRemoteOutEdge; this package only needs the resulting OutEdge.
type WorkerDialer func(addr event.HostAddr, jobID event.JobId, toOperatorID int) (edge.OutEdge, error)

// Config is everything an Execution needs to run one Subdataflow.
type Config struct {
	ExecutionID event.ExecutionId
	Subdataflow event.Subdataflow

	Runtimes   RuntimeFactory
	Store      state.Store
	Connectors ConnectorResolver
	Dial       WorkerDialer

	MailboxCapacity int // 0 uses edge.DefaultChannelCapacity

	HeartbeatPeriod time.Duration
	HeartbeatSend   heartbeat.Sender
	AckSend         heartbeat.AckSender

	Metrics *metrics.Metrics // nil disables queue-depth sampling
}

// Execution owns one subdataflow's operators and the edges wiring them
// together, for the life of a deployment (spec §4.3). It is the worker-side
// counterpart to the coordinator's scheduler.ExecutionHandle, which only
// tracks this Execution's reported status — the two intentionally do not
// share a type, since they live in different processes and own different
// halves of the liveness protocol.
type Execution struct {
	cfg Config

	mu     sync.Mutex
	status Status

	operators map[int]operator.Operator
	sources   map[int]*operator.Source

	mailboxOut map[int]*edge.LocalOutEdge
	mailboxIn  map[int]*edge.LocalInEdge

	// outEdges[fromOperatorID][toOperatorID] routes one operator's output
	// toward one of its downstream neighbors, whether local (the
	// neighbor's own mailboxOut) or remote (edge.NewRemoteOutEdge).
	outEdges map[int]map[int]edge.OutEdge

	ackResponder *heartbeat.AckResponder
	emitter      *heartbeat.Emitter

	cancel context.CancelFunc
}

// New builds an Execution from cfg without starting it. Every operator in
// cfg.Subdataflow.Nodes is constructed and every local mailbox pair
// allocated; remote out-edges are dialed lazily by outEdgeTo, the first time
// an event or Terminate is forwarded over them, since a peer worker may not
// have deployed its side yet.
func New(cfg Config) (*Execution, error) {
	e := &Execution{
		cfg:        cfg,
		status:     Initialized,
		operators:  make(map[int]operator.Operator),
		sources:    make(map[int]*operator.Source),
		mailboxOut: make(map[int]*edge.LocalOutEdge),
		mailboxIn:  make(map[int]*edge.LocalInEdge),
		outEdges:   make(map[int]map[int]edge.OutEdge),
	}

	for id, info := range cfg.Subdataflow.Nodes {
		if !e.isLocal(info) {
			// A remote neighbor stub: present only so outEdgeTo can find its
			// HostAddr to dial. It has no operator or mailbox of its own —
			// that belongs to the Execution running on its own worker.
			continue
		}

		op, err := buildOperator(cfg.Subdataflow.JobId, info, cfg.Runtimes, cfg.Store, cfg.Connectors)
		if err != nil {
			return nil, fmt.Errorf("execution: building operator %d: %w", id, err)
		}
		e.operators[id] = op
		if src, ok := op.(*operator.Source); ok {
			e.sources[id] = src
		}

		out, in := edge.NewLocalEdge(cfg.MailboxCapacity)
		e.mailboxOut[id] = out
		e.mailboxIn[id] = in
	}

	e.ackResponder = &heartbeat.AckResponder{ExecutionId: cfg.ExecutionID, Send: cfg.AckSend}
	if cfg.HeartbeatSend != nil {
		e.emitter = &heartbeat.Emitter{
			ExecutionId: cfg.ExecutionID,
			Period:      cfg.HeartbeatPeriod,
			Send:        cfg.HeartbeatSend,
		}
	}

	return e, nil
}

// isLocal reports whether info names an operator this Execution itself
// runs, as opposed to a downstream neighbor hosted on another worker
// (cluster.Split includes those as address-only stub entries). An unset
// HostAddr is treated as local — the zero value cluster.Split never
// produces, but tests building a Subdataflow by hand rely on it.
func (e *Execution) isLocal(info event.OperatorInfo) bool {
	return info.HostAddr == nil || *info.HostAddr == e.cfg.Subdataflow.Target
}

// Status returns the Execution's current lifecycle state.
func (e *Execution) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Execution) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

// Deliver routes an inbound cross-worker event to its destination
// operator's mailbox. It is the InEdge half of every cross-worker link
// arriving at this Execution — one shared inbound queue per destination
// operator rather than one per individual upstream link (a deliberate
// simplification: the operator's Process step does not depend on which
// upstream link an event arrived on).
func (e *Execution) Deliver(ctx context.Context, ev event.KeyedDataEvent) error {
	if ev.ToOperatorId == nil {
		return fmt.Errorf("execution: delivered event has no ToOperatorId")
	}
	out, ok := e.mailboxOut[*ev.ToOperatorId]
	if !ok {
		return fmt.Errorf("execution: no operator %d in this subdataflow", *ev.ToOperatorId)
	}
	return out.Send(ctx, ev)
}

// outEdgeTo resolves (dialing lazily if needed) the OutEdge operator
// fromID uses to reach neighbor toID.
func (e *Execution) outEdgeTo(fromID, toID int) (edge.OutEdge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if byTo, ok := e.outEdges[fromID]; ok {
		if oe, ok := byTo[toID]; ok {
			return oe, nil
		}
	} else {
		e.outEdges[fromID] = make(map[int]edge.OutEdge)
	}

	if local, ok := e.mailboxOut[toID]; ok {
		e.outEdges[fromID][toID] = local
		return local, nil
	}

	info, ok := e.cfg.Subdataflow.Nodes[toID]
	if !ok || info.HostAddr == nil {
		return nil, fmt.Errorf("execution: neighbor %d has no resolvable address", toID)
	}
	oe, err := e.cfg.Dial(*info.HostAddr, e.cfg.ExecutionID.JobId, toID)
	if err != nil {
		return nil, fmt.Errorf("execution: dialing neighbor %d: %w", toID, err)
	}
	e.outEdges[fromID][toID] = oe
	return oe, nil
}

// downstreamsOf returns fromID's neighbor ids from the subdataflow's
// adjacency.
func (e *Execution) downstreamsOf(fromID int) []int {
	for _, entry := range e.cfg.Subdataflow.Adjacency {
		if entry.Center == fromID {
			return entry.Neighbors
		}
	}
	return nil
}

// forward sends one produced event to every downstream neighbor of its
// producing operator, stamping ToOperatorId per recipient.
func (e *Execution) forward(ctx context.Context, out event.KeyedDataEvent) error {
	neighbors := e.downstreamsOf(out.FromOperatorId)
	for _, n := range neighbors {
		oe, err := e.outEdgeTo(out.FromOperatorId, n)
		if err != nil {
			return err
		}
		stamped := out.Clone()
		to := n
		stamped.ToOperatorId = &to
		if err := oe.Send(ctx, stamped); err != nil {
			if errors.Is(err, edge.ErrSendToLocalFailed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// The neighbor's InEdge is already closed, or ctx was
				// cancelled out from under us — Terminate got there first.
				// The event is moot, not a failure of this operator.
				continue
			}
			return fmt.Errorf("execution: forwarding operator %d -> %d: %w", out.FromOperatorId, n, err)
		}
	}
	return nil
}

// Run starts every operator's process loop, the Source poll loops, the
// heartbeat emitter and (when Config.Metrics is set) the queue-depth
// sampler, all under one errgroup so any failure cancels the rest (spec
// §4.6). The ack responder has no loop of its own: Acknowledge calls it
// directly. Run returns once every loop has returned — on ctx cancellation,
// on the first non-context error, or when all loops finish on their own
// (e.g. sources exhausted and no heartbeat emitter or sampler configured).
func (e *Execution) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	defer cancel()

	e.setStatus(Running)
	defer e.setStatus(Closed)

	g, gctx := errgroup.WithContext(ctx)

	for id := range e.operators {
		id := id
		if _, isSource := e.sources[id]; isSource {
			g.Go(func() error { return e.runSource(gctx, id) })
			continue
		}
		g.Go(func() error { return e.runOperator(gctx, id) })
	}

	if e.emitter != nil {
		g.Go(func() error {
			err := e.emitter.Run(gctx)
			if err == context.Canceled || err == context.DeadlineExceeded {
				return nil
			}
			return err
		})
	}

	if e.cfg.Metrics != nil {
		g.Go(func() error { return e.sampleQueueDepth(gctx) })
	}

	return g.Wait()
}

// sampleQueueDepth periodically reports every local mailbox's buffered item
// count to e.cfg.Metrics, until ctx is cancelled.
func (e *Execution) sampleQueueDepth(ctx context.Context) error {
	jobID := e.cfg.ExecutionID.JobId.String()
	ticker := time.NewTicker(queueDepthSamplePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for id, in := range e.mailboxIn {
				e.cfg.Metrics.SetQueueDepth(jobID, id, in.Len())
			}
		}
	}
}

// runOperator drains id's mailbox, processes each event, and forwards the
// results, until ctx is cancelled or its InEdge is closed.
func (e *Execution) runOperator(ctx context.Context, id int) error {
	op := e.operators[id]
	in := e.mailboxIn[id]

	for {
		ev, ok, err := in.Receive(ctx)
		if err != nil {
			if err == context.Canceled || err == context.DeadlineExceeded {
				return nil
			}
			return fmt.Errorf("execution: operator %d: receiving: %w", id, err)
		}
		if !ok {
			// Mailbox closed: either Terminate() dropped our InEdge, or an
			// upstream operator exhausted and propagated Terminate to us.
			// Cascade it to our own downstream neighbors before exiting so
			// termination reaches every leaf of the subdataflow.
			e.propagateTerminate(ctx, id)
			return nil
		}

		outs, err := op.Process(ctx, ev)
		if err != nil {
			return fmt.Errorf("execution: operator %d: processing: %w", id, err)
		}
		for _, out := range outs {
			if err := e.forward(ctx, out); err != nil {
				return err
			}
		}
	}
}

// propagateTerminate sends a Terminate control signal to every downstream
// neighbor of fromID. Failures are ignored: a neighbor that has already
// closed its InEdge, or a remote edge that drops Terminate entirely, is not
// a reason to fail the whole Execution (spec §4.2).
func (e *Execution) propagateTerminate(ctx context.Context, fromID int) {
	for _, n := range e.downstreamsOf(fromID) {
		if oe, err := e.outEdgeTo(fromID, n); err == nil {
			_ = oe.SendTerminate(ctx)
		}
	}
}

// runSource polls a Source operator directly rather than via its mailbox
// (operator.Source doc: "Process ignores its in argument entirely"),
// forwarding every produced event until the generator is exhausted or ctx
// is cancelled.
func (e *Execution) runSource(ctx context.Context, id int) error {
	op := e.operators[id]

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		outs, err := op.Process(ctx, event.KeyedDataEvent{})
		if err != nil {
			return fmt.Errorf("execution: source %d: %w", id, err)
		}
		if len(outs) == 0 {
			e.propagateTerminate(ctx, id)
			return nil // exhausted.
		}
		for _, out := range outs {
			if err := e.forward(ctx, out); err != nil {
				return err
			}
		}
	}
}

// Acknowledge responds to one control-message sequence from the
// coordinator (spec §4.3).
func (e *Execution) Acknowledge(ctx context.Context, sequence uint64) error {
	return e.ackResponder.Acknowledge(ctx, sequence)
}

// Terminate transitions the Execution to Closing, closes every local
// mailbox's InEdge (which unblocks any operator loop waiting on Receive
// and cascades via their own propagateTerminate calls), then cancels the
// context Run is bound to so loops blocked on backpressure or an RPC
// round-trip unwind promptly. Remote neighbors are not torn down here —
// that is the Scheduler's job via an explicit StopSubDataflow RPC to their
// own worker, not something this Execution's edges propagate (spec §4.2:
// RemoteOutEdge drops Terminate).
func (e *Execution) Terminate(_ context.Context) error {
	e.setStatus(Closing)

	for _, in := range e.mailboxIn {
		in.Close()
	}

	if e.cancel != nil {
		e.cancel()
	}
	return nil
}
