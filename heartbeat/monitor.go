package heartbeat

import (
	"errors"
	"sync"
	"time"

	"github.com/flowdag/flowdag/event"
)

// ErrMonotonicViolation is returned by Observe when a Heartbeat's timestamp
// is older than the last one recorded for the same execution — the
// invariant spec §3 states must hold ("An execution's HeartbeatStatus
// timestamps are monotonically non-decreasing").
var ErrMonotonicViolation = errors.New("heartbeat: timestamp is older than the last observed")

// HeartbeatStatus is the coordinator's view of one execution's liveness:
// last received timestamp, last ack sequence received, and consecutive
// missed periods. It holds no lifecycle state; scheduler.ExecutionHandle
// keeps that.
type HeartbeatStatus struct {
	LastSeen        time.Time
	LastAckSequence uint64
	MissedCount     int
}

// Monitor tracks HeartbeatStatus for every execution the coordinator is
// watching and decides Suspect/Failed transitions from missed heartbeats
// (spec §4.3). It holds no opinion about the Running/Closing/Closed part of
// an Execution's state machine — that belongs to the scheduler/execution
// packages, which consult Sweep's results.
type Monitor struct {
	mu               sync.Mutex
	period           time.Duration
	missedForSuspect int
	missedForFailed  int
	statuses         map[event.ExecutionId]*HeartbeatStatus
}

// NewMonitor builds a Monitor. missedForSuspect and missedForFailed are the
// N and M thresholds from spec §4.3 (M > N).
func NewMonitor(period time.Duration, missedForSuspect, missedForFailed int) *Monitor {
	return &Monitor{
		period:           period,
		missedForSuspect: missedForSuspect,
		missedForFailed:  missedForFailed,
		statuses:         make(map[event.ExecutionId]*HeartbeatStatus),
	}
}

// Track registers id for liveness tracking, starting from now so the first
// Sweep doesn't immediately see it as missed.
func (m *Monitor) Track(id event.ExecutionId, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = &HeartbeatStatus{LastSeen: now}
}

// Untrack stops watching id, e.g. once its Execution reaches Closed.
func (m *Monitor) Untrack(id event.ExecutionId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, id)
}

// Observe records a received Heartbeat, resetting the missed count.
func (m *Monitor) Observe(hb Heartbeat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[hb.ExecutionId]
	if !ok {
		st = &HeartbeatStatus{}
		m.statuses[hb.ExecutionId] = st
	}
	if !st.LastSeen.IsZero() && hb.Timestamp.Before(st.LastSeen) {
		return ErrMonotonicViolation
	}
	st.LastSeen = hb.Timestamp
	st.MissedCount = 0
	return nil
}

// ObserveAck records the last-ack sequence for id.
func (m *Monitor) ObserveAck(ack Ack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.statuses[ack.ExecutionId]; ok {
		st.LastAckSequence = ack.Sequence
	}
}

// Status returns a copy of id's current HeartbeatStatus.
func (m *Monitor) Status(id event.ExecutionId) (HeartbeatStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[id]
	if !ok {
		return HeartbeatStatus{}, false
	}
	return *st, true
}

// Transition is the missed-heartbeat verdict Sweep reports for one
// execution: Suspect once missedForSuspect consecutive periods have elapsed
// without a heartbeat, Failed once missedForFailed have.
type Transition int

const (
	// TransitionNone means no threshold was crossed since the last Sweep.
	TransitionNone Transition = iota
	TransitionSuspect
	TransitionFailed
)

// Sweep advances every tracked execution's missed-heartbeat count against
// now and reports which ones just crossed the Suspect or Failed threshold.
// An execution that was already Failed on a prior Sweep is not reported
// again.
func (m *Monitor) Sweep(now time.Time) map[event.ExecutionId]Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[event.ExecutionId]Transition)
	for id, st := range m.statuses {
		elapsed := now.Sub(st.LastSeen)
		missed := int(elapsed / m.period)
		if missed <= st.MissedCount {
			continue
		}
		prev := st.MissedCount
		st.MissedCount = missed
		switch {
		case missed >= m.missedForFailed && prev < m.missedForFailed:
			out[id] = TransitionFailed
		case missed >= m.missedForSuspect && prev < m.missedForSuspect:
			out[id] = TransitionSuspect
		}
	}
	return out
}
