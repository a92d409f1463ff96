// Package cluster tracks the coordinator's view of live workers and turns a
// submitted Dataflow into per-worker Subdataflows (spec §4.5, §5, §6).
package cluster

import (
	"sync"
	"time"

	"github.com/flowdag/flowdag/event"
)

// WorkerStatus is a worker's last-observed liveness (spec §6).
type WorkerStatus int

const (
	Unknown WorkerStatus = iota
	Ready
	Unreachable
)

func (s WorkerStatus) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Unreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// WorkerEntry is one registered worker and its last probe result.
type WorkerEntry struct {
	Addr      event.HostAddr
	Status    WorkerStatus
	LastProbe time.Time
}

// LivenessProbe checks whether addr is currently reachable. The coordinator
// binary's implementation (cmd/coordinator probeWorker) checks the gRPC
// connection state to the worker; this package only needs the resulting bool.
type LivenessProbe func(addr event.HostAddr) bool

// View is the coordinator's read-mostly registry of workers: many readers
// (Partition, Split callers) take the RLock, the occasional probe refresh
// takes the write lock (spec §5, "single-writer/many-reader").
type View struct {
	mu      sync.RWMutex
	workers map[string]*WorkerEntry
	probe   LivenessProbe
}

// NewView builds an empty View. probe may be nil, in which case Readiness
// probes leave every worker's status at whatever AddWorker last set.
func NewView(probe LivenessProbe) *View {
	return &View{workers: make(map[string]*WorkerEntry), probe: probe}
}

// AddWorker registers addr as Ready. Re-adding an existing addr replaces its
// entry: the status goes back to Ready and LastProbe is cleared.
func (v *View) AddWorker(addr event.HostAddr) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.workers[addr.String()] = &WorkerEntry{Addr: addr, Status: Ready, LastProbe: time.Time{}}
}

// RemoveWorker drops addr from the view entirely, e.g. on graceful
// decommission.
func (v *View) RemoveWorker(addr event.HostAddr) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.workers, addr.String())
}

// LiveWorkers returns every worker currently Ready, in a stable order
// (sorted by address string) so Partition's hash assignment is
// deterministic across calls with the same membership.
func (v *View) LiveWorkers() []event.HostAddr {
	v.mu.RLock()
	defer v.mu.RUnlock()

	addrs := make([]event.HostAddr, 0, len(v.workers))
	for _, e := range v.workers {
		if e.Status == Ready {
			addrs = append(addrs, e.Addr)
		}
	}
	sortHostAddrs(addrs)
	return addrs
}

func sortHostAddrs(addrs []event.HostAddr) {
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && addrs[j-1].String() > addrs[j].String(); j-- {
			addrs[j-1], addrs[j] = addrs[j], addrs[j-1]
		}
	}
}

// ProbeKind selects which liveness check Probe performs (spec §6).
type ProbeKind int

const (
	// Readiness triggers an asynchronous liveness refresh of every
	// registered worker as a side effect, returning the view's readiness
	// as observed before that refresh completes.
	Readiness ProbeKind = iota
	// Liveness is a no-op read of the current readiness, with no refresh
	// side effect.
	Liveness
)

// Probe reports whether the view currently has at least one live worker.
// A Readiness probe additionally kicks off an asynchronous refresh of every
// worker's status via the configured LivenessProbe; Probe itself does not
// wait for that refresh.
func (v *View) Probe(kind ProbeKind) bool {
	if kind == Readiness && v.probe != nil {
		go v.refresh()
	}
	return v.anyReady()
}

func (v *View) anyReady() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, e := range v.workers {
		if e.Status == Ready {
			return true
		}
	}
	return false
}

func (v *View) refresh() {
	v.mu.RLock()
	addrs := make([]event.HostAddr, 0, len(v.workers))
	for _, e := range v.workers {
		addrs = append(addrs, e.Addr)
	}
	v.mu.RUnlock()

	results := make(map[string]bool, len(addrs))
	for _, addr := range addrs {
		results[addr.String()] = v.probe(addr)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := time.Now()
	for key, live := range results {
		e, ok := v.workers[key]
		if !ok {
			continue
		}
		if live {
			e.Status = Ready
		} else {
			e.Status = Unreachable
		}
		e.LastProbe = now
	}
}
