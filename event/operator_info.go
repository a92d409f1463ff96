package event

import "strconv"

// HostAddr is the resolved worker location for an operator, assigned by
// cluster.Partition during Job Manager deployment (spec §3 invariant: every
// operator's HostAddr is assigned before any deployment call).
type HostAddr struct {
	Host string
	Port int
}

func (h HostAddr) String() string {
	if h.Host == "" {
		return ""
	}
	return h.Host + ":" + strconv.Itoa(h.Port)
}

// IsZero reports whether no address has been assigned yet.
func (h HostAddr) IsZero() bool { return h == HostAddr{} }

// DetailsKind discriminates the OperatorDetails variant. It mirrors the
// original source's Details enum (Map | Filter | KeyBy | Reducer | FlatMap |
// source | sink | …) plus Empty, the unset placeholder the original used as
// a zero value. A dataflow containing Empty or an unrecognized kind is
// rejected at submission by Validate (see dataflow.go) rather than causing
// an execution-time panic — one of the Design Notes' open questions,
// resolved per the spec's own instruction.
type DetailsKind int

const (
	DetailsEmpty DetailsKind = iota
	DetailsMap
	DetailsFilter
	DetailsKeyBy
	DetailsReducer
	DetailsFlatMap
	DetailsSource
	DetailsSink
)

func (k DetailsKind) String() string {
	switch k {
	case DetailsMap:
		return "Map"
	case DetailsFilter:
		return "Filter"
	case DetailsKeyBy:
		return "KeyBy"
	case DetailsReducer:
		return "Reducer"
	case DetailsFlatMap:
		return "FlatMap"
	case DetailsSource:
		return "Source"
	case DetailsSink:
		return "Sink"
	default:
		return "Empty"
	}
}

// OperatorDetails holds the operator-kind-specific configuration of an
// OperatorInfo. FuncBody is the user-supplied transform body handed to the
// scripting runtime for Map/Filter/FlatMap/KeyBy/Reducer; Source and Sink
// instead carry a connector address (interpreted by the worker's concrete
// Source/Sink wiring, e.g. operator.HTTPSink's endpoint URL).
type OperatorDetails struct {
	Kind            DetailsKind
	FuncBody        string
	ConnectorTarget string
}

// OperatorInfo describes one node of a Dataflow (spec §3).
type OperatorInfo struct {
	OperatorId int
	HostAddr   *HostAddr
	Upstreams  map[int]struct{}
	Details    OperatorDetails
}
