// Package heartbeat implements the liveness and acknowledgement mechanism
// between an Execution and the coordinator (spec §4.3): a periodic
// Heartbeat flowing execution → coordinator, and an Ack flowing the
// opposite direction in response to a received control message.
package heartbeat

import (
	"time"

	"github.com/flowdag/flowdag/event"
)

// Heartbeat is sent by an Execution every heartbeat period (spec §4.3).
type Heartbeat struct {
	ExecutionId event.ExecutionId
	Timestamp   time.Time
	Sequence    uint64
}

// Ack acknowledges receipt of a control message by execution id and
// sequence (spec §4.3: "Ack flow is reverse to heartbeat").
type Ack struct {
	ExecutionId event.ExecutionId
	Sequence    uint64
}
