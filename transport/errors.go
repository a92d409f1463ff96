package transport

import (
	"errors"
	"fmt"
)

// ErrRPCFailed marks an RPC call that exhausted its RetryPolicy. edge.
// RemoteOutEdge wraps this as edge.ErrSendToRemoteFailed so a caller working
// purely at the edge layer never needs to import transport to recognize the
// failure kind.
var ErrRPCFailed = errors.New("transport: rpc failed")

func SendToRemoteFailed(cause error) error {
	return fmt.Errorf("%w: %v", ErrRPCFailed, cause)
}
