// Package transport implements the worker↔worker and worker↔coordinator RPC
// surface FlowDAG needs (spec §4.2's RemoteOutEdge send_event_to_operator,
// §4.3's heartbeat/ack exchange, §4.4's deploy/terminate): plain Go request
// and response structs carried over google.golang.org/grpc using a
// hand-rolled JSON codec rather than protoc-generated stubs, since nothing
// in the example corpus ships a .proto/protoc-gen-go pipeline we could
// ground generated code on (grounded instead on the corpus's bring-your-own
// grpc.ServiceDesc usage, e.g. goadesign-goa-ai's runtime/registry client
// adapter, which drives grpc.ClientConn.Invoke directly).
package transport

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc's global encoding registry so both
// client and server select it via grpc.CallContentSubtype/ForceCodec.
const CodecName = "flowdag-json"

// jsonCodec implements encoding.Codec (formerly grpc.Codec) by marshaling
// any Go value with encoding/json instead of requiring it to implement
// proto.Message.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
