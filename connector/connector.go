// Package connector provides the built-in Source/Sink wiring a worker
// process uses to resolve an OperatorInfo.Details.ConnectorTarget string
// into the operator.Generator or Sink.Write function the execution package's
// ConnectorResolver contract expects. This is deliberately the smallest
// useful set, not a pluggable connector framework: a line-delimited file
// reader for ingestion and operator.HTTPSink for egress, the two connector
// shapes the teacher's own tool package (graph/tool/http.go) and examples
// already lean on.
package connector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/flowdag/flowdag/event"
	"github.com/flowdag/flowdag/operator"
	"github.com/flowdag/flowdag/value"
)

// Resolver implements execution.ConnectorResolver. A target string of the
// form "file://<path>" resolves to a line-delimited file Source; "http://"
// or "https://" resolves to an operator.HTTPSink. Any other target produces
// a Generator/Write that immediately signals exhaustion/failure rather than
// panicking — a misconfigured deployment should fail loudly at run time,
// not bring down the whole worker process.
type Resolver struct{}

func (Resolver) Source(connectorTarget string) operator.Generator {
	path, ok := strings.CutPrefix(connectorTarget, "file://")
	if !ok {
		return func(context.Context) (value.Entry, bool) { return value.Entry{}, false }
	}
	return fileGenerator(path)
}

func (Resolver) Sink(connectorTarget string) func(ctx context.Context, in event.KeyedDataEvent) error {
	if strings.HasPrefix(connectorTarget, "http://") || strings.HasPrefix(connectorTarget, "https://") {
		sink := operator.NewHTTPSink(connectorTarget)
		return sink.Write
	}
	return func(context.Context, event.KeyedDataEvent) error {
		return fmt.Errorf("connector: unrecognized sink target %q", connectorTarget)
	}
}

// fileGenerator returns an operator.Generator that yields one value.Entry
// per line of path, opened lazily on its first call so Resolver.Source
// itself never fails even if the file doesn't exist yet.
func fileGenerator(path string) operator.Generator {
	var (
		file    *os.File
		scanner *bufio.Scanner
		failed  bool
	)

	return func(context.Context) (value.Entry, bool) {
		if failed {
			return value.Entry{}, false
		}
		if file == nil {
			f, err := os.Open(path)
			if err != nil {
				failed = true
				return value.Entry{}, false
			}
			file = f
			scanner = bufio.NewScanner(file)
		}
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			return value.NewEntry(value.String(line)), true
		}
		_ = file.Close()
		failed = true
		return value.Entry{}, false
	}
}
