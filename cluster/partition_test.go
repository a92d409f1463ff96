package cluster

import (
	"testing"

	"github.com/flowdag/flowdag/event"
)

func TestPartitionAssignsEveryOperatorAHostAddr(t *testing.T) {
	df := event.Dataflow{
		JobId: event.JobId{ResourceId: "job-1"},
		Nodes: map[int]event.OperatorInfo{
			1: {OperatorId: 1, Details: event.OperatorDetails{Kind: event.DetailsSource}},
			2: {OperatorId: 2, Details: event.OperatorDetails{Kind: event.DetailsMap}},
			3: {OperatorId: 3, Details: event.OperatorDetails{Kind: event.DetailsSink}},
		},
	}
	workers := []event.HostAddr{{Host: "w1", Port: 1}, {Host: "w2", Port: 2}}

	out, err := Partition(df, workers)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	for id, info := range out.Nodes {
		if info.HostAddr == nil {
			t.Fatalf("operator %d has no HostAddr", id)
		}
	}
}

func TestPartitionIsDeterministicAcrossCalls(t *testing.T) {
	df := event.Dataflow{
		JobId: event.JobId{ResourceId: "job-2"},
		Nodes: map[int]event.OperatorInfo{
			1: {OperatorId: 1, Details: event.OperatorDetails{Kind: event.DetailsSource}},
			2: {OperatorId: 2, Details: event.OperatorDetails{Kind: event.DetailsSink}},
		},
	}
	workers := []event.HostAddr{{Host: "w1", Port: 1}, {Host: "w2", Port: 2}, {Host: "w3", Port: 3}}

	first, err := Partition(df, workers)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	second, err := Partition(df, workers)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	for id := range df.Nodes {
		if *first.Nodes[id].HostAddr != *second.Nodes[id].HostAddr {
			t.Fatalf("operator %d assignment changed between calls: %v vs %v", id, first.Nodes[id].HostAddr, second.Nodes[id].HostAddr)
		}
	}
}

func TestPartitionRejectsEmptyWorkerSet(t *testing.T) {
	df := event.Dataflow{JobId: event.JobId{ResourceId: "job-3"}}
	if _, err := Partition(df, nil); err != ErrNoWorkers {
		t.Fatalf("expected ErrNoWorkers, got %v", err)
	}
}
