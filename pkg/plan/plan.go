// Package plan contains the containers that moves are rendered into before they're handed
// to kafka, and the batcher that splits moves into them.
package plan

import (
	"encoding/json"

	"github.com/segmentio/kassigner/pkg/cluster"
)

// Kind identifies the type of admin operation a batch feeds.
type Kind string

const (
	KindReassignment   Kind = "reassignment"
	KindLeaderElection Kind = "leader-election"
)

// Batch is a single unit of execution.
type Batch interface {
	Kind() Kind
	Len() int
	JSON() ([]byte, error)
}

// Move is the new replica list of a single partition.
type Move struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Replicas  []int  `json:"replicas"`
}

// Reassignment is a partition reassignment plan, in the format that kafka reads from
// /admin/reassign_partitions.
type Reassignment struct {
	Version    int    `json:"version"`
	Partitions []Move `json:"partitions"`
}

var _ Batch = (*Reassignment)(nil)

// NewReassignment returns a reassignment of the argument partitions to their current
// replica lists.
func NewReassignment(partitions []*cluster.Partition) *Reassignment {
	reassignment := &Reassignment{
		Version:    1,
		Partitions: []Move{},
	}
	for _, partition := range partitions {
		reassignment.Partitions = append(
			reassignment.Partitions,
			Move{
				Topic:     partition.TopicName(),
				Partition: partition.Num,
				Replicas:  partition.ReplicaIDs(),
			},
		)
	}
	return reassignment
}

func (r *Reassignment) Kind() Kind {
	return KindReassignment
}

func (r *Reassignment) Len() int {
	return len(r.Partitions)
}

func (r *Reassignment) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// ElectionPartition identifies a partition whose preferred leader should take over.
type ElectionPartition struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
}

// LeaderElection is a preferred replica election plan, in the format that kafka reads
// from /admin/preferred_replica_election.
type LeaderElection struct {
	Partitions []ElectionPartition `json:"partitions"`
}

var _ Batch = (*LeaderElection)(nil)

// NewLeaderElection returns a preferred replica election for the argument partitions.
func NewLeaderElection(partitions []*cluster.Partition) *LeaderElection {
	election := &LeaderElection{
		Partitions: []ElectionPartition{},
	}
	for _, partition := range partitions {
		election.Partitions = append(
			election.Partitions,
			ElectionPartition{
				Topic:     partition.TopicName(),
				Partition: partition.Num,
			},
		)
	}
	return election
}

func (l *LeaderElection) Kind() Kind {
	return KindLeaderElection
}

func (l *LeaderElection) Len() int {
	return len(l.Partitions)
}

func (l *LeaderElection) JSON() ([]byte, error) {
	return json.Marshal(l)
}
