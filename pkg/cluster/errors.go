package cluster

import "errors"

var (
	// ErrReplicaNotFound is returned when a broker that is expected to be a replica of a
	// partition is not in its replica list.
	ErrReplicaNotFound = errors.New("Broker is not a replica of partition")

	// ErrClusterConsistency is returned when the broker/partition index invariant is broken
	// or when two clusters being compared do not describe the same partitions.
	ErrClusterConsistency = errors.New("Cluster is not consistent")

	// ErrUnknownBroker is returned when a broker id is not in the cluster.
	ErrUnknownBroker = errors.New("Unknown broker")

	// ErrUnknownTopic is returned when a topic name is not in the cluster.
	ErrUnknownTopic = errors.New("Unknown topic")

	// ErrUnknownPartition is returned when a partition number is not in its topic.
	ErrUnknownPartition = errors.New("Unknown partition")
)
