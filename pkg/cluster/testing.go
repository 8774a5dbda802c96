package cluster

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCluster builds a cluster for unit tests. Brokers are numbered from 1, and broker
// i+1 is in racks[i]. Each topic maps to the replica ids of its partitions, in partition
// order. Replica ids that aren't brokers are added as dead brokers.
func TestCluster(t *testing.T, racks []string, topics map[string][][]int) *Cluster {
	c := New()

	for i, rack := range racks {
		require.NoError(
			t,
			c.AddBroker(NewBroker(i+1, fmt.Sprintf("broker%d.example.com", i+1), rack)),
		)
	}

	names := []string{}
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		topic := NewTopic(name, len(topics[name]))

		for p, replicas := range topics[name] {
			for _, id := range replicas {
				broker, ok := c.Broker(id)
				if !ok {
					broker = NewBroker(id, "", "")
					require.NoError(t, c.AddBroker(broker))
				}
				topic.Partitions[p].AddReplica(broker, -1)
			}
		}

		require.NoError(t, c.AddTopic(topic))
	}

	require.NoError(t, CheckConsistency(c))
	return c
}

// TestReplicas returns the replica ids of every partition of a topic, in partition order.
func TestReplicas(t *testing.T, c *Cluster, topicName string) [][]int {
	topic, ok := c.Topic(topicName)
	require.True(t, ok, "topic %s not in cluster", topicName)

	results := [][]int{}
	for _, partition := range topic.Partitions {
		results = append(results, partition.ReplicaIDs())
	}
	return results
}

// TestSetSizes sets the sizes of every partition of a topic, in partition order.
func TestSetSizes(t *testing.T, c *Cluster, topicName string, sizes []int64) {
	for p, size := range sizes {
		require.NoError(t, c.SetSize(topicName, p, size))
	}
}
