package cluster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionAddReplica(t *testing.T) {
	c := TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3", "zone1"},
		map[string][][]int{
			"topic1": {{1, 2}},
		},
	)
	partition, err := c.Partition("topic1", 0)
	require.NoError(t, err)

	broker3, _ := c.Broker(3)
	broker4, _ := c.Broker(4)

	partition.AddReplica(broker3, 0)
	assert.Equal(t, []int{3, 1, 2}, partition.ReplicaIDs())
	require.NoError(t, CheckConsistency(c))

	broker1, _ := c.Broker(1)
	broker2, _ := c.Broker(2)
	assert.Equal(t, 1, broker3.NumLeaders())
	assert.Equal(t, 0, broker1.NumLeaders())
	assert.Equal(t, 1, broker1.NumPartitionsAtPosition(1))
	assert.Equal(t, 1, broker2.NumPartitionsAtPosition(2))

	partition.AddReplica(broker4, 17)
	assert.Equal(t, []int{3, 1, 2, 4}, partition.ReplicaIDs())
	require.NoError(t, CheckConsistency(c))
	assert.Equal(t, 4, c.MaxReplicationFactor())
}

func TestPartitionRemoveReplica(t *testing.T) {
	c := TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3", "zone1"},
		map[string][][]int{
			"topic1": {{1, 2, 3}},
		},
	)
	partition, err := c.Partition("topic1", 0)
	require.NoError(t, err)

	broker1, _ := c.Broker(1)
	broker2, _ := c.Broker(2)
	broker4, _ := c.Broker(4)

	require.NoError(t, partition.RemoveReplica(broker1))
	assert.Equal(t, []int{2, 3}, partition.ReplicaIDs())
	assert.Equal(t, 1, broker2.NumLeaders())
	assert.Equal(t, 0, broker1.NumPartitions())
	require.NoError(t, CheckConsistency(c))
	assert.Equal(t, 2, c.MaxReplicationFactor())

	err = partition.RemoveReplica(broker4)
	assert.True(t, errors.Is(err, ErrReplicaNotFound))
	assert.Equal(t, []int{2, 3}, partition.ReplicaIDs())
}

func TestPartitionSwaps(t *testing.T) {
	c := TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3", "zone1"},
		map[string][][]int{
			"topic1": {{1, 2, 3}, {2, 3, 1}},
		},
	)
	partition, err := c.Partition("topic1", 0)
	require.NoError(t, err)

	broker1, _ := c.Broker(1)
	broker3, _ := c.Broker(3)
	broker4, _ := c.Broker(4)

	require.NoError(t, partition.SwapReplicas(broker1, broker4))
	assert.Equal(t, []int{4, 2, 3}, partition.ReplicaIDs())
	assert.Equal(t, 1, broker4.NumLeaders())
	assert.Equal(t, 1, broker1.NumPartitions())
	require.NoError(t, CheckConsistency(c))

	require.NoError(t, partition.SwapReplicaPositions(broker3, broker4))
	assert.Equal(t, []int{3, 2, 4}, partition.ReplicaIDs())
	assert.Equal(t, 1, broker3.NumLeaders())
	assert.Equal(t, 1, broker3.NumPartitionsAtPosition(1))
	assert.Equal(t, 1, broker4.NumPartitionsAtPosition(2))
	require.NoError(t, CheckConsistency(c))

	err = partition.SwapReplicas(broker1, broker4)
	assert.True(t, errors.Is(err, ErrReplicaNotFound))
	err = partition.SwapReplicaPositions(broker3, broker1)
	assert.True(t, errors.Is(err, ErrReplicaNotFound))
	assert.Equal(t, []int{3, 2, 4}, partition.ReplicaIDs())
}

func TestPartitionSetReplicas(t *testing.T) {
	c := TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3"},
		map[string][][]int{
			"topic1": {{1, 2}},
		},
	)
	partition, err := c.Partition("topic1", 0)
	require.NoError(t, err)

	broker2, _ := c.Broker(2)
	broker3, _ := c.Broker(3)

	partition.SetReplicas([]*Broker{broker3, broker2})
	assert.Equal(t, []int{3, 2}, partition.ReplicaIDs())
	require.NoError(t, CheckConsistency(c))

	broker1, _ := c.Broker(1)
	assert.Equal(t, 0, broker1.NumPartitions())
	assert.Equal(t, 1, broker2.NumPartitionsAtPosition(1))
}

func TestPartitionSetSize(t *testing.T) {
	topic := NewTopic("topic1", 1)
	partition := topic.Partitions[0]

	partition.SetSize(100)
	partition.SetSize(40)
	assert.Equal(t, int64(100), partition.Size)
	partition.SetSize(250)
	assert.Equal(t, int64(250), partition.Size)
	assert.Equal(t, int64(250), partition.ScaledSize())

	topic.Retention = DefaultRetention / 2
	assert.Equal(t, int64(500), partition.ScaledSize())
}

func TestPartitionEqual(t *testing.T) {
	c := TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 2}, {2, 1}},
		},
	)
	clone := c.Clone()

	p0, _ := c.Partition("topic1", 0)
	p1, _ := c.Partition("topic1", 1)
	p2, _ := c.Partition("topic1", 2)
	cloneP0, _ := clone.Partition("topic1", 0)

	assert.True(t, p0.Equal(cloneP0))
	assert.False(t, p0.Equal(p1))
	assert.False(t, p1.Equal(p2))
}
