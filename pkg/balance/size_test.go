package balance

import (
	"testing"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeBalance(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 2}, {1, 2}, {1, 2}},
		},
	)
	cluster.TestSetSizes(t, c, "topic1", []int64{1000, 1000, 1000, 1000})

	TestBalance(t, "size", c, Options{})

	broker1, _ := c.Broker(1)
	broker2, _ := c.Broker(2)
	assert.Equal(t, int64(2000), broker1.SizeAtPosition(0))
	assert.Equal(t, int64(2000), broker2.SizeAtPosition(0))
	assert.Equal(t, int64(2000), broker1.SizeAtPosition(1))
	assert.Equal(t, int64(2000), broker2.SizeAtPosition(1))
}

func TestSizeBalanceMovesToLightBroker(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3"},
		map[string][][]int{
			"topic1": {{1}, {1}, {1}, {2}, {3}},
		},
	)
	cluster.TestSetSizes(t, c, "topic1", []int64{4000, 1000, 1000, 1000, 500})

	TestBalance(t, "size", c, Options{})

	// The band is 2500 +- 500, so the 4000 partition can't go anywhere. The 1000 ones go to
	// the least loaded broker at the time.
	broker1, _ := c.Broker(1)
	broker2, _ := c.Broker(2)
	broker3, _ := c.Broker(3)
	assert.Equal(t, int64(4000), broker1.SizeAtPosition(0))
	assert.Equal(t, int64(2000), broker2.SizeAtPosition(0))
	assert.Equal(t, int64(1500), broker3.SizeAtPosition(0))
	assert.Equal(t, [][]int{{1}, {3}, {2}, {2}, {3}}, cluster.TestReplicas(t, c, "topic1"))
}

func TestSizeBalanceSkipsEmptyPartitions(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 2}, {1, 2}, {1, 2}},
		},
	)
	cluster.TestSetSizes(t, c, "topic1", []int64{3, 4, 3, 4})
	baseline := c.Clone()

	TestBalance(t, "size", c, Options{})

	moves, err := cluster.ChangedPartitions(baseline, c)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestSizeBand(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"odd":  {{1}, {1}, {2}},
			"even": {{1}, {1}, {2}, {2}},
		},
	)
	cluster.TestSetSizes(t, c, "odd", []int64{100, 300, 200})
	cluster.TestSetSizes(t, c, "even", []int64{100, 400, 200, 600})

	odd := c.Partitions("even")
	assert.Equal(t, band{low: 200, high: 400}, sizeBand(odd, 600, 2))

	// The lower of the middle sizes (200, not the 300 average of 200 and 400).
	even := c.Partitions("odd")
	assert.Equal(t, band{low: 550, high: 750}, sizeBand(even, 1300, 2))
}

func TestSizeBalanceDrainsDeadBrokers(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1}, {2}, {3}, {1}},
		},
	)
	cluster.TestSetSizes(t, c, "topic1", []int64{1000, 1000, 1000, 1000})

	TestBalance(t, "size", c, Options{})

	// Only the two live brokers count, so the band is 2000 +- 500.
	assert.Equal(t, [][]int{{1}, {2}, {2}, {1}}, cluster.TestReplicas(t, c, "topic1"))
	dead, _ := c.Broker(3)
	assert.Equal(t, int64(0), dead.SizeAtPosition(0))
}
