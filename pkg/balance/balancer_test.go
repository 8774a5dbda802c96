package balance

import (
	"errors"
	"testing"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(
		t,
		[]string{"count", "even", "leader", "rackaware", "size", "topic_partition_in_rack"},
		Names(),
	)

	for _, name := range Names() {
		balancer, err := New(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, balancer.Name())
	}

	_, err := New("bogus", Options{})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))

	assert.Panics(t, func() { Register("count", NewCountBalancer) })
}

func TestBalanceExcludeTopics(t *testing.T) {
	for _, name := range []string{"count", "size", "leader", "even", "topic_partition_in_rack"} {
		t.Run(name, func(t *testing.T) {
			c := cluster.TestCluster(
				t,
				[]string{"zone1", "zone1", "zone2"},
				map[string][][]int{
					"excluded": {{1, 2}, {1, 2}, {1, 2}},
				},
			)
			cluster.TestSetSizes(t, c, "excluded", []int64{1000, 2000, 3000})

			TestBalance(t, name, c, Options{ExcludeTopics: []string{"excluded"}})
			assert.Equal(
				t,
				[][]int{{1, 2}, {1, 2}, {1, 2}},
				cluster.TestReplicas(t, c, "excluded"),
			)
		})
	}
}

func TestSwapSafe(t *testing.T) {
	b := band{low: 2, high: 3}

	assert.True(t, b.swapSafe(2, 3, 1))
	assert.False(t, b.swapSafe(3, 3, 1))
	assert.False(t, b.swapSafe(2, 2, 1))
}
