package balance

import (
	"testing"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// TestBalance runs the named strategy on c, checks the cluster's consistency afterwards,
// and returns the hook that captured the strategy's log entries.
func TestBalance(t *testing.T, name string, c *cluster.Cluster, opts Options) *test.Hook {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts.Logger = logger

	balancer, err := New(name, opts)
	require.NoError(t, err)
	require.NoError(t, balancer.Balance(c))
	require.NoError(t, cluster.CheckConsistency(c))

	return hook
}

// TestPositionCounts returns the number of partitions every broker holds at pos.
func TestPositionCounts(c *cluster.Cluster, pos int) map[int]int {
	counts := map[int]int{}
	for _, broker := range c.Brokers() {
		counts[broker.ID] = broker.NumPartitionsAtPosition(pos)
	}
	return counts
}
