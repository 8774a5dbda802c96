package balance

import (
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

func init() {
	Register("leader", NewLeaderBalancer)
}

// LeaderBalancer reorders the replicas of every partition to spread preferred leadership
// over brokers. It's a single greedy pass: a partition's leader becomes the first of its
// replicas that leads nothing yet, or otherwise the replica with the fewest leaders
// relative to the number of partitions it holds. Running it again on its own output
// changes nothing.
//
// Only replica positions change, never the replica sets.
type LeaderBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
}

var _ Balancer = (*LeaderBalancer)(nil)

// NewLeaderBalancer returns a new LeaderBalancer.
func NewLeaderBalancer(opts Options) (Balancer, error) {
	return &LeaderBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
	}, nil
}

func (b *LeaderBalancer) Name() string {
	return "leader"
}

func (b *LeaderBalancer) Balance(c *cluster.Cluster) error {
	leaders := map[int]int{}
	numChanged := 0

	for _, partition := range c.Partitions(b.excludeTopics...) {
		replicas := partition.Replicas()
		if len(replicas) == 0 {
			continue
		}

		chosen := pickLeader(replicas, leaders)
		if chosen != replicas[0] {
			if err := partition.SwapReplicaPositions(replicas[0], chosen); err != nil {
				return err
			}
			numChanged++
		}
		leaders[chosen.ID]++
	}

	b.logger.Debugf("Changed the leader of %d partitions", numChanged)
	return nil
}

func pickLeader(replicas []*cluster.Broker, leaders map[int]int) *cluster.Broker {
	for _, replica := range replicas {
		if leaders[replica.ID] == 0 {
			return replica
		}
	}

	var chosen *cluster.Broker
	var chosenRatio float64

	for _, replica := range replicas {
		ratio := float64(leaders[replica.ID]) / float64(replica.NumPartitions())
		if chosen == nil || ratio < chosenRatio {
			chosen = replica
			chosenRatio = ratio
		}
	}
	return chosen
}
