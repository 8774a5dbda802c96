package balance

import (
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

func init() {
	Register("even", NewEvenBalancer)
}

// EvenBalancer gives every broker exactly the same number of partitions of each topic at
// each replica position. It only applies to topics whose partition count is a multiple of
// the live broker count and whose partitions all have the same replica count; other
// topics are skipped with a warning. Replicas on dead brokers are always replaced.
type EvenBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
}

var _ Balancer = (*EvenBalancer)(nil)

// NewEvenBalancer returns a new EvenBalancer.
func NewEvenBalancer(opts Options) (Balancer, error) {
	return &EvenBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
	}, nil
}

func (b *EvenBalancer) Name() string {
	return "even"
}

func (b *EvenBalancer) Balance(c *cluster.Cluster) error {
	brokers := c.LiveBrokers()
	if len(brokers) == 0 {
		return nil
	}

	excluded := map[string]struct{}{}
	for _, name := range b.excludeTopics {
		excluded[name] = struct{}{}
	}

	for _, topic := range c.Topics() {
		if _, ok := excluded[topic.Name]; ok {
			continue
		}
		if len(topic.Partitions)%len(brokers) != 0 {
			b.logger.Warnf(
				"Skipping topic %s: %d partitions can't be spread evenly over %d live brokers",
				topic.Name,
				len(topic.Partitions),
				len(brokers),
			)
			continue
		}
		if !topic.UniformReplication() {
			b.logger.Warnf(
				"Skipping topic %s: partitions don't all have the same replication factor",
				topic.Name,
			)
			continue
		}

		if err := b.balanceTopic(topic, brokers); err != nil {
			return err
		}
	}

	return nil
}

func (b *EvenBalancer) balanceTopic(topic *cluster.Topic, brokers []*cluster.Broker) error {
	target := len(topic.Partitions) / len(brokers)
	numPositions := topic.ReplicationFactor()

	assigned := make([]map[int]int, numPositions)
	for pos := range assigned {
		assigned[pos] = map[int]int{}
	}

	for _, partition := range topic.Partitions {
		for pos := 0; pos < numPositions; pos++ {
			current := partition.Replica(pos)
			if !current.Dead() && assigned[pos][current.ID] < target {
				assigned[pos][current.ID]++
				continue
			}

			var replacement *cluster.Broker
			for _, candidate := range brokers {
				if assigned[pos][candidate.ID] < target && !partition.HasReplica(candidate) {
					replacement = candidate
					break
				}
			}

			if replacement == nil {
				b.logger.Warnf(
					"No broker is available to take position %d of %s, keeping broker %d",
					pos,
					partition,
					current.ID,
				)
				assigned[pos][current.ID]++
				continue
			}

			if err := partition.SwapReplicas(current, replacement); err != nil {
				return err
			}
			assigned[pos][replacement.ID]++
		}
	}

	return nil
}
