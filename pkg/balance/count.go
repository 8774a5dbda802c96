package balance

import (
	"sort"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

func init() {
	Register("count", NewCountBalancer)
}

// CountBalancer evens out the number of partitions every broker holds at each replica
// position.
//
// For a position with total partitions spread over N brokers, every broker ends with
// total/N partitions there, and total%N of them with one more. Brokers over their quota
// hand their smallest partitions to brokers under it. Dead brokers have a quota of zero
// and never receive partitions.
type CountBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
}

var _ Balancer = (*CountBalancer)(nil)

// NewCountBalancer returns a new CountBalancer.
func NewCountBalancer(opts Options) (Balancer, error) {
	return &CountBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
	}, nil
}

func (b *CountBalancer) Name() string {
	return "count"
}

func (b *CountBalancer) Balance(c *cluster.Cluster) error {
	brokers := c.LiveBrokers()
	if len(brokers) == 0 {
		return nil
	}

	partitions := c.Partitions(b.excludeTopics...)
	numPositions := c.MaxReplicationFactor()
	loads := newPositionLoads(
		c.Brokers(),
		partitions,
		numPositions,
		func(p *cluster.Partition) int64 { return 1 },
	)

	numBrokers := int64(len(brokers))
	bands := make([]band, numPositions)
	for pos := range bands {
		total := loads.total(pos)
		bands[pos] = band{low: total / numBrokers, high: total / numBrokers}
		if total%numBrokers > 0 {
			bands[pos].high++
		}
	}

	for pos := 0; pos < numPositions; pos++ {
		if err := b.balancePosition(c.Brokers(), brokers, partitions, pos, loads, bands); err != nil {
			return err
		}
	}

	return nil
}

func (b *CountBalancer) balancePosition(
	donors []*cluster.Broker,
	receivers []*cluster.Broker,
	partitions []*cluster.Partition,
	pos int,
	loads *positionLoads,
	bands []band,
) error {
	quotas := countQuotas(receivers, pos, loads)

	numMoved := 0
	for _, donor := range donors {
		if loads.at(pos, donor) <= quotas[donor.ID] {
			continue
		}

		candidates := heldAt(partitions, pos, donor)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Size < candidates[j].Size
		})

		for _, partition := range candidates {
			if loads.at(pos, donor) <= quotas[donor.ID] {
				break
			}

			for _, receiver := range receivers {
				if receiver == donor || loads.at(pos, receiver) >= quotas[receiver.ID] {
					continue
				}

				moved, err := replaceOrSwap(partition, pos, donor, receiver, loads, bands)
				if err != nil {
					return err
				}
				if moved {
					b.logger.Debugf(
						"Moved %s at position %d from broker %d to broker %d",
						partition,
						pos,
						donor.ID,
						receiver.ID,
					)
					numMoved++
					break
				}
			}
		}
	}

	b.logger.Debugf("Count balance of position %d moved %d partitions", pos, numMoved)
	return nil
}

// countQuotas returns the partition count every broker should end with at pos. The extra
// partitions left over by the integer division go to the most loaded brokers first so
// that as few partitions as possible move. Brokers not in the argument list get no
// quota.
func countQuotas(brokers []*cluster.Broker, pos int, loads *positionLoads) map[int]int64 {
	numBrokers := int64(len(brokers))
	total := loads.total(pos)
	target := total / numBrokers
	extra := total % numBrokers

	byLoad := make([]*cluster.Broker, len(brokers))
	copy(byLoad, brokers)
	sort.SliceStable(byLoad, func(i, j int) bool {
		return loads.at(pos, byLoad[i]) > loads.at(pos, byLoad[j])
	})

	quotas := map[int]int64{}
	for i, broker := range byLoad {
		quotas[broker.ID] = target
		if int64(i) < extra {
			quotas[broker.ID]++
		}
	}
	return quotas
}
