package balance

import (
	"sort"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// Partitions at or below this size are treated as empty and never moved by the size
// strategy.
const minMovableSize = 4

func init() {
	Register("size", NewSizeBalancer)
}

// SizeBalancer evens out the total (scaled) size of the partitions every broker holds at
// each replica position.
//
// A broker is balanced at a position when its load is within a margin of the average
// load, where the margin is half the median partition size. Brokers above the band give
// their largest partitions to the least loaded brokers below it. Dead brokers never
// receive partitions and give theirs to any live broker below the band.
type SizeBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
}

var _ Balancer = (*SizeBalancer)(nil)

// NewSizeBalancer returns a new SizeBalancer.
func NewSizeBalancer(opts Options) (Balancer, error) {
	return &SizeBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
	}, nil
}

func (b *SizeBalancer) Name() string {
	return "size"
}

func (b *SizeBalancer) Balance(c *cluster.Cluster) error {
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
		func(p *cluster.Partition) int64 { return p.ScaledSize() },
	)

	bands := make([]band, numPositions)
	for pos := range bands {
		bands[pos] = sizeBand(onlyPosition(partitions, pos), loads.total(pos), int64(len(brokers)))
		b.logger.Debugf(
			"Size band for position %d is [%d, %d]",
			pos,
			bands[pos].low,
			bands[pos].high,
		)
	}

	for pos := 0; pos < numPositions; pos++ {
		if err := b.balancePosition(c.Brokers(), brokers, partitions, pos, loads, bands); err != nil {
			return err
		}
	}

	return nil
}

func (b *SizeBalancer) balancePosition(
	brokers []*cluster.Broker,
	receivers []*cluster.Broker,
	partitions []*cluster.Partition,
	pos int,
	loads *positionLoads,
	bands []band,
) error {
	target := bands[pos]

	donors := make([]*cluster.Broker, 0, len(brokers))
	for _, broker := range brokers {
		if overloaded(broker, loads.at(pos, broker), target) {
			donors = append(donors, broker)
		}
	}
	sort.SliceStable(donors, func(i, j int) bool {
		return loads.at(pos, donors[i]) > loads.at(pos, donors[j])
	})

	for _, donor := range donors {
		candidates := heldAt(partitions, pos, donor)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].ScaledSize() > candidates[j].ScaledSize()
		})

		for _, partition := range candidates {
			if !overloaded(donor, loads.at(pos, donor), target) {
				break
			}

			size := partition.ScaledSize()
			if size <= minMovableSize {
				continue
			}

			for _, receiver := range sizeReceivers(receivers, pos, loads, target) {
				if loads.at(pos, receiver)+size > target.high {
					continue
				}

				moved, err := replaceOrSwap(partition, pos, donor, receiver, loads, bands)
				if err != nil {
					return err
				}
				if moved {
					b.logger.Debugf(
						"Moved %s (%d) at position %d from broker %d to broker %d",
						partition,
						size,
						pos,
						donor.ID,
						receiver.ID,
					)
					break
				}
			}
		}
	}

	return nil
}

// overloaded returns whether a broker with load at a position needs to give partitions
// away. Dead brokers do as long as they hold anything.
func overloaded(broker *cluster.Broker, load int64, target band) bool {
	if broker.Dead() {
		return load > 0
	}
	return load > target.high
}

// sizeReceivers returns the brokers below the band at pos, least loaded first.
func sizeReceivers(
	brokers []*cluster.Broker,
	pos int,
	loads *positionLoads,
	target band,
) []*cluster.Broker {
	receivers := []*cluster.Broker{}
	for _, broker := range brokers {
		if loads.at(pos, broker) < target.low {
			receivers = append(receivers, broker)
		}
	}
	sort.SliceStable(receivers, func(i, j int) bool {
		return loads.at(pos, receivers[i]) < loads.at(pos, receivers[j])
	})
	return receivers
}

// sizeBand returns the average load per broker plus or minus half the median partition
// size. For an even number of partitions the lower of the two middle sizes is used as
// the median.
func sizeBand(partitions []*cluster.Partition, total int64, numBrokers int64) band {
	target := total / numBrokers

	if len(partitions) == 0 {
		return band{low: target, high: target}
	}

	sizes := make([]int64, 0, len(partitions))
	for _, partition := range partitions {
		sizes = append(sizes, partition.ScaledSize())
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	var median int64
	if len(sizes)%2 == 1 {
		median = sizes[len(sizes)/2]
	} else {
		median = sizes[len(sizes)/2-1]
	}
	margin := median / 2

	return band{low: target - margin, high: target + margin}
}
