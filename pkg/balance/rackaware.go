package balance

import (
	"fmt"
	"sort"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/sirupsen/logrus"
)

const defaultRackAwareSeed = "rackaware"

func init() {
	Register("rackaware", NewRackAwareBalancer)
}

// RackAwareBalancer spreads the replicas of every partition across as many racks as it
// has replicas, up to the number of racks in the cluster.
//
// A replica at position p is out of place if its rack is already used at a lower
// position of the same partition. It's first exchanged with the same-position replica of
// the closest-sized partition that can take it, and otherwise replaced with a broker from
// a shuffled ring of the live brokers. An exchange never leaves a rack used twice in
// either partition, so partitions handled earlier in the run stay spread.
type RackAwareBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
	seed          string
}

var _ Balancer = (*RackAwareBalancer)(nil)

// NewRackAwareBalancer returns a new RackAwareBalancer.
func NewRackAwareBalancer(opts Options) (Balancer, error) {
	seed := opts.Seed
	if seed == "" {
		seed = defaultRackAwareSeed
	}
	return &RackAwareBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
		seed:          seed,
	}, nil
}

func (b *RackAwareBalancer) Name() string {
	return "rackaware"
}

func (b *RackAwareBalancer) Balance(c *cluster.Cluster) error {
	numRacks := distinctRacks(c.LiveBrokers())
	if numRacks < 2 {
		return fmt.Errorf("%w: rackaware needs at least 2 racks, cluster has %d", ErrBalance, numRacks)
	}

	ring := newBrokerRing(c, b.seed)
	partitions := c.Partitions(b.excludeTopics...)

	for pos := 0; pos < c.MaxReplicationFactor(); pos++ {
		sorted := onlyPosition(partitions, pos)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Size < sorted[j].Size
		})

		for i, partition := range sorted {
			if !outOfRack(partition, pos, numRacks) {
				continue
			}

			partner := closestSwapPartner(sorted, i, pos, numRacks)
			if partner != nil {
				replica := partition.Replica(pos)
				partnerReplica := partner.Replica(pos)
				if err := partition.SwapReplicas(replica, partnerReplica); err != nil {
					return err
				}
				if err := partner.SwapReplicas(partnerReplica, replica); err != nil {
					return err
				}
				b.logger.Debugf(
					"Swapped broker %d of %s with broker %d of %s at position %d",
					replica.ID,
					partition,
					partnerReplica.ID,
					partner,
					pos,
				)
				continue
			}

			replacement := ring.next(partition, pos)
			if replacement == nil {
				return fmt.Errorf(
					"%w: no broker in another rack can take position %d of %s",
					ErrBalance,
					pos,
					partition,
				)
			}
			replica := partition.Replica(pos)
			if err := partition.SwapReplicas(replica, replacement); err != nil {
				return err
			}
			b.logger.Debugf(
				"Replaced broker %d of %s with broker %d at position %d",
				replica.ID,
				partition,
				replacement.ID,
				pos,
			)
		}
	}

	return nil
}

// outOfRack returns whether the replica at pos shares a rack with a replica at a lower
// position of a partition that isn't spread over as many racks as it could be.
func outOfRack(partition *cluster.Partition, pos int, numRacks int) bool {
	replicas := partition.Replicas()
	if distinctRacks(replicas) >= minInt(len(replicas), numRacks) {
		return false
	}
	rack := replicas[pos].Rack
	for _, replica := range replicas[:pos] {
		if replica.Rack == rack {
			return true
		}
	}
	return false
}

// closestSwapPartner looks for a partition in sorted whose replica at pos can be
// exchanged with the replica of sorted[index] at pos, so that sorted[index] gains a rack
// and neither partition ends up with a rack used twice. Candidates are tried in order of size distance, walking
// outwards from index in both directions.
func closestSwapPartner(
	sorted []*cluster.Partition,
	index int,
	pos int,
	numRacks int,
) *cluster.Partition {
	partition := sorted[index]
	lower := index - 1
	upper := index + 1

	for lower >= 0 || upper < len(sorted) {
		var candidate *cluster.Partition

		switch {
		case lower < 0:
			candidate = sorted[upper]
			upper++
		case upper >= len(sorted):
			candidate = sorted[lower]
			lower--
		case partition.Size-sorted[lower].Size <= sorted[upper].Size-partition.Size:
			candidate = sorted[lower]
			lower--
		default:
			candidate = sorted[upper]
			upper++
		}

		if validRackSwap(partition, candidate, pos) {
			return candidate
		}
	}

	return nil
}

func validRackSwap(x *cluster.Partition, y *cluster.Partition, pos int) bool {
	xReplica := x.Replica(pos)
	yReplica := y.Replica(pos)
	if xReplica == yReplica || x.HasReplica(yReplica) || y.HasReplica(xReplica) {
		return false
	}

	if xReplica.Dead() || yReplica.Dead() {
		return false
	}

	return !rackUsedElsewhere(y, pos, xReplica.Rack) &&
		!rackUsedElsewhere(x, pos, yReplica.Rack)
}

// rackUsedElsewhere returns whether a replica of partition other than the one at pos
// is in rack.
func rackUsedElsewhere(partition *cluster.Partition, pos int, rack string) bool {
	for i, replica := range partition.Replicas() {
		if i != pos && replica.Rack == rack {
			return true
		}
	}
	return false
}

func distinctRacks(brokers []*cluster.Broker) int {
	racks := map[string]struct{}{}
	for _, broker := range brokers {
		racks[broker.Rack] = struct{}{}
	}
	return len(racks)
}

// brokerRing hands out brokers round-robin from a seeded shuffle of the live brokers. The
// cursor is shared by every partition in a run.
type brokerRing struct {
	brokers []*cluster.Broker
	cursor  int
}

func newBrokerRing(c *cluster.Cluster, seed string) *brokerRing {
	ids := map[int]int{}
	for _, broker := range c.LiveBrokers() {
		ids[broker.ID] = broker.ID
	}

	ring := &brokerRing{}
	for _, id := range util.ShuffledKeys(ids, seed) {
		broker, _ := c.Broker(id)
		ring.brokers = append(ring.brokers, broker)
	}
	return ring
}

// next returns the next broker in the ring that isn't a replica of partition and
// doesn't share a rack with any of its replicas other than the one at pos. It returns
// nil after a full lap of the ring without a match.
func (r *brokerRing) next(partition *cluster.Partition, pos int) *cluster.Broker {
	usedRacks := map[string]struct{}{}
	for i, replica := range partition.Replicas() {
		if i != pos {
			usedRacks[replica.Rack] = struct{}{}
		}
	}

	for i := 0; i < len(r.brokers); i++ {
		candidate := r.brokers[r.cursor%len(r.brokers)]
		r.cursor++

		if partition.HasReplica(candidate) {
			continue
		}
		if _, ok := usedRacks[candidate.Rack]; ok {
			continue
		}
		return candidate
	}

	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
