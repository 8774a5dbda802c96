package balance

import "github.com/segmentio/kassigner/pkg/cluster"

// band is the range of load that brokers at a single replica position may end up in.
type band struct {
	low  int64
	high int64
}

// swapSafe returns whether moving delta units of load at a position from loser to gainer
// keeps gainer at or below the band's high mark and loser at or above its low mark.
func (b band) swapSafe(gainerLoad int64, loserLoad int64, delta int64) bool {
	return gainerLoad+delta <= b.high && loserLoad-delta >= b.low
}

// positionLoads tracks the load of every broker at every replica position, counting only
// the partitions a strategy is allowed to move.
type positionLoads struct {
	loads  []map[int]int64
	weight func(p *cluster.Partition) int64
}

func newPositionLoads(
	brokers []*cluster.Broker,
	partitions []*cluster.Partition,
	numPositions int,
	weight func(p *cluster.Partition) int64,
) *positionLoads {
	loads := make([]map[int]int64, numPositions)
	for pos := range loads {
		loads[pos] = map[int]int64{}
		for _, broker := range brokers {
			loads[pos][broker.ID] = 0
		}
	}
	for _, partition := range partitions {
		for pos, replica := range partition.Replicas() {
			loads[pos][replica.ID] += weight(partition)
		}
	}
	return &positionLoads{
		loads:  loads,
		weight: weight,
	}
}

func (l *positionLoads) at(pos int, broker *cluster.Broker) int64 {
	return l.loads[pos][broker.ID]
}

func (l *positionLoads) total(pos int) int64 {
	var total int64
	for _, load := range l.loads[pos] {
		total += load
	}
	return total
}

func (l *positionLoads) move(pos int, partition *cluster.Partition, from, to *cluster.Broker) {
	weight := l.weight(partition)
	l.loads[pos][from.ID] -= weight
	l.loads[pos][to.ID] += weight
}

// replaceOrSwap moves the replica of partition at pos from donor to receiver. If the
// receiver isn't a replica yet, it takes the donor's place. If it already is one at
// another position q, the two exchange positions, but only if bands[q] allows the donor
// to take on the partition at q. A dead donor never exchanges positions, since it would
// still hold the partition.
func replaceOrSwap(
	partition *cluster.Partition,
	pos int,
	donor *cluster.Broker,
	receiver *cluster.Broker,
	loads *positionLoads,
	bands []band,
) (bool, error) {
	q := partition.Position(receiver)

	if q < 0 {
		if err := partition.SwapReplicas(donor, receiver); err != nil {
			return false, err
		}
		loads.move(pos, partition, donor, receiver)
		return true, nil
	}

	if donor.Dead() || q >= len(bands) ||
		!bands[q].swapSafe(loads.at(q, donor), loads.at(q, receiver), loads.weight(partition)) {
		return false, nil
	}

	if err := partition.SwapReplicaPositions(donor, receiver); err != nil {
		return false, err
	}
	loads.move(pos, partition, donor, receiver)
	loads.move(q, partition, receiver, donor)
	return true, nil
}

func onlyPosition(partitions []*cluster.Partition, pos int) []*cluster.Partition {
	results := []*cluster.Partition{}
	for _, partition := range partitions {
		if partition.NumReplicas() > pos {
			results = append(results, partition)
		}
	}
	return results
}

func heldAt(partitions []*cluster.Partition, pos int, broker *cluster.Broker) []*cluster.Partition {
	results := []*cluster.Partition{}
	for _, partition := range partitions {
		if partition.Replica(pos) == broker {
			results = append(results, partition)
		}
	}
	return results
}
