package cluster

import (
	"fmt"
	"math"
)

// Partition is a single partition of a topic. The first replica is the preferred
// leader.
//
// The replica list is private. It's only changed through the mutation methods below,
// each of which keeps the brokers' position indices in step with the list.
type Partition struct {
	Topic *Topic
	Num   int

	// Size is the largest size reported for this partition by any replica, in bytes.
	Size int64

	replicas []*Broker
}

func (p *Partition) String() string {
	return fmt.Sprintf("%s:%d", p.TopicName(), p.Num)
}

// TopicName returns the name of the topic the partition belongs to.
func (p *Partition) TopicName() string {
	if p.Topic == nil {
		return ""
	}
	return p.Topic.Name
}

// Replicas returns a copy of the replica list.
func (p *Partition) Replicas() []*Broker {
	results := make([]*Broker, len(p.replicas))
	copy(results, p.replicas)
	return results
}

// ReplicaIDs returns the ids of the replicas, in order.
func (p *Partition) ReplicaIDs() []int {
	ids := make([]int, 0, len(p.replicas))
	for _, replica := range p.replicas {
		ids = append(ids, replica.ID)
	}
	return ids
}

// NumReplicas returns the number of replicas.
func (p *Partition) NumReplicas() int {
	return len(p.replicas)
}

// Replica returns the broker at the argument position, or nil if there isn't one.
func (p *Partition) Replica(pos int) *Broker {
	if pos < 0 || pos >= len(p.replicas) {
		return nil
	}
	return p.replicas[pos]
}

// Leader returns the preferred leader, or nil if the partition has no replicas.
func (p *Partition) Leader() *Broker {
	return p.Replica(0)
}

// Position returns the position of the argument broker in the replica list, or -1.
func (p *Partition) Position(broker *Broker) int {
	for i, replica := range p.replicas {
		if replica == broker {
			return i
		}
	}
	return -1
}

// HasReplica returns whether the argument broker is a replica of this partition.
func (p *Partition) HasReplica(broker *Broker) bool {
	return p.Position(broker) >= 0
}

// SetSize records a size measurement. Measurements only ever raise the size, so the
// result is the largest value reported by any replica.
func (p *Partition) SetSize(size int64) {
	if size > p.Size {
		p.Size = size
	}
}

// ScaledSize returns the size of the partition multiplied by its topic's size scale.
func (p *Partition) ScaledSize() int64 {
	if p.Topic == nil {
		return p.Size
	}
	return int64(math.Round(float64(p.Size) * p.Topic.SizeScale()))
}

// Equal compares partitions by topic name, number and replica ids.
func (p *Partition) Equal(other *Partition) bool {
	if p.TopicName() != other.TopicName() || p.Num != other.Num {
		return false
	}
	if len(p.replicas) != len(other.replicas) {
		return false
	}
	for i := range p.replicas {
		if p.replicas[i].ID != other.replicas[i].ID {
			return false
		}
	}
	return true
}

// AddReplica inserts the broker into the replica list at the argument position. A
// negative position, or one past the end of the list, appends. Replicas at or after the
// position shift up by one.
func (p *Partition) AddReplica(broker *Broker, pos int) {
	if pos < 0 || pos > len(p.replicas) {
		pos = len(p.replicas)
	}

	for i := len(p.replicas) - 1; i >= pos; i-- {
		p.replicas[i].removePartition(i, p)
		p.replicas[i].addPartition(i+1, p)
	}

	p.replicas = append(p.replicas, nil)
	copy(p.replicas[pos+1:], p.replicas[pos:])
	p.replicas[pos] = broker
	broker.addPartition(pos, p)
}

// RemoveReplica removes the broker from the replica list. Replicas after it shift down
// by one.
func (p *Partition) RemoveReplica(broker *Broker) error {
	pos := p.Position(broker)
	if pos < 0 {
		return fmt.Errorf("%w: broker %d, partition %s", ErrReplicaNotFound, broker.ID, p)
	}

	broker.removePartition(pos, p)
	for i := pos + 1; i < len(p.replicas); i++ {
		p.replicas[i].removePartition(i, p)
		p.replicas[i].addPartition(i-1, p)
	}
	p.replicas = append(p.replicas[:pos], p.replicas[pos+1:]...)

	return nil
}

// SwapReplicas replaces the remove broker with the add broker at the same position.
func (p *Partition) SwapReplicas(remove *Broker, add *Broker) error {
	pos := p.Position(remove)
	if pos < 0 {
		return fmt.Errorf("%w: broker %d, partition %s", ErrReplicaNotFound, remove.ID, p)
	}

	remove.removePartition(pos, p)
	p.replicas[pos] = add
	add.addPartition(pos, p)

	return nil
}

// SwapReplicaPositions exchanges the positions of two replicas of this partition.
func (p *Partition) SwapReplicaPositions(broker1 *Broker, broker2 *Broker) error {
	pos1 := p.Position(broker1)
	if pos1 < 0 {
		return fmt.Errorf("%w: broker %d, partition %s", ErrReplicaNotFound, broker1.ID, p)
	}
	pos2 := p.Position(broker2)
	if pos2 < 0 {
		return fmt.Errorf("%w: broker %d, partition %s", ErrReplicaNotFound, broker2.ID, p)
	}
	if pos1 == pos2 {
		return nil
	}

	broker1.removePartition(pos1, p)
	broker2.removePartition(pos2, p)
	p.replicas[pos1], p.replicas[pos2] = broker2, broker1
	broker2.addPartition(pos1, p)
	broker1.addPartition(pos2, p)

	return nil
}

// SetReplicas replaces the full replica list.
func (p *Partition) SetReplicas(brokers []*Broker) {
	for i, replica := range p.replicas {
		replica.removePartition(i, p)
	}
	p.replicas = nil

	for _, broker := range brokers {
		p.AddReplica(broker, -1)
	}
}
