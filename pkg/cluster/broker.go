package cluster

import "fmt"

// Broker is a single kafka broker in a cluster.
//
// The broker keeps an index of the partitions it is a replica of, grouped by the
// replica position it holds in each. The index is only maintained through the
// Partition mutation methods; callers never write it directly.
type Broker struct {
	ID       int
	Hostname string
	Rack     string
	JMXPort  int

	// partitions[p] lists, in insertion order, the partitions that have this broker
	// at replica position p.
	partitions [][]*Partition
}

// NewBroker returns a broker with an empty partition index.
func NewBroker(id int, hostname string, rack string) *Broker {
	return &Broker{
		ID:       id,
		Hostname: hostname,
		Rack:     rack,
	}
}

// Dead returns whether the broker was referenced by a partition but could not be
// described by the topology source.
func (b *Broker) Dead() bool {
	return b.Hostname == ""
}

// Equal compares brokers by id and hostname.
func (b *Broker) Equal(other *Broker) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.ID == other.ID && b.Hostname == other.Hostname
}

func (b *Broker) String() string {
	if b.Hostname == "" {
		return fmt.Sprintf("%d", b.ID)
	}
	return fmt.Sprintf("%d (%s)", b.ID, b.Hostname)
}

// Positions returns the number of replica positions tracked in the index.
func (b *Broker) Positions() int {
	return len(b.partitions)
}

// PartitionsAt returns a copy of the partitions this broker holds at the argument
// position.
func (b *Broker) PartitionsAt(pos int) []*Partition {
	if pos < 0 || pos >= len(b.partitions) {
		return nil
	}
	results := make([]*Partition, len(b.partitions[pos]))
	copy(results, b.partitions[pos])
	return results
}

// NumPartitionsAtPosition returns the number of partitions this broker holds at the
// argument position.
func (b *Broker) NumPartitionsAtPosition(pos int) int {
	if pos < 0 || pos >= len(b.partitions) {
		return 0
	}
	return len(b.partitions[pos])
}

// NumLeaders returns the number of partitions this broker leads.
func (b *Broker) NumLeaders() int {
	return b.NumPartitionsAtPosition(0)
}

// NumPartitions returns the number of partitions this broker is a replica of.
func (b *Broker) NumPartitions() int {
	total := 0
	for _, partitions := range b.partitions {
		total += len(partitions)
	}
	return total
}

// TotalSize returns the sum of the sizes of all partitions on this broker.
func (b *Broker) TotalSize() int64 {
	var total int64
	for _, partitions := range b.partitions {
		for _, partition := range partitions {
			total += partition.Size
		}
	}
	return total
}

// SizeAtPosition returns the sum of the sizes of the partitions this broker holds at
// the argument position.
func (b *Broker) SizeAtPosition(pos int) int64 {
	var total int64
	if pos < 0 || pos >= len(b.partitions) {
		return total
	}
	for _, partition := range b.partitions[pos] {
		total += partition.Size
	}
	return total
}

// copyEmpty returns a copy of the broker without any partitions.
func (b *Broker) copyEmpty() *Broker {
	return &Broker{
		ID:       b.ID,
		Hostname: b.Hostname,
		Rack:     b.Rack,
		JMXPort:  b.JMXPort,
	}
}

func (b *Broker) addPartition(pos int, partition *Partition) {
	for len(b.partitions) <= pos {
		b.partitions = append(b.partitions, []*Partition{})
	}
	b.partitions[pos] = append(b.partitions[pos], partition)
}

func (b *Broker) removePartition(pos int, partition *Partition) bool {
	if pos < 0 || pos >= len(b.partitions) {
		return false
	}
	for i, p := range b.partitions[pos] {
		if p == partition {
			b.partitions[pos] = append(b.partitions[pos][:i], b.partitions[pos][i+1:]...)
			return true
		}
	}
	return false
}
