package cluster

import "time"

// DefaultRetention is the retention that partition sizes are scaled to by
// Partition.ScaledSize.
const DefaultRetention = 7 * 24 * time.Hour

// Topic is a named, ordered collection of partitions.
type Topic struct {
	Name       string
	Partitions []*Partition

	// Retention is the configured retention of the topic, zero if unknown.
	Retention time.Duration
}

// NewTopic returns a topic with numPartitions partitions numbered from zero, each
// with no replicas.
func NewTopic(name string, numPartitions int) *Topic {
	topic := &Topic{
		Name: name,
	}
	for i := 0; i < numPartitions; i++ {
		topic.Partitions = append(
			topic.Partitions,
			&Partition{
				Topic: topic,
				Num:   i,
			},
		)
	}
	return topic
}

// Partition returns the partition with the argument number, or nil if there isn't one.
func (t *Topic) Partition(num int) *Partition {
	if num >= 0 && num < len(t.Partitions) && t.Partitions[num].Num == num {
		return t.Partitions[num]
	}
	for _, partition := range t.Partitions {
		if partition.Num == num {
			return partition
		}
	}
	return nil
}

// ReplicationFactor returns the largest replica count of any partition in the topic.
func (t *Topic) ReplicationFactor() int {
	maxReplicas := 0
	for _, partition := range t.Partitions {
		if len(partition.replicas) > maxReplicas {
			maxReplicas = len(partition.replicas)
		}
	}
	return maxReplicas
}

// UniformReplication returns whether all partitions in the topic have the same
// replica count.
func (t *Topic) UniformReplication() bool {
	for _, partition := range t.Partitions {
		if len(partition.replicas) != len(t.Partitions[0].replicas) {
			return false
		}
	}
	return true
}

// SizeScale returns the multiplier that converts the sizes of this topic's partitions
// to sizes at DefaultRetention. It's 1 if the retention is unknown.
func (t *Topic) SizeScale() float64 {
	if t.Retention <= 0 {
		return 1.0
	}
	return float64(DefaultRetention) / float64(t.Retention)
}

func (t *Topic) copyEmpty() *Topic {
	topic := &Topic{
		Name:      t.Name,
		Retention: t.Retention,
	}
	for _, partition := range t.Partitions {
		topic.Partitions = append(
			topic.Partitions,
			&Partition{
				Topic: topic,
				Num:   partition.Num,
				Size:  partition.Size,
			},
		)
	}
	return topic
}
