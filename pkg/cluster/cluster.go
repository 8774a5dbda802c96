// Package cluster contains the in-memory model of a kafka cluster's partition placement
// that the balancers and actions operate on.
package cluster

import (
	"fmt"
	"sort"
)

// Cluster is a set of brokers and the topics whose partitions are placed on them.
type Cluster struct {
	brokers map[int]*Broker
	topics  map[string]*Topic
}

// New returns an empty cluster.
func New() *Cluster {
	return &Cluster{
		brokers: map[int]*Broker{},
		topics:  map[string]*Topic{},
	}
}

// AddBroker adds a broker to the cluster.
func (c *Cluster) AddBroker(broker *Broker) error {
	if _, ok := c.brokers[broker.ID]; ok {
		return fmt.Errorf("Broker %d is already in the cluster", broker.ID)
	}
	c.brokers[broker.ID] = broker
	return nil
}

// AddTopic adds a topic to the cluster. Replicas of its partitions must be brokers of
// this cluster.
func (c *Cluster) AddTopic(topic *Topic) error {
	if _, ok := c.topics[topic.Name]; ok {
		return fmt.Errorf("Topic %s is already in the cluster", topic.Name)
	}
	c.topics[topic.Name] = topic
	return nil
}

// Broker returns the broker with the argument id.
func (c *Cluster) Broker(id int) (*Broker, bool) {
	broker, ok := c.brokers[id]
	return broker, ok
}

// BrokerIDs returns the ids of all brokers, ascending.
func (c *Cluster) BrokerIDs() []int {
	ids := make([]int, 0, len(c.brokers))
	for id := range c.brokers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Brokers returns all brokers, in ascending id order.
func (c *Cluster) Brokers() []*Broker {
	brokers := make([]*Broker, 0, len(c.brokers))
	for _, id := range c.BrokerIDs() {
		brokers = append(brokers, c.brokers[id])
	}
	return brokers
}

// LiveBrokers returns the brokers that aren't dead, in ascending id order.
func (c *Cluster) LiveBrokers() []*Broker {
	brokers := []*Broker{}
	for _, broker := range c.Brokers() {
		if !broker.Dead() {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// NumBrokers returns the number of brokers in the cluster.
func (c *Cluster) NumBrokers() int {
	return len(c.brokers)
}

// Topic returns the topic with the argument name.
func (c *Cluster) Topic(name string) (*Topic, bool) {
	topic, ok := c.topics[name]
	return topic, ok
}

// TopicNames returns the names of all topics, sorted.
func (c *Cluster) TopicNames() []string {
	names := make([]string, 0, len(c.topics))
	for name := range c.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Topics returns all topics, sorted by name.
func (c *Cluster) Topics() []*Topic {
	topics := make([]*Topic, 0, len(c.topics))
	for _, name := range c.TopicNames() {
		topics = append(topics, c.topics[name])
	}
	return topics
}

// Partitions returns every partition of every topic not in exclude, ordered by topic
// name and then partition number. The order is the same on every call for the same
// cluster contents.
func (c *Cluster) Partitions(exclude ...string) []*Partition {
	excluded := map[string]struct{}{}
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}

	partitions := []*Partition{}
	for _, topic := range c.Topics() {
		if _, ok := excluded[topic.Name]; ok {
			continue
		}
		sorted := make([]*Partition, len(topic.Partitions))
		copy(sorted, topic.Partitions)
		sort.SliceStable(sorted, func(a, b int) bool {
			return sorted[a].Num < sorted[b].Num
		})
		partitions = append(partitions, sorted...)
	}
	return partitions
}

// Partition returns a single partition.
func (c *Cluster) Partition(topicName string, num int) (*Partition, error) {
	topic, ok := c.topics[topicName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topicName)
	}
	partition := topic.Partition(num)
	if partition == nil {
		return nil, fmt.Errorf("%w: %s:%d", ErrUnknownPartition, topicName, num)
	}
	return partition, nil
}

// MaxReplicationFactor returns one more than the highest replica position held by any
// broker.
func (c *Cluster) MaxReplicationFactor() int {
	maxRF := 0
	for _, broker := range c.brokers {
		for pos := len(broker.partitions) - 1; pos >= 0; pos-- {
			if len(broker.partitions[pos]) > 0 {
				if pos+1 > maxRF {
					maxRF = pos + 1
				}
				break
			}
		}
	}
	return maxRF
}

// Racks returns the distinct rack labels of all brokers, sorted. Brokers without a rack
// contribute the empty label.
func (c *Cluster) Racks() []string {
	rackSet := map[string]struct{}{}
	for _, broker := range c.brokers {
		rackSet[broker.Rack] = struct{}{}
	}
	racks := make([]string, 0, len(rackSet))
	for rack := range rackSet {
		racks = append(racks, rack)
	}
	sort.Strings(racks)
	return racks
}

// SetSize records a size measurement for a partition.
func (c *Cluster) SetSize(topicName string, num int, size int64) error {
	partition, err := c.Partition(topicName, num)
	if err != nil {
		return err
	}
	partition.SetSize(size)
	return nil
}

// Clone returns a deep copy of the cluster. None of the brokers, topics or partitions of
// the copy are shared with the original.
func (c *Cluster) Clone() *Cluster {
	clone := New()
	for id, broker := range c.brokers {
		clone.brokers[id] = broker.copyEmpty()
	}

	for _, name := range c.TopicNames() {
		topic := c.topics[name]
		topicCopy := topic.copyEmpty()
		clone.topics[name] = topicCopy

		for i, partition := range topic.Partitions {
			partitionCopy := topicCopy.Partitions[i]
			for _, replica := range partition.replicas {
				broker, ok := clone.brokers[replica.ID]
				if !ok {
					// Replica that was never added to the cluster.
					broker = replica.copyEmpty()
					clone.brokers[replica.ID] = broker
				}
				partitionCopy.AddReplica(broker, -1)
			}
		}
	}

	return clone
}
