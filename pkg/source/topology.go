// Package source loads the broker and partition layout of a kafka cluster and builds the
// cluster model from it.
package source

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/segmentio/kassigner/pkg/cluster"
)

// Source loads a cluster's topology.
type Source interface {
	Load(ctx context.Context) (Topology, error)
}

// Topology is the broker set and topic set of a cluster, as reported by a Source.
type Topology struct {
	Brokers []BrokerInfo
	Topics  []TopicInfo
}

// BrokerInfo describes a single broker. Host, Rack and JMXPort are optional.
type BrokerInfo struct {
	ID      int
	Host    string
	Rack    string
	JMXPort int
}

// TopicInfo describes a topic and the replica placement of its partitions.
type TopicInfo struct {
	Name       string
	Retention  time.Duration
	Partitions []PartitionInfo
}

// PartitionInfo is a partition's id along with its ordered replica ids, leader first.
type PartitionInfo struct {
	ID       int
	Replicas []int
}

// Build returns the cluster model for t. Brokers that are referenced by a partition but
// not in t.Brokers are added with an empty hostname, so they're reported as dead.
func Build(t Topology) (*cluster.Cluster, error) {
	c := cluster.New()

	for _, brokerInfo := range t.Brokers {
		broker := cluster.NewBroker(brokerInfo.ID, brokerInfo.Host, brokerInfo.Rack)
		broker.JMXPort = brokerInfo.JMXPort
		if err := c.AddBroker(broker); err != nil {
			return nil, err
		}
	}

	for _, topicInfo := range t.Topics {
		topic, err := buildTopic(c, topicInfo)
		if err != nil {
			return nil, err
		}
		if err := c.AddTopic(topic); err != nil {
			return nil, err
		}
	}

	if err := cluster.CheckConsistency(c); err != nil {
		return nil, err
	}
	return c, nil
}

func buildTopic(c *cluster.Cluster, topicInfo TopicInfo) (*cluster.Topic, error) {
	partitionInfos := make([]PartitionInfo, len(topicInfo.Partitions))
	copy(partitionInfos, topicInfo.Partitions)
	sort.Slice(partitionInfos, func(a, b int) bool {
		return partitionInfos[a].ID < partitionInfos[b].ID
	})

	topic := &cluster.Topic{
		Name:      topicInfo.Name,
		Retention: topicInfo.Retention,
	}

	for i, partitionInfo := range partitionInfos {
		if i > 0 && partitionInfos[i-1].ID == partitionInfo.ID {
			return nil, fmt.Errorf(
				"Topic %s lists partition %d more than once",
				topicInfo.Name,
				partitionInfo.ID,
			)
		}

		partition := &cluster.Partition{
			Topic: topic,
			Num:   partitionInfo.ID,
		}
		for _, id := range partitionInfo.Replicas {
			broker, ok := c.Broker(id)
			if !ok {
				broker = cluster.NewBroker(id, "", "")
				if err := c.AddBroker(broker); err != nil {
					return nil, err
				}
			}
			if partition.HasReplica(broker) {
				return nil, fmt.Errorf(
					"Partition %s lists broker %d more than once",
					partition,
					id,
				)
			}
			partition.AddReplica(broker, -1)
		}
		topic.Partitions = append(topic.Partitions, partition)
	}

	return topic, nil
}

// parseRetention converts a retention.ms config value. Empty and negative (infinite)
// values give zero, meaning unknown.
func parseRetention(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("Invalid retention.ms value %q: %w", value, err)
	}
	if millis <= 0 {
		return 0, nil
	}
	return time.Duration(millis) * time.Millisecond, nil
}
