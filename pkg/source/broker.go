package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// MetadataClient is the subset of the kafka-go client used by BrokerSource.
type MetadataClient interface {
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
	DescribeConfigs(
		ctx context.Context,
		req *kafka.DescribeConfigsRequest,
	) (*kafka.DescribeConfigsResponse, error)
}

var _ MetadataClient = (*kafka.Client)(nil)

// BrokerSource reads a cluster's topology through the kafka metadata API, for clusters
// that don't expose zookeeper.
type BrokerSource struct {
	client MetadataClient
	logger logrus.FieldLogger
}

var _ Source = (*BrokerSource)(nil)

// NewBrokerSource returns a BrokerSource that reads through client.
func NewBrokerSource(client MetadataClient, logger logrus.FieldLogger) *BrokerSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BrokerSource{
		client: client,
		logger: logger,
	}
}

// Load fetches the metadata of every topic and the retention of each.
func (s *BrokerSource) Load(ctx context.Context) (Topology, error) {
	metadata, err := s.client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return Topology{}, fmt.Errorf("Error getting cluster metadata: %w", err)
	}

	brokers := []BrokerInfo{}
	for _, broker := range metadata.Brokers {
		brokers = append(
			brokers,
			BrokerInfo{
				ID:   broker.ID,
				Host: broker.Host,
				Rack: broker.Rack,
			},
		)
	}
	sort.Slice(brokers, func(a, b int) bool {
		return brokers[a].ID < brokers[b].ID
	})

	topics := []TopicInfo{}
	for _, topic := range metadata.Topics {
		if topic.Error != nil {
			return Topology{}, fmt.Errorf("Error getting metadata of topic %s: %w", topic.Name, topic.Error)
		}

		topicInfo := TopicInfo{
			Name:       topic.Name,
			Partitions: []PartitionInfo{},
		}
		for _, partition := range topic.Partitions {
			replicas := []int{}
			for _, replica := range partition.Replicas {
				replicas = append(replicas, replica.ID)
			}
			topicInfo.Partitions = append(
				topicInfo.Partitions,
				PartitionInfo{ID: partition.ID, Replicas: replicas},
			)
		}
		sort.Slice(topicInfo.Partitions, func(a, b int) bool {
			return topicInfo.Partitions[a].ID < topicInfo.Partitions[b].ID
		})
		topics = append(topics, topicInfo)
	}
	sort.Slice(topics, func(a, b int) bool {
		return topics[a].Name < topics[b].Name
	})

	if err := s.loadRetentions(ctx, topics); err != nil {
		return Topology{}, err
	}

	s.logger.Infof("Loaded %d brokers and %d topics from broker metadata", len(brokers), len(topics))
	return Topology{Brokers: brokers, Topics: topics}, nil
}

func (s *BrokerSource) loadRetentions(ctx context.Context, topics []TopicInfo) error {
	if len(topics) == 0 {
		return nil
	}

	resources := []kafka.DescribeConfigRequestResource{}
	for _, topic := range topics {
		resources = append(
			resources,
			kafka.DescribeConfigRequestResource{
				ResourceType: kafka.ResourceTypeTopic,
				ResourceName: topic.Name,
				ConfigNames:  []string{"retention.ms"},
			},
		)
	}

	resp, err := s.client.DescribeConfigs(
		ctx,
		&kafka.DescribeConfigsRequest{Resources: resources},
	)
	if err != nil {
		return fmt.Errorf("Error describing topic configs: %w", err)
	}

	retentions := map[string]string{}
	for _, resource := range resp.Resources {
		if resource.Error != nil {
			return fmt.Errorf(
				"Error describing config of topic %s: %w",
				resource.ResourceName,
				resource.Error,
			)
		}
		for _, entry := range resource.ConfigEntries {
			if entry.ConfigName == "retention.ms" {
				retentions[resource.ResourceName] = entry.ConfigValue
			}
		}
	}

	for t := range topics {
		topics[t].Retention, err = parseRetention(retentions[topics[t].Name])
		if err != nil {
			return fmt.Errorf("Topic %s: %w", topics[t].Name, err)
		}
	}
	return nil
}
