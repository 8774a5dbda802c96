package source

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"

	szk "github.com/samuel/go-zookeeper/zk"
	"github.com/segmentio/kassigner/pkg/zk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	brokersPath      = "/brokers/ids"
	topicsPath       = "/brokers/topics"
	topicConfigsPath = "/config/topics"

	maxPoolSize = 16
)

type zkBrokerInfo struct {
	Host    string `json:"host"`
	Port    int32  `json:"port"`
	Rack    string `json:"rack"`
	JMXPort int    `json:"jmx_port"`
}

type zkTopicInfo struct {
	Version    int              `json:"version"`
	Partitions map[string][]int `json:"partitions"`
}

type zkTopicConfig struct {
	Version int               `json:"version"`
	Config  map[string]string `json:"config"`
}

// ZKSource reads a cluster's topology from the nodes that the brokers keep in zookeeper.
type ZKSource struct {
	client zk.Client
	logger logrus.FieldLogger
}

var _ Source = (*ZKSource)(nil)

// NewZKSource returns a ZKSource that reads through client.
func NewZKSource(client zk.Client, logger logrus.FieldLogger) *ZKSource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ZKSource{
		client: client,
		logger: logger,
	}
}

// Load crawls the broker and topic nodes. Topics are read concurrently.
func (s *ZKSource) Load(ctx context.Context) (Topology, error) {
	brokers, err := s.loadBrokers(ctx)
	if err != nil {
		return Topology{}, err
	}

	topicNames, err := s.client.Children(ctx, topicsPath)
	if err != nil {
		return Topology{}, fmt.Errorf("Error getting children at path %s: %w", topicsPath, err)
	}
	sort.Strings(topicNames)

	topics := make([]TopicInfo, len(topicNames))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxPoolSize)

	for i, name := range topicNames {
		i, name := i, name
		group.Go(func() error {
			topic, err := s.loadTopic(groupCtx, name)
			if err != nil {
				return err
			}
			topics[i] = topic
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Topology{}, err
	}

	s.logger.Infof("Loaded %d brokers and %d topics from zookeeper", len(brokers), len(topics))
	return Topology{Brokers: brokers, Topics: topics}, nil
}

func (s *ZKSource) loadBrokers(ctx context.Context) ([]BrokerInfo, error) {
	idStrs, err := s.client.Children(ctx, brokersPath)
	if err != nil {
		return nil, fmt.Errorf("Error getting children at path %s: %w", brokersPath, err)
	}

	brokers := []BrokerInfo{}
	for _, idStr := range idStrs {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("Invalid broker id %q: %w", idStr, err)
		}

		brokerInfo := zkBrokerInfo{}
		if err := s.client.GetJSON(ctx, path.Join(brokersPath, idStr), &brokerInfo); err != nil {
			return nil, err
		}

		brokers = append(
			brokers,
			BrokerInfo{
				ID:      int(id),
				Host:    brokerInfo.Host,
				Rack:    brokerInfo.Rack,
				JMXPort: brokerInfo.JMXPort,
			},
		)
	}

	sort.Slice(brokers, func(a, b int) bool {
		return brokers[a].ID < brokers[b].ID
	})
	return brokers, nil
}

func (s *ZKSource) loadTopic(ctx context.Context, name string) (TopicInfo, error) {
	s.logger.Debugf("Getting info for topic %s", name)

	topicInfo := zkTopicInfo{}
	if err := s.client.GetJSON(ctx, path.Join(topicsPath, name), &topicInfo); err != nil {
		return TopicInfo{}, err
	}

	topic := TopicInfo{
		Name:       name,
		Partitions: []PartitionInfo{},
	}

	topicConfig := zkTopicConfig{}
	err := s.client.GetJSON(ctx, path.Join(topicConfigsPath, name), &topicConfig)
	switch {
	case err == szk.ErrNoNode:
		s.logger.Debugf("Topic %s has no config node", name)
	case err != nil:
		return TopicInfo{}, err
	default:
		topic.Retention, err = parseRetention(topicConfig.Config["retention.ms"])
		if err != nil {
			return TopicInfo{}, fmt.Errorf("Topic %s: %w", name, err)
		}
	}

	for idStr, replicas := range topicInfo.Partitions {
		id, err := strconv.ParseInt(idStr, 10, 32)
		if err != nil {
			return TopicInfo{}, fmt.Errorf("Topic %s has invalid partition id %q", name, idStr)
		}
		topic.Partitions = append(
			topic.Partitions,
			PartitionInfo{ID: int(id), Replicas: replicas},
		)
	}
	sort.Slice(topic.Partitions, func(a, b int) bool {
		return topic.Partitions[a].ID < topic.Partitions[b].ID
	})

	return topic, nil
}
