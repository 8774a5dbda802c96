package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetadataClient struct {
	metadata    *kafka.MetadataResponse
	configs     *kafka.DescribeConfigsResponse
	configsReqs []*kafka.DescribeConfigsRequest
}

func (f *fakeMetadataClient) Metadata(
	ctx context.Context,
	req *kafka.MetadataRequest,
) (*kafka.MetadataResponse, error) {
	return f.metadata, nil
}

func (f *fakeMetadataClient) DescribeConfigs(
	ctx context.Context,
	req *kafka.DescribeConfigsRequest,
) (*kafka.DescribeConfigsResponse, error) {
	f.configsReqs = append(f.configsReqs, req)
	return f.configs, nil
}

func TestBrokerSourceLoad(t *testing.T) {
	client := &fakeMetadataClient{
		metadata: &kafka.MetadataResponse{
			Brokers: []kafka.Broker{
				{ID: 2, Host: "broker2", Port: 9092, Rack: "b"},
				{ID: 1, Host: "broker1", Port: 9092, Rack: "a"},
			},
			Topics: []kafka.Topic{
				{
					Name: "topic2",
					Partitions: []kafka.Partition{
						{Topic: "topic2", ID: 0, Replicas: []kafka.Broker{{ID: 2}, {ID: 1}}},
					},
				},
				{
					Name: "topic1",
					Partitions: []kafka.Partition{
						{Topic: "topic1", ID: 1, Replicas: []kafka.Broker{{ID: 2}, {ID: 3}}},
						{Topic: "topic1", ID: 0, Replicas: []kafka.Broker{{ID: 1}, {ID: 2}}},
					},
				},
			},
		},
		configs: &kafka.DescribeConfigsResponse{
			Resources: []kafka.DescribeConfigResponseResource{
				{
					ResourceName: "topic1",
					ConfigEntries: []kafka.DescribeConfigResponseConfigEntry{
						{ConfigName: "retention.ms", ConfigValue: "172800000"},
					},
				},
				{
					ResourceName: "topic2",
					ConfigEntries: []kafka.DescribeConfigResponseConfigEntry{
						{ConfigName: "retention.ms", ConfigValue: "-1"},
					},
				},
			},
		},
	}

	topology, err := NewBrokerSource(client, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(
		t,
		[]BrokerInfo{
			{ID: 1, Host: "broker1", Rack: "a"},
			{ID: 2, Host: "broker2", Rack: "b"},
		},
		topology.Brokers,
	)
	assert.Equal(
		t,
		[]TopicInfo{
			{
				Name:      "topic1",
				Retention: 48 * time.Hour,
				Partitions: []PartitionInfo{
					{ID: 0, Replicas: []int{1, 2}},
					{ID: 1, Replicas: []int{2, 3}},
				},
			},
			{
				Name:       "topic2",
				Partitions: []PartitionInfo{{ID: 0, Replicas: []int{2, 1}}},
			},
		},
		topology.Topics,
	)

	require.Equal(t, 1, len(client.configsReqs))
	assert.Equal(t, 2, len(client.configsReqs[0].Resources))
	assert.Equal(t, kafka.ResourceTypeTopic, client.configsReqs[0].Resources[0].ResourceType)
}

func TestBrokerSourceTopicError(t *testing.T) {
	topicErr := errors.New("leader not available")
	client := &fakeMetadataClient{
		metadata: &kafka.MetadataResponse{
			Topics: []kafka.Topic{{Name: "topic1", Error: topicErr}},
		},
	}

	_, err := NewBrokerSource(client, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, topicErr))
}

func TestBrokerSourceLive(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewConnector(
		ConnectorConfig{
			BrokerAddr: util.TestKafkaAddr(t),
		},
	)
	require.NoError(t, err)

	topology, err := NewBrokerSource(client, nil).Load(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, topology.Brokers)

	c, err := Build(topology)
	require.NoError(t, err)
	assert.Equal(t, len(topology.Brokers), c.NumBrokers())
}
