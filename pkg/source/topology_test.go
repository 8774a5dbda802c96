package source

import (
	"testing"
	"time"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	c, err := Build(
		Topology{
			Brokers: []BrokerInfo{
				{ID: 1, Host: "broker1", Rack: "a", JMXPort: 9999},
				{ID: 2, Host: "broker2", Rack: "b"},
			},
			Topics: []TopicInfo{
				{
					Name:      "topic1",
					Retention: 24 * time.Hour,
					Partitions: []PartitionInfo{
						{ID: 1, Replicas: []int{2, 3}},
						{ID: 0, Replicas: []int{1, 2}},
					},
				},
			},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, c.BrokerIDs())
	broker1, _ := c.Broker(1)
	assert.Equal(t, 9999, broker1.JMXPort)
	assert.False(t, broker1.Dead())

	broker3, ok := c.Broker(3)
	require.True(t, ok)
	assert.True(t, broker3.Dead())

	assert.Equal(t, [][]int{{1, 2}, {2, 3}}, cluster.TestReplicas(t, c, "topic1"))
	topic, _ := c.Topic("topic1")
	assert.Equal(t, 7.0, topic.SizeScale())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(
		Topology{
			Brokers: []BrokerInfo{{ID: 1, Host: "broker1"}, {ID: 1, Host: "broker1"}},
		},
	)
	assert.Error(t, err)

	_, err = Build(
		Topology{
			Topics: []TopicInfo{{Name: "topic1"}, {Name: "topic1"}},
		},
	)
	assert.Error(t, err)

	_, err = Build(
		Topology{
			Topics: []TopicInfo{
				{
					Name:       "topic1",
					Partitions: []PartitionInfo{{ID: 0, Replicas: []int{1}}, {ID: 0, Replicas: []int{2}}},
				},
			},
		},
	)
	assert.Error(t, err)

	_, err = Build(
		Topology{
			Topics: []TopicInfo{
				{
					Name:       "topic1",
					Partitions: []PartitionInfo{{ID: 0, Replicas: []int{1, 1}}},
				},
			},
		},
	)
	assert.Error(t, err)
}

func TestParseRetention(t *testing.T) {
	retention, err := parseRetention("86400000")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, retention)

	retention, err = parseRetention("-1")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), retention)

	retention, err = parseRetention("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), retention)

	_, err = parseRetention("forever")
	assert.Error(t, err)
}
