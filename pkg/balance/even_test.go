package balance

import (
	"testing"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestEvenBalance(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 3}, {1, 2}},
		},
	)

	TestBalance(t, "even", c, Options{})

	assert.Equal(
		t,
		[][]int{{1, 2}, {2, 3}, {3, 1}},
		cluster.TestReplicas(t, c, "topic1"),
	)
}

func TestEvenSkipsTopics(t *testing.T) {
	type testCase struct {
		description string
		replicas    [][]int
		warning     string
	}

	testCases := []testCase{
		{
			description: "partitions not a multiple of brokers",
			replicas:    [][]int{{1, 2}, {1, 2}},
			warning:     "Skipping topic topic1: 2 partitions can't be spread evenly over 3 live brokers",
		},
		{
			description: "mixed replication factors",
			replicas:    [][]int{{1, 2}, {1, 2, 3}, {1}},
			warning:     "Skipping topic topic1: partitions don't all have the same replication factor",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			c := cluster.TestCluster(
				t,
				[]string{"zone1", "zone2", "zone3"},
				map[string][][]int{
					"topic1": testCase.replicas,
				},
			)

			hook := TestBalance(t, "even", c, Options{})

			assert.Equal(t, testCase.replicas, cluster.TestReplicas(t, c, "topic1"))
			entry := hook.LastEntry()
			if assert.NotNil(t, entry) {
				assert.Equal(t, logrus.WarnLevel, entry.Level)
				assert.Equal(t, testCase.warning, entry.Message)
			}
		})
	}
}

func TestEvenKeepsReplicaWithoutCandidate(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 2}},
		},
	)

	hook := TestBalance(t, "even", c, Options{})

	assert.Equal(t, [][]int{{1, 2}, {1, 2}}, cluster.TestReplicas(t, c, "topic1"))
	warnings := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestEvenReplacesDeadBrokers(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}, {1, 2}, {2, 1}, {2, 3}, {1, 2}, {2, 1}},
		},
	)

	TestBalance(t, "even", c, Options{})

	assert.Equal(
		t,
		[][]int{{1, 2}, {1, 2}, {2, 1}, {2, 1}, {1, 2}, {2, 1}},
		cluster.TestReplicas(t, c, "topic1"),
	)
	dead, _ := c.Broker(3)
	assert.Equal(t, 0, dead.NumPartitions())
}
