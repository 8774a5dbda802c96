package plan

import (
	"strings"
	"testing"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassignmentJSON(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2", "zone3"},
		map[string][][]int{
			"topic1": {{1, 2}, {3, 1}},
		},
	)

	reassignment := NewReassignment(c.Partitions())
	assert.Equal(t, KindReassignment, reassignment.Kind())
	assert.Equal(t, 2, reassignment.Len())

	contents, err := reassignment.JSON()
	require.NoError(t, err)
	assert.Equal(
		t,
		`{"version":1,"partitions":[{"topic":"topic1","partition":0,"replicas":[1,2]},{"topic":"topic1","partition":1,"replicas":[3,1]}]}`,
		string(contents),
	)
}

func TestLeaderElectionJSON(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}},
			"topic2": {{2, 1}},
		},
	)

	election := NewLeaderElection(c.Partitions())
	assert.Equal(t, KindLeaderElection, election.Kind())

	contents, err := election.JSON()
	require.NoError(t, err)
	assert.Equal(
		t,
		`{"partitions":[{"topic":"topic1","partition":0},{"topic":"topic2","partition":0}]}`,
		string(contents),
	)

	contents, err = NewLeaderElection(nil).JSON()
	require.NoError(t, err)
	assert.Equal(t, `{"partitions":[]}`, string(contents))
}

func TestSplitIntoBatches(t *testing.T) {
	c := cluster.TestCluster(
		t,
		[]string{"zone1", "zone2"},
		map[string][][]int{
			"topic1": {{1, 2}, {2, 1}, {1, 2}, {2, 1}, {1, 2}},
		},
	)
	moves := c.Partitions()

	type testCase struct {
		size     int
		expected [][]int
	}

	testCases := []testCase{
		{
			size:     2,
			expected: [][]int{{0, 1}, {2, 3}, {4}},
		},
		{
			size:     5,
			expected: [][]int{{0, 1, 2, 3, 4}},
		},
		{
			size:     10,
			expected: [][]int{{0, 1, 2, 3, 4}},
		},
		{
			size:     0,
			expected: [][]int{{0, 1, 2, 3, 4}},
		},
		{
			size:     -1,
			expected: [][]int{{0, 1, 2, 3, 4}},
		},
		{
			size:     1,
			expected: [][]int{{0}, {1}, {2}, {3}, {4}},
		},
	}

	for _, testCase := range testCases {
		batches := SplitIntoBatches(moves, testCase.size, NewReassignment)

		nums := [][]int{}
		for _, batch := range batches {
			batchNums := []int{}
			for _, move := range batch.Partitions {
				batchNums = append(batchNums, move.Partition)
			}
			nums = append(nums, batchNums)
		}
		assert.Equal(t, testCase.expected, nums, "batch size %d", testCase.size)
	}

	assert.Empty(t, SplitIntoBatches(nil, 2, NewLeaderElection))
	assert.Panics(t, func() {
		SplitIntoBatches[*Reassignment](moves, 2, nil)
	})
}

func TestLoadMoves(t *testing.T) {
	moves, err := LoadMoves(
		strings.NewReader(`[{"topic": "topic1", "partition": 3, "replicas": [4, 1]}]`),
	)
	require.NoError(t, err)
	assert.Equal(t, []Move{{Topic: "topic1", Partition: 3, Replicas: []int{4, 1}}}, moves)

	moves, err = LoadMoves(
		strings.NewReader(
			`{"version": 1, "partitions": [{"topic": "topic2", "partition": 0, "replicas": [2]}]}`,
		),
	)
	require.NoError(t, err)
	assert.Equal(t, []Move{{Topic: "topic2", Partition: 0, Replicas: []int{2}}}, moves)

	_, err = LoadMoves(strings.NewReader(`[{"topic": "topic1", "partition": 3, "replicas": []}]`))
	assert.Error(t, err)
	_, err = LoadMoves(strings.NewReader(`{"bogus": true}`))
	assert.Error(t, err)
	_, err = LoadMoves(strings.NewReader(`not json`))
	assert.Error(t, err)

	_, err = LoadMovesFile("testdata/moves.json")
	require.NoError(t, err)
}
