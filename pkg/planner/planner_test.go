package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	batches []plan.Batch
	nums    []int
	failOn  int
	err     error
}

func (f *fakeExecutor) Execute(ctx context.Context, batch plan.Batch, num int, total int) error {
	if f.failOn > 0 && len(f.batches)+1 == f.failOn {
		return f.err
	}
	f.batches = append(f.batches, batch)
	f.nums = append(f.nums, num)
	return nil
}

func testBaseline(t *testing.T) *cluster.Cluster {
	return cluster.TestCluster(
		t,
		[]string{"a", "b", "c"},
		map[string][][]int{
			"topic1": {{1, 2, 3}, {2, 3, 1}, {1, 2}},
			"topic2": {{3}},
		},
	)
}

func TestApplyCopyOnSuccess(t *testing.T) {
	baseline := cluster.TestCluster(
		t,
		[]string{"a", "b", "c"},
		map[string][][]int{
			"topic1": {{1, 3}},
			"topic2": {{3}},
		},
	)
	planner := New(Config{})

	trim, err := actions.NewTrimAction(baseline, actions.TrimConfig{Brokers: []int{3}})
	require.NoError(t, err)

	result, err := planner.Apply(baseline, trim)
	require.Error(t, err)
	assert.True(t, errors.Is(err, actions.ErrNotEnoughReplicas))
	assert.Same(t, baseline, result)
	assert.Equal(t, [][]int{{1, 3}}, cluster.TestReplicas(t, baseline, "topic1"))
	require.NoError(t, cluster.CheckConsistency(baseline))

	topicTrim, err := actions.NewTrimAction(
		baseline,
		actions.TrimConfig{Brokers: []int{3}, ExcludeTopics: []string{"topic2"}},
	)
	require.NoError(t, err)

	result, err = planner.Apply(baseline, topicTrim)
	require.NoError(t, err)
	assert.NotSame(t, baseline, result)
	assert.Equal(t, [][]int{{1}}, cluster.TestReplicas(t, result, "topic1"))
	assert.Equal(t, [][]int{{1, 3}}, cluster.TestReplicas(t, baseline, "topic1"))
}

func TestPlan(t *testing.T) {
	baseline := testBaseline(t)
	metrics := util.NewRunMetrics("kassigner")

	trim, err := actions.NewTrimAction(
		baseline,
		actions.TrimConfig{Brokers: []int{3}, ExcludeTopics: []string{"topic2"}},
	)
	require.NoError(t, err)

	planner := New(Config{BatchSize: 1, Metrics: metrics, RunID: "test-run"})
	result, err := planner.Plan(baseline, trim)
	require.NoError(t, err)

	assert.Equal(t, "test-run", result.RunID)
	assert.Equal(t, [][]int{{1, 2, 3}, {2, 3, 1}, {1, 2}}, cluster.TestReplicas(t, baseline, "topic1"))
	assert.Equal(t, [][]int{{1, 2}, {2, 1}, {1, 2}}, cluster.TestReplicas(t, result.Proposed, "topic1"))

	require.Equal(t, 2, len(result.Moves))
	assert.Equal(t, "topic1:0", result.Moves[0].String())
	assert.Equal(t, "topic1:1", result.Moves[1].String())

	require.Equal(t, 2, len(result.Reassignments))
	assert.Equal(
		t,
		[]plan.Move{{Topic: "topic1", Partition: 0, Replicas: []int{1, 2}}},
		result.Reassignments[0].Partitions,
	)
	assert.Equal(
		t,
		[]plan.Move{{Topic: "topic1", Partition: 1, Replicas: []int{2, 1}}},
		result.Reassignments[1].Partitions,
	)
	assert.Equal(t, 0, len(result.Elections))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MovesPlanned))
	assert.Equal(
		t,
		2.0,
		testutil.ToFloat64(metrics.BatchesPlanned.WithLabelValues(string(plan.KindReassignment))),
	)
}

func TestPlanElections(t *testing.T) {
	baseline := testBaseline(t)

	demote, err := actions.NewDemoteAction(baseline, actions.DemoteConfig{Brokers: []int{1}})
	require.NoError(t, err)

	result, err := New(Config{PLEBatchSize: 10}).Plan(baseline, demote)
	require.NoError(t, err)
	require.Equal(t, 2, len(result.Moves))
	require.Equal(t, 1, len(result.Elections))
	assert.Equal(
		t,
		[]plan.ElectionPartition{
			{Topic: "topic1", Partition: 0},
			{Topic: "topic1", Partition: 2},
		},
		result.Elections[0].Partitions,
	)

	result, err = New(Config{PLEBatchSize: 2}).Plan(
		baseline,
		actions.NewElectAction(actions.ElectConfig{}),
	)
	require.NoError(t, err)
	assert.Equal(t, 0, len(result.Moves))
	assert.Equal(t, 0, len(result.Reassignments))
	require.Equal(t, 2, len(result.Elections))
	assert.Equal(t, 2, result.Elections[0].Len())
	assert.Equal(t, 2, result.Elections[1].Len())

	result, err = New(Config{SkipPLE: true}).Plan(baseline, demote)
	require.NoError(t, err)
	assert.Equal(t, 2, len(result.Moves))
	assert.Equal(t, 0, len(result.Elections))
}

func TestPlanStopsOnActionError(t *testing.T) {
	baseline := testBaseline(t)

	trim, err := actions.NewTrimAction(baseline, actions.TrimConfig{Brokers: []int{3}})
	require.NoError(t, err)

	_, err = New(Config{}).Plan(baseline, trim)
	require.Error(t, err)
	assert.True(t, errors.Is(err, actions.ErrNotEnoughReplicas))
	assert.Equal(t, [][]int{{3}}, cluster.TestReplicas(t, baseline, "topic2"))
}

func TestRun(t *testing.T) {
	baseline := testBaseline(t)
	metrics := util.NewRunMetrics("kassigner")

	trim, err := actions.NewTrimAction(
		baseline,
		actions.TrimConfig{Brokers: []int{3}, ExcludeTopics: []string{"topic2"}},
	)
	require.NoError(t, err)

	executor := &fakeExecutor{}
	planner := New(
		Config{
			Executor:     executor,
			BatchSize:    1,
			PLEBatchSize: 10,
			Metrics:      metrics,
		},
	)
	assert.NotEmpty(t, planner.RunID())

	_, err = planner.Run(
		context.Background(),
		baseline,
		trim,
		actions.NewElectAction(actions.ElectConfig{ExcludeTopics: []string{"topic2"}}),
	)
	require.NoError(t, err)

	require.Equal(t, 3, len(executor.batches))
	assert.Equal(t, plan.KindReassignment, executor.batches[0].Kind())
	assert.Equal(t, plan.KindReassignment, executor.batches[1].Kind())
	assert.Equal(t, plan.KindLeaderElection, executor.batches[2].Kind())
	assert.Equal(t, 3, executor.batches[2].Len())
	assert.Equal(t, []int{1, 2, 1}, executor.nums)

	assert.Equal(
		t,
		2.0,
		testutil.ToFloat64(metrics.BatchesExecuted.WithLabelValues(string(plan.KindReassignment))),
	)
	assert.Equal(
		t,
		1.0,
		testutil.ToFloat64(metrics.BatchesExecuted.WithLabelValues(string(plan.KindLeaderElection))),
	)
}

func TestExecuteErrors(t *testing.T) {
	baseline := testBaseline(t)
	trim, err := actions.NewTrimAction(
		baseline,
		actions.TrimConfig{Brokers: []int{3}, ExcludeTopics: []string{"topic2"}},
	)
	require.NoError(t, err)

	boom := errors.New("boom")
	executor := &fakeExecutor{failOn: 2, err: boom}
	planner := New(Config{Executor: executor, BatchSize: 1})

	result, err := planner.Plan(baseline, trim)
	require.NoError(t, err)

	err = planner.Execute(context.Background(), result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, len(executor.batches))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor = &fakeExecutor{}
	err = New(Config{Executor: executor, BatchSize: 1}).Execute(ctx, result)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, len(executor.batches))

	assert.NoError(t, New(Config{}).Execute(context.Background(), result))
}
