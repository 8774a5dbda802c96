package execute

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintExecutor(t *testing.T) {
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()

	executor := NewPrintExecutor(
		PrintExecutorConfig{OutputDir: dir, Prefix: "run1", Logger: logger},
	)
	reassignment := &plan.Reassignment{
		Version:    1,
		Partitions: []plan.Move{{Topic: "topic1", Partition: 3, Replicas: []int{1, 2}}},
	}
	require.NoError(t, executor.Execute(context.Background(), reassignment, 2, 5))

	contents, err := os.ReadFile(filepath.Join(dir, "run1-reassignment-2-of-5.json"))
	require.NoError(t, err)
	assert.Equal(
		t,
		"{\"version\":1,\"partitions\":[{\"topic\":\"topic1\",\"partition\":3,\"replicas\":[1,2]}]}\n",
		string(contents),
	)

	moves, err := plan.LoadMovesFile(filepath.Join(dir, "run1-reassignment-2-of-5.json"))
	require.NoError(t, err)
	assert.Equal(t, reassignment.Partitions, moves)

	logOnly := NewPrintExecutor(PrintExecutorConfig{Logger: logger})
	require.NoError(
		t,
		logOnly.Execute(context.Background(), &plan.LeaderElection{}, 1, 1),
	)
	assert.Equal(
		t,
		`leader-election batch 1 of 1: {"partitions":null}`,
		hook.LastEntry().Message,
	)
}

func TestConfirm(t *testing.T) {
	assert.True(t, Confirm("OK to apply?", true))
	assert.True(t, confirmed(" YES "))
	assert.False(t, confirmed("y"))
	assert.False(t, confirmed(""))
}
