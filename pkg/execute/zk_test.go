package execute

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoller() Poller {
	return Poller{Interval: time.Millisecond}
}

func TestZKExecutor(t *testing.T) {
	client, err := zk.NewMemoryClient()
	require.NoError(t, err)

	lockHeld := false
	client.OnCreate = func(c *zk.MemoryClient, path string) {
		lockHeld = c.Locked("/kassigner/lock")
		go func() {
			time.Sleep(5 * time.Millisecond)
			c.Delete(context.Background(), path)
		}()
	}

	executor := NewZKExecutor(
		client,
		ZKExecutorConfig{Poller: testPoller(), LockPath: "/kassigner/lock"},
	)

	reassignment := &plan.Reassignment{
		Version:    1,
		Partitions: []plan.Move{{Topic: "topic1", Partition: 0, Replicas: []int{2, 1}}},
	}
	require.NoError(t, executor.Execute(context.Background(), reassignment, 1, 1))

	election := &plan.LeaderElection{
		Partitions: []plan.ElectionPartition{{Topic: "topic1", Partition: 0}},
	}
	require.NoError(t, executor.Execute(context.Background(), election, 1, 1))

	require.Equal(t, 2, len(client.Created))
	assert.Equal(t, "/admin/reassign_partitions", client.Created[0].Path)
	assert.Equal(
		t,
		`{"version":1,"partitions":[{"topic":"topic1","partition":0,"replicas":[2,1]}]}`,
		string(client.Created[0].Obj.([]byte)),
	)
	assert.Equal(t, "/admin/preferred_replica_election", client.Created[1].Path)
	assert.Equal(
		t,
		`{"partitions":[{"topic":"topic1","partition":0}]}`,
		string(client.Created[1].Obj.([]byte)),
	)

	assert.True(t, lockHeld)
	assert.False(t, client.Locked("/kassigner/lock"))
}

func TestZKExecutorInProgress(t *testing.T) {
	client, err := zk.NewMemoryClient(
		zk.PathTuple{Path: "/admin/reassign_partitions", Obj: []byte(`{"version":1,"partitions":[]}`)},
	)
	require.NoError(t, err)

	executor := NewZKExecutor(client, ZKExecutorConfig{Poller: testPoller()})
	err = executor.Execute(context.Background(), &plan.Reassignment{Version: 1}, 1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInProgress))
	assert.Equal(t, 0, len(client.Created))
}

func TestZKExecutorCanceled(t *testing.T) {
	client, err := zk.NewMemoryClient()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	client.OnCreate = func(c *zk.MemoryClient, path string) {
		cancel()
	}

	executor := NewZKExecutor(client, ZKExecutorConfig{Poller: Poller{Interval: time.Hour}})
	err = executor.Execute(ctx, &plan.Reassignment{Version: 1}, 1, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}
