package execute

import (
	"context"
	"fmt"

	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/zk"
	"github.com/sirupsen/logrus"
)

const (
	assignmentPath = "/admin/reassign_partitions"
	electionPath   = "/admin/preferred_replica_election"
)

// ZKExecutorConfig configures a ZKExecutor.
type ZKExecutorConfig struct {
	Poller Poller

	// LockPath, if set, is a zk lock held for the duration of each batch.
	LockPath string

	Logger logrus.FieldLogger
}

// ZKExecutor hands batches to the controller through the zookeeper admin nodes, then
// waits for the controller to delete the node.
type ZKExecutor struct {
	client   zk.Client
	poller   Poller
	lockPath string
	logger   logrus.FieldLogger
}

// NewZKExecutor returns a new ZKExecutor.
func NewZKExecutor(client zk.Client, config ZKExecutorConfig) *ZKExecutor {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	poller := config.Poller
	if poller.Logger == nil {
		poller.Logger = logger
	}

	return &ZKExecutor{
		client:   client,
		poller:   poller,
		lockPath: config.LockPath,
		logger:   logger,
	}
}

func (e *ZKExecutor) Execute(ctx context.Context, batch plan.Batch, num int, total int) error {
	nodePath, err := adminPath(batch)
	if err != nil {
		return err
	}

	if e.lockPath != "" {
		e.logger.Debugf("Acquiring lock %s", e.lockPath)
		lock, err := e.client.AcquireLock(ctx, e.lockPath)
		if err != nil {
			return fmt.Errorf("Error acquiring lock %s: %w", e.lockPath, err)
		}
		defer lock.Unlock()
	}

	exists, err := e.client.Exists(ctx, nodePath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: node %s already exists", ErrInProgress, nodePath)
	}

	data, err := batch.JSON()
	if err != nil {
		return err
	}
	e.logger.Debugf("Writing %s: %s", nodePath, string(data))
	if err := e.client.Create(ctx, nodePath, data); err != nil {
		return fmt.Errorf("Error creating %s: %w", nodePath, err)
	}

	return e.poller.Poll(
		ctx,
		fmt.Sprintf("Waiting for %s batch %d of %d", batch.Kind(), num, total),
		func(ctx context.Context) (bool, error) {
			exists, err := e.client.Exists(ctx, nodePath)
			if err != nil {
				return false, err
			}
			if exists {
				e.logger.Infof("%s is still in progress", nodePath)
			}
			return !exists, nil
		},
	)
}

func adminPath(batch plan.Batch) (string, error) {
	switch batch.Kind() {
	case plan.KindReassignment:
		return assignmentPath, nil
	case plan.KindLeaderElection:
		return electionPath, nil
	default:
		return "", fmt.Errorf("Unrecognized batch kind: %s", batch.Kind())
	}
}
