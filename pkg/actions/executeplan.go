package actions

import (
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/sirupsen/logrus"
)

// ExecutePlanConfig configures an ExecutePlanAction.
type ExecutePlanConfig struct {
	Moves  []plan.Move
	Logger logrus.FieldLogger
}

// ExecutePlanAction sets replica lists from an externally supplied plan. Every move is
// checked against the cluster before any of them is applied.
type ExecutePlanAction struct {
	moves  []plan.Move
	logger logrus.FieldLogger
}

var _ Action = (*ExecutePlanAction)(nil)

// NewExecutePlanAction validates config against c and returns a new ExecutePlanAction.
func NewExecutePlanAction(c *cluster.Cluster, config ExecutePlanConfig) (*ExecutePlanAction, error) {
	if len(config.Moves) == 0 {
		return nil, configErrorf("plan has no moves")
	}
	if err := checkMoves(c, config.Moves); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return &ExecutePlanAction{
		moves:  config.Moves,
		logger: discardLogger(config.Logger),
	}, nil
}

func (a *ExecutePlanAction) Name() string {
	return "execute_plan"
}

func (a *ExecutePlanAction) Process(c *cluster.Cluster) error {
	if err := checkMoves(c, a.moves); err != nil {
		return err
	}

	for _, move := range a.moves {
		partition, err := c.Partition(move.Topic, move.Partition)
		if err != nil {
			return err
		}
		brokers, err := lookupBrokers(c, move.Replicas)
		if err != nil {
			return err
		}
		partition.SetReplicas(brokers)
		a.logger.Debugf("Set replicas of %s to %+v", partition, move.Replicas)
	}

	return nil
}

func (a *ExecutePlanAction) NeedsLeaderElection() bool {
	return false
}

func checkMoves(c *cluster.Cluster, moves []plan.Move) error {
	for _, move := range moves {
		if _, err := c.Partition(move.Topic, move.Partition); err != nil {
			return err
		}
		if len(move.Replicas) == 0 {
			return fmt.Errorf("%w: move of %s:%d has no replicas", ErrNotEnoughReplicas, move.Topic, move.Partition)
		}
		seen := map[int]struct{}{}
		for _, id := range move.Replicas {
			if _, ok := c.Broker(id); !ok {
				return fmt.Errorf(
					"%w: %d in move of %s:%d",
					cluster.ErrUnknownBroker,
					id,
					move.Topic,
					move.Partition,
				)
			}
			if _, ok := seen[id]; ok {
				return fmt.Errorf(
					"Move of %s:%d lists broker %d more than once",
					move.Topic,
					move.Partition,
					id,
				)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}
