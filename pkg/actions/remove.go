package actions

import (
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// RemoveConfig configures a RemoveAction.
type RemoveConfig struct {
	Sources []int

	// Targets are the brokers that may take over replicas. All other live brokers if
	// empty.
	Targets       []int
	ExcludeTopics []string
	Logger        logrus.FieldLogger
}

// RemoveAction moves every replica off the source brokers. Each replica goes, at the
// same position, to the target broker with the fewest partitions that isn't already a
// replica of the partition.
type RemoveAction struct {
	sources       []int
	targets       []int
	excludeTopics []string
	logger        logrus.FieldLogger
}

var _ Action = (*RemoveAction)(nil)

// NewRemoveAction validates config against c and returns a new RemoveAction.
func NewRemoveAction(c *cluster.Cluster, config RemoveConfig) (*RemoveAction, error) {
	if err := checkBrokers(c, config.Sources, "sources"); err != nil {
		return nil, err
	}

	targets := config.Targets
	if len(targets) == 0 {
		sourceSet := idSet(config.Sources)
		for _, broker := range c.Brokers() {
			if _, ok := sourceSet[broker.ID]; !ok && !broker.Dead() {
				targets = append(targets, broker.ID)
			}
		}
		if len(targets) == 0 {
			return nil, configErrorf("no brokers are left to move replicas to")
		}
	} else {
		if err := checkBrokers(c, targets, "targets"); err != nil {
			return nil, err
		}
		if err := checkDisjoint(config.Sources, targets); err != nil {
			return nil, err
		}
	}

	return &RemoveAction{
		sources:       config.Sources,
		targets:       targets,
		excludeTopics: config.ExcludeTopics,
		logger:        discardLogger(config.Logger),
	}, nil
}

func (a *RemoveAction) Name() string {
	return "remove"
}

func (a *RemoveAction) Process(c *cluster.Cluster) error {
	sources, err := lookupBrokers(c, a.sources)
	if err != nil {
		return err
	}
	targets, err := lookupBrokers(c, a.targets)
	if err != nil {
		return err
	}
	sourceSet := brokerSet(sources)

	for _, partition := range c.Partitions(a.excludeTopics...) {
		for _, replica := range partition.Replicas() {
			if _, ok := sourceSet[replica]; !ok {
				continue
			}

			var replacement *cluster.Broker
			for _, target := range targets {
				if partition.HasReplica(target) {
					continue
				}
				if replacement == nil ||
					target.NumPartitions() < replacement.NumPartitions() ||
					(target.NumPartitions() == replacement.NumPartitions() &&
						target.ID < replacement.ID) {
					replacement = target
				}
			}
			if replacement == nil {
				return fmt.Errorf(
					"%w: no target broker can take the replica of %s on broker %d",
					ErrNotEnoughReplicas,
					partition,
					replica.ID,
				)
			}

			if err := partition.SwapReplicas(replica, replacement); err != nil {
				return err
			}
			a.logger.Debugf(
				"Moved replica of %s from broker %d to broker %d",
				partition,
				replica.ID,
				replacement.ID,
			)
		}
	}

	return nil
}

func (a *RemoveAction) NeedsLeaderElection() bool {
	return false
}
