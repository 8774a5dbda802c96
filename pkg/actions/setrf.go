package actions

import (
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// SetRFConfig configures a SetRFAction.
type SetRFConfig struct {
	Topics            []string
	ReplicationFactor int
	Logger            logrus.FieldLogger
}

// SetRFAction sets the replication factor of every partition of the argument topics.
// New replicas are appended to the replica list, taken round-robin over all live brokers
// in id order. Extra replicas are removed from the end of the list.
type SetRFAction struct {
	topics            []string
	replicationFactor int
	logger            logrus.FieldLogger
}

var _ Action = (*SetRFAction)(nil)

// NewSetRFAction validates config against c and returns a new SetRFAction.
func NewSetRFAction(c *cluster.Cluster, config SetRFConfig) (*SetRFAction, error) {
	if len(config.Topics) == 0 {
		return nil, configErrorf("set-replication-factor needs at least one topic")
	}
	for _, name := range config.Topics {
		if _, ok := c.Topic(name); !ok {
			return nil, fmt.Errorf("%w: %w: %s", ErrConfiguration, cluster.ErrUnknownTopic, name)
		}
	}
	numLive := len(c.LiveBrokers())
	if config.ReplicationFactor < 1 || config.ReplicationFactor > numLive {
		return nil, configErrorf(
			"replication factor %d is not between 1 and the live broker count (%d)",
			config.ReplicationFactor,
			numLive,
		)
	}

	return &SetRFAction{
		topics:            config.Topics,
		replicationFactor: config.ReplicationFactor,
		logger:            discardLogger(config.Logger),
	}, nil
}

func (a *SetRFAction) Name() string {
	return "setrf"
}

func (a *SetRFAction) Process(c *cluster.Cluster) error {
	brokers := c.Brokers()
	cursor := 0

	for _, name := range a.topics {
		topic, ok := c.Topic(name)
		if !ok {
			return fmt.Errorf("%w: %s", cluster.ErrUnknownTopic, name)
		}

		for _, partition := range topic.Partitions {
			for partition.NumReplicas() > a.replicationFactor {
				last := partition.Replica(partition.NumReplicas() - 1)
				if err := partition.RemoveReplica(last); err != nil {
					return err
				}
			}

			for tries := 0; partition.NumReplicas() < a.replicationFactor; tries++ {
				if tries >= len(brokers) {
					return fmt.Errorf(
						"%w: no broker is left to add to %s",
						ErrNotEnoughReplicas,
						partition,
					)
				}

				candidate := brokers[cursor%len(brokers)]
				cursor++
				if candidate.Dead() || partition.HasReplica(candidate) {
					continue
				}
				partition.AddReplica(candidate, -1)
			}

			a.logger.Debugf("Set replicas of %s to %+v", partition, partition.ReplicaIDs())
		}
	}

	return nil
}

func (a *SetRFAction) NeedsLeaderElection() bool {
	return false
}
