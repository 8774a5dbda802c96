package actions

import (
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// TrimConfig configures a TrimAction.
type TrimConfig struct {
	Brokers       []int
	ExcludeTopics []string
	Logger        logrus.FieldLogger
}

// TrimAction removes the replicas on the argument brokers from every partition, lowering
// replication factors.
//
// Partitions are processed in order; a partition that would lose all of its replicas
// fails the action before any of its replicas are removed, but after earlier partitions
// were trimmed.
type TrimAction struct {
	brokers       []int
	excludeTopics []string
	logger        logrus.FieldLogger
}

var _ Action = (*TrimAction)(nil)

// NewTrimAction validates config against c and returns a new TrimAction.
func NewTrimAction(c *cluster.Cluster, config TrimConfig) (*TrimAction, error) {
	if err := checkBrokers(c, config.Brokers, "brokers"); err != nil {
		return nil, err
	}

	return &TrimAction{
		brokers:       config.Brokers,
		excludeTopics: config.ExcludeTopics,
		logger:        discardLogger(config.Logger),
	}, nil
}

func (a *TrimAction) Name() string {
	return "trim"
}

func (a *TrimAction) Process(c *cluster.Cluster) error {
	brokers, err := lookupBrokers(c, a.brokers)
	if err != nil {
		return err
	}
	trimmed := brokerSet(brokers)

	for _, partition := range c.Partitions(a.excludeTopics...) {
		toRemove := []*cluster.Broker{}
		for _, replica := range partition.Replicas() {
			if _, ok := trimmed[replica]; ok {
				toRemove = append(toRemove, replica)
			}
		}
		if len(toRemove) == 0 {
			continue
		}
		if len(toRemove) == partition.NumReplicas() {
			return fmt.Errorf(
				"%w: trimming %s would leave it without replicas",
				ErrNotEnoughReplicas,
				partition,
			)
		}

		for _, replica := range toRemove {
			if err := partition.RemoveReplica(replica); err != nil {
				return err
			}
		}
		a.logger.Debugf("Trimmed %s to %+v", partition, partition.ReplicaIDs())
	}

	return nil
}

func (a *TrimAction) NeedsLeaderElection() bool {
	return false
}
