package actions

import (
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// DemoteConfig configures a DemoteAction.
type DemoteConfig struct {
	Brokers       []int
	ExcludeTopics []string
	Logger        logrus.FieldLogger
}

// DemoteAction moves the argument brokers behind all other replicas of every partition,
// so that they aren't the preferred leader of anything. The relative order of the other
// replicas, and of the demoted ones, is kept.
//
// If any partition has only demoted replicas, the action fails before changing anything.
type DemoteAction struct {
	brokers       []int
	excludeTopics []string
	logger        logrus.FieldLogger
}

var _ Action = (*DemoteAction)(nil)

// NewDemoteAction validates config against c and returns a new DemoteAction.
func NewDemoteAction(c *cluster.Cluster, config DemoteConfig) (*DemoteAction, error) {
	if err := checkBrokers(c, config.Brokers, "brokers"); err != nil {
		return nil, err
	}

	return &DemoteAction{
		brokers:       config.Brokers,
		excludeTopics: config.ExcludeTopics,
		logger:        discardLogger(config.Logger),
	}, nil
}

func (a *DemoteAction) Name() string {
	return "demote"
}

func (a *DemoteAction) Process(c *cluster.Cluster) error {
	brokers, err := lookupBrokers(c, a.brokers)
	if err != nil {
		return err
	}
	demoted := brokerSet(brokers)

	partitions := c.Partitions(a.excludeTopics...)
	orders := make([][]*cluster.Broker, len(partitions))

	for i, partition := range partitions {
		kept := []*cluster.Broker{}
		moved := []*cluster.Broker{}
		for _, replica := range partition.Replicas() {
			if _, ok := demoted[replica]; ok {
				moved = append(moved, replica)
			} else {
				kept = append(kept, replica)
			}
		}
		if len(kept) == 0 && len(moved) > 0 {
			return fmt.Errorf(
				"%w: every replica of %s is being demoted",
				ErrNotEnoughReplicas,
				partition,
			)
		}
		orders[i] = append(kept, moved...)
	}

	for i, partition := range partitions {
		for pos, broker := range orders[i] {
			current := partition.Replica(pos)
			if current == broker {
				continue
			}
			if err := partition.SwapReplicaPositions(current, broker); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *DemoteAction) NeedsLeaderElection() bool {
	return true
}
