package actions

import (
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// CloneConfig configures a CloneAction.
type CloneConfig struct {
	Sources       []int
	Target        int
	ExcludeTopics []string
	Logger        logrus.FieldLogger
}

// CloneAction adds a target broker as a replica to every partition that has a replica on
// one of the source brokers. The target leads the partitions that a source broker leads,
// and is the first follower of the others. A target that's already a replica is promoted
// to leader.
//
// Replication factors grow by one for the partitions that get the target.
type CloneAction struct {
	sources       []int
	target        int
	excludeTopics []string
	logger        logrus.FieldLogger
}

var _ Action = (*CloneAction)(nil)

// NewCloneAction validates config against c and returns a new CloneAction.
func NewCloneAction(c *cluster.Cluster, config CloneConfig) (*CloneAction, error) {
	if err := checkBrokers(c, config.Sources, "sources"); err != nil {
		return nil, err
	}
	if err := checkBrokers(c, []int{config.Target}, "target"); err != nil {
		return nil, err
	}
	if err := checkDisjoint(config.Sources, []int{config.Target}); err != nil {
		return nil, err
	}

	return &CloneAction{
		sources:       config.Sources,
		target:        config.Target,
		excludeTopics: config.ExcludeTopics,
		logger:        discardLogger(config.Logger),
	}, nil
}

func (a *CloneAction) Name() string {
	return "clone"
}

func (a *CloneAction) Process(c *cluster.Cluster) error {
	sources, err := lookupBrokers(c, a.sources)
	if err != nil {
		return err
	}
	targets, err := lookupBrokers(c, []int{a.target})
	if err != nil {
		return err
	}
	target := targets[0]
	sourceSet := brokerSet(sources)

	for _, partition := range c.Partitions(a.excludeTopics...) {
		replicas := partition.Replicas()

		hasSource := false
		for _, replica := range replicas {
			if _, ok := sourceSet[replica]; ok {
				hasSource = true
				break
			}
		}
		if !hasSource {
			continue
		}

		if partition.HasReplica(target) {
			if err := partition.SwapReplicaPositions(replicas[0], target); err != nil {
				return err
			}
			a.logger.Debugf("Promoted broker %d to leader of %s", target.ID, partition)
			continue
		}

		pos := 1
		if _, ok := sourceSet[replicas[0]]; ok {
			pos = 0
		}
		partition.AddReplica(target, pos)
		a.logger.Debugf("Added broker %d to %s at position %d", target.ID, partition, pos)
	}

	return nil
}

func (a *CloneAction) NeedsLeaderElection() bool {
	return false
}
