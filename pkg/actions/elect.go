package actions

import (
	"github.com/segmentio/kassigner/pkg/cluster"
)

// ElectConfig configures an ElectAction.
type ElectConfig struct {
	ExcludeTopics []string
}

// ElectAction doesn't move anything. It asks for a preferred leader election of every
// partition.
type ElectAction struct {
	excludeTopics []string
}

var (
	_ Action  = (*ElectAction)(nil)
	_ Elector = (*ElectAction)(nil)
)

// NewElectAction returns a new ElectAction.
func NewElectAction(config ElectConfig) *ElectAction {
	return &ElectAction{
		excludeTopics: config.ExcludeTopics,
	}
}

func (a *ElectAction) Name() string {
	return "elect"
}

func (a *ElectAction) Process(c *cluster.Cluster) error {
	return nil
}

func (a *ElectAction) NeedsLeaderElection() bool {
	return true
}

func (a *ElectAction) ElectionPartitions(c *cluster.Cluster) []*cluster.Partition {
	return c.Partitions(a.excludeTopics...)
}
