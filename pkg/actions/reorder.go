package actions

import (
	"github.com/segmentio/kassigner/pkg/balance"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// ReorderConfig configures a ReorderAction.
type ReorderConfig struct {
	ExcludeTopics []string
	Logger        logrus.FieldLogger
}

// ReorderAction spreads preferred leadership over brokers by reordering replica lists.
// It never changes which brokers hold a partition.
type ReorderAction struct {
	balancer balance.Balancer
}

var _ Action = (*ReorderAction)(nil)

// NewReorderAction returns a new ReorderAction.
func NewReorderAction(config ReorderConfig) (*ReorderAction, error) {
	balancer, err := balance.NewLeaderBalancer(
		balance.Options{
			Logger:        discardLogger(config.Logger),
			ExcludeTopics: config.ExcludeTopics,
		},
	)
	if err != nil {
		return nil, err
	}
	return &ReorderAction{
		balancer: balancer,
	}, nil
}

func (a *ReorderAction) Name() string {
	return "reorder"
}

func (a *ReorderAction) Process(c *cluster.Cluster) error {
	return a.balancer.Balance(c)
}

func (a *ReorderAction) NeedsLeaderElection() bool {
	return true
}
