package actions

import (
	"errors"
	"fmt"

	"github.com/segmentio/kassigner/pkg/balance"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

// BalanceConfig configures a BalanceAction.
type BalanceConfig struct {
	// Types are the names of the strategies to run, in order.
	Types         []string
	ExcludeTopics []string
	Seed          string
	Logger        logrus.FieldLogger
}

// BalanceAction runs one or more balance strategies in sequence.
type BalanceAction struct {
	balancers []balance.Balancer
	logger    logrus.FieldLogger
}

var _ Action = (*BalanceAction)(nil)

// NewBalanceAction returns a new BalanceAction.
func NewBalanceAction(config BalanceConfig) (*BalanceAction, error) {
	if len(config.Types) == 0 {
		return nil, configErrorf("balance needs at least one type (valid: %+v)", balance.Names())
	}

	logger := discardLogger(config.Logger)
	action := &BalanceAction{
		logger: logger,
	}

	for _, name := range config.Types {
		balancer, err := balance.New(
			name,
			balance.Options{
				Logger:        logger.WithField("strategy", name),
				ExcludeTopics: config.ExcludeTopics,
				Seed:          config.Seed,
			},
		)
		if errors.Is(err, balance.ErrUnknownStrategy) {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		} else if err != nil {
			return nil, err
		}
		action.balancers = append(action.balancers, balancer)
	}

	return action, nil
}

func (a *BalanceAction) Name() string {
	return "balance"
}

func (a *BalanceAction) Process(c *cluster.Cluster) error {
	for _, balancer := range a.balancers {
		a.logger.Infof("Running %s balance", balancer.Name())
		if err := balancer.Balance(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *BalanceAction) NeedsLeaderElection() bool {
	return true
}
