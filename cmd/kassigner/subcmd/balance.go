package subcmd

import (
	"fmt"
	"strings"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/balance"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "move replicas so that the cluster is balanced by the argument strategies",
	Long: fmt.Sprintf(
		"Runs balance strategies in the order given. Available strategies: %s",
		strings.Join(balance.Names(), ", "),
	),
	PreRunE: balancePreRun,
	RunE:    balanceRun,
}

type balanceCmdConfig struct {
	types []string

	shared sharedOptions
}

var balanceConfig balanceCmdConfig

func init() {
	balanceCmd.Flags().StringSliceVar(
		&balanceConfig.types,
		"types",
		[]string{"count", "leader"},
		"Balance strategies to run, in order",
	)

	addSharedFlags(balanceCmd, &balanceConfig.shared)
	RootCmd.AddCommand(balanceCmd)
}

func balancePreRun(cmd *cobra.Command, args []string) error {
	if len(balanceConfig.types) == 0 {
		return fmt.Errorf("Must set at least one balance type")
	}
	return balanceConfig.shared.validate()
}

func balanceRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		balanceConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewBalanceAction(
				actions.BalanceConfig{
					Types:         balanceConfig.types,
					ExcludeTopics: opts.excludeTopics,
					Seed:          opts.seed,
					Logger:        opts.logger,
				},
			)
			if err != nil {
				return nil, err
			}
			return []actions.Action{action}, nil
		},
	)
}
