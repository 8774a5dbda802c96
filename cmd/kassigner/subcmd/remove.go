package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove",
	Short:   "move every replica off the argument brokers",
	PreRunE: removePreRun,
	RunE:    removeRun,
}

type removeCmdConfig struct {
	brokers []int
	to      []int

	shared sharedOptions
}

var removeConfig removeCmdConfig

func init() {
	removeCmd.Flags().IntSliceVar(
		&removeConfig.brokers,
		"brokers",
		[]int{},
		"Broker ids to remove",
	)
	removeCmd.Flags().IntSliceVar(
		&removeConfig.to,
		"to",
		[]int{},
		"Broker ids that may take over the removed replicas; all other brokers if unset",
	)

	addSharedFlags(removeCmd, &removeConfig.shared)
	RootCmd.AddCommand(removeCmd)
}

func removePreRun(cmd *cobra.Command, args []string) error {
	if len(removeConfig.brokers) == 0 {
		return errors.New("Must set --brokers")
	}
	return removeConfig.shared.validate()
}

func removeRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		removeConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewRemoveAction(
				baseline,
				actions.RemoveConfig{
					Sources:       removeConfig.brokers,
					Targets:       removeConfig.to,
					ExcludeTopics: opts.excludeTopics,
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
