package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var demoteCmd = &cobra.Command{
	Use:     "demote",
	Short:   "move the argument brokers behind every other replica so they lead nothing",
	PreRunE: demotePreRun,
	RunE:    demoteRun,
}

type demoteCmdConfig struct {
	brokers []int

	shared sharedOptions
}

var demoteConfig demoteCmdConfig

func init() {
	demoteCmd.Flags().IntSliceVar(
		&demoteConfig.brokers,
		"brokers",
		[]int{},
		"Broker ids to demote",
	)

	addSharedFlags(demoteCmd, &demoteConfig.shared)
	RootCmd.AddCommand(demoteCmd)
}

func demotePreRun(cmd *cobra.Command, args []string) error {
	if len(demoteConfig.brokers) == 0 {
		return errors.New("Must set --brokers")
	}
	return demoteConfig.shared.validate()
}

func demoteRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		demoteConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewDemoteAction(
				baseline,
				actions.DemoteConfig{
					Brokers:       demoteConfig.brokers,
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
