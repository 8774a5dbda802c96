package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var trimCmd = &cobra.Command{
	Use:     "trim",
	Short:   "drop the replicas on the argument brokers, lowering replication factors",
	PreRunE: trimPreRun,
	RunE:    trimRun,
}

type trimCmdConfig struct {
	brokers []int

	shared sharedOptions
}

var trimConfig trimCmdConfig

func init() {
	trimCmd.Flags().IntSliceVar(
		&trimConfig.brokers,
		"brokers",
		[]int{},
		"Broker ids to trim",
	)

	addSharedFlags(trimCmd, &trimConfig.shared)
	RootCmd.AddCommand(trimCmd)
}

func trimPreRun(cmd *cobra.Command, args []string) error {
	if len(trimConfig.brokers) == 0 {
		return errors.New("Must set --brokers")
	}
	return trimConfig.shared.validate()
}

func trimRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		trimConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewTrimAction(
				baseline,
				actions.TrimConfig{
					Brokers:       trimConfig.brokers,
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
