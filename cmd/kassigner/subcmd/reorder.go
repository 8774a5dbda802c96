package subcmd

import (
	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:     "reorder",
	Short:   "reorder replicas to balance leaders without moving data",
	PreRunE: reorderPreRun,
	RunE:    reorderRun,
}

type reorderCmdConfig struct {
	shared sharedOptions
}

var reorderConfig reorderCmdConfig

func init() {
	addSharedFlags(reorderCmd, &reorderConfig.shared)
	RootCmd.AddCommand(reorderCmd)
}

func reorderPreRun(cmd *cobra.Command, args []string) error {
	return reorderConfig.shared.validate()
}

func reorderRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		reorderConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewReorderAction(
				actions.ReorderConfig{
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
