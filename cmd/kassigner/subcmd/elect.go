package subcmd

import (
	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var electCmd = &cobra.Command{
	Use:     "elect",
	Short:   "run a preferred leader election for every partition",
	PreRunE: electPreRun,
	RunE:    electRun,
}

type electCmdConfig struct {
	shared sharedOptions
}

var electConfig electCmdConfig

func init() {
	addSharedFlags(electCmd, &electConfig.shared)
	RootCmd.AddCommand(electCmd)
}

func electPreRun(cmd *cobra.Command, args []string) error {
	return electConfig.shared.validate()
}

func electRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		electConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			return []actions.Action{
				actions.NewElectAction(
					actions.ElectConfig{
						ExcludeTopics: opts.excludeTopics,
					},
				),
			}, nil
		},
	)
}
