package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/spf13/cobra"
)

var executePlanCmd = &cobra.Command{
	Use:     "execute-plan",
	Short:   "apply the replica lists in a plan file",
	PreRunE: executePlanPreRun,
	RunE:    executePlanRun,
}

type executePlanCmdConfig struct {
	file string

	shared sharedOptions
}

var executePlanConfig executePlanCmdConfig

func init() {
	executePlanCmd.Flags().StringVar(
		&executePlanConfig.file,
		"file",
		"",
		"Path to a JSON list of {topic, partition, replicas} moves",
	)

	addSharedFlags(executePlanCmd, &executePlanConfig.shared)
	RootCmd.AddCommand(executePlanCmd)
}

func executePlanPreRun(cmd *cobra.Command, args []string) error {
	if executePlanConfig.file == "" {
		return errors.New("Must set --file")
	}
	return executePlanConfig.shared.validate()
}

func executePlanRun(cmd *cobra.Command, args []string) error {
	moves, err := plan.LoadMovesFile(executePlanConfig.file)
	if err != nil {
		return err
	}

	return runPlan(
		executePlanConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewExecutePlanAction(
				baseline,
				actions.ExecutePlanConfig{
					Moves:  moves,
					Logger: opts.logger,
				},
			)
			if err != nil {
				return nil, err
			}
			return []actions.Action{action}, nil
		},
	)
}
