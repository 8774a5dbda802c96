package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var cloneCmd = &cobra.Command{
	Use:     "clone",
	Short:   "add a broker as an extra replica of every partition on the source brokers",
	PreRunE: clonePreRun,
	RunE:    cloneRun,
}

type cloneCmdConfig struct {
	brokers []int
	to      int

	shared sharedOptions
}

var cloneConfig cloneCmdConfig

func init() {
	cloneCmd.Flags().IntSliceVar(
		&cloneConfig.brokers,
		"brokers",
		[]int{},
		"Source broker ids",
	)
	cloneCmd.Flags().IntVar(
		&cloneConfig.to,
		"to",
		-1,
		"Broker id to clone the source brokers onto",
	)

	addSharedFlags(cloneCmd, &cloneConfig.shared)
	RootCmd.AddCommand(cloneCmd)
}

func clonePreRun(cmd *cobra.Command, args []string) error {
	if len(cloneConfig.brokers) == 0 || cloneConfig.to < 0 {
		return errors.New("Must set both --brokers and --to")
	}
	return cloneConfig.shared.validate()
}

func cloneRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		cloneConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewCloneAction(
				baseline,
				actions.CloneConfig{
					Sources:       cloneConfig.brokers,
					Target:        cloneConfig.to,
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
