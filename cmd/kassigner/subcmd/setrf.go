package subcmd

import (
	"errors"

	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/spf13/cobra"
)

var setRFCmd = &cobra.Command{
	Use:     "set-replication-factor",
	Short:   "grow or shrink the replica lists of the argument topics",
	PreRunE: setRFPreRun,
	RunE:    setRFRun,
}

type setRFCmdConfig struct {
	topics            []string
	replicationFactor int

	shared sharedOptions
}

var setRFConfig setRFCmdConfig

func init() {
	setRFCmd.Flags().StringSliceVar(
		&setRFConfig.topics,
		"topics",
		[]string{},
		"Topics to change",
	)
	setRFCmd.Flags().IntVar(
		&setRFConfig.replicationFactor,
		"replication-factor",
		0,
		"Target replication factor",
	)

	addSharedFlags(setRFCmd, &setRFConfig.shared)
	RootCmd.AddCommand(setRFCmd)
}

func setRFPreRun(cmd *cobra.Command, args []string) error {
	if len(setRFConfig.topics) == 0 || setRFConfig.replicationFactor <= 0 {
		return errors.New("Must set --topics and a positive --replication-factor")
	}
	return setRFConfig.shared.validate()
}

func setRFRun(cmd *cobra.Command, args []string) error {
	return runPlan(
		setRFConfig.shared,
		func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error) {
			action, err := actions.NewSetRFAction(
				baseline,
				actions.SetRFConfig{
					Topics:            setRFConfig.topics,
					ReplicationFactor: setRFConfig.replicationFactor,
					Logger:            opts.logger,
				},
			)
			if err != nil {
				return nil, err
			}
			return []actions.Action{action}, nil
		},
	)
}
