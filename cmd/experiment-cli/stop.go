package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/spf13/cobra"
)

func newStopCmd(opts *cli.Options) *cobra.Command {
	var expID int

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop an experiment",
		Long:  "Stop the given experiment, or the only running one.",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := opts.API()
			if err != nil {
				return err
			}
			ctx := opts.Context()

			id, err := experiment.Current(ctx, api, expID, true)
			if err != nil {
				return err
			}
			result, err := experiment.Stop(ctx, api, id)
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	addExpIDFlag(stopCmd, &expID)
	return stopCmd
}

func addExpIDFlag(cmd *cobra.Command, expID *int) {
	cmd.Flags().IntVarP(expID, "id", "i", 0, "experiment id")
}
