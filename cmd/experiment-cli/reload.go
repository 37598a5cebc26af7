package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/spf13/cobra"
)

func newReloadCmd(opts *cli.Options) *cobra.Command {
	var (
		expID       int
		duration    int
		reservation int64
	)

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Submit again a previous experiment",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if expID == 0 {
				return models.Argumentf("the following arguments are required: -i/--id")
			}
			var (
				durationPtr *int
				startTime   *int64
			)
			if cmd.Flags().Changed("duration") {
				durationPtr = &duration
			}
			if cmd.Flags().Changed("reservation") {
				startTime = &reservation
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			result, err := experiment.Reload(opts.Context(), api, expID, durationPtr, startTime)
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	addExpIDFlag(reloadCmd, &expID)
	reloadCmd.Flags().IntVarP(&duration, "duration", "d", 0, "new duration in minutes, default is the original one")
	reloadCmd.Flags().Int64VarP(&reservation, "reservation", "r", 0, "start time as a unix timestamp, default is as soon as possible")
	return reloadCmd
}
