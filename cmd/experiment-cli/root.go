package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/spf13/cobra"
)

// newRootCmd represents the base command when called without any subcommands
func newRootCmd(opts *cli.Options) *cobra.Command {
	rootCmd := cli.NewRoot("experiment-cli", "Manage IoT-LAB experiments", opts)
	rootCmd.Long = `Submit, follow and control IoT-LAB experiments.

Examples:
  experiment-cli submit -d 20 -l grenoble,m3,1-4+7,tutorial.elf
  experiment-cli submit -n test -d 30 -l 5,archi=m3:at86rf231+site=lille
  experiment-cli get -i 1234 --resources
  experiment-cli wait --state Running --timeout 600
  experiment-cli stop`
	// Runnable, so that cobra validates args instead of printing help for
	// an unknown subcommand.
	rootCmd.Args = cli.NoArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}

	rootCmd.AddCommand(
		newSubmitCmd(opts),
		newStopCmd(opts),
		newGetCmd(opts),
		newLoadCmd(opts),
		newReloadCmd(opts),
		newInfoCmd(opts),
		newWaitCmd(opts),
	)
	return rootCmd
}
