package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/spf13/cobra"
)

func newLoadCmd(opts *cli.Options) *cobra.Command {
	var (
		descPath  string
		firmwares []string
	)

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Submit an experiment from its JSON description",
		Long: `Submit an experiment from its JSON description, as printed by
'experiment-cli get --print'.

Firmwares are read from the current directory. Use --list to give the path of
firmwares stored elsewhere.`,
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if descPath == "" {
				return models.Argumentf("the following arguments are required: -f/--file")
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			result, err := experiment.Load(opts.Context(), api, descPath, firmwares)
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	loadCmd.Flags().StringVarP(&descPath, "file", "f", "", "experiment description JSON file")
	loadCmd.Flags().StringSliceVarP(&firmwares, "list", "l", nil, "firmware paths, comma separated or repeated")
	return loadCmd
}
