package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/parser"
	"github.com/spf13/cobra"
)

func newInfoCmd(opts *cli.Options) *cobra.Command {
	var (
		list    bool
		listID  bool
		site    string
		circuit string
	)

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Get testbed resources information",
		Args:  cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, b := range []bool{list, listID, circuit != ""} {
				if b {
					set++
				}
			}
			if set != 1 {
				return models.Argumentf("exactly one of the arguments -l/--list --list-id --circuit is required")
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			ctx := opts.Context()

			var result interface{}
			if circuit != "" {
				result, err = parser.New(api).GetCircuit(ctx, circuit)
			} else {
				if site != "" {
					if err := parser.New(api).CheckSite(ctx, site); err != nil {
						return err
					}
				}
				result, err = experiment.Info(ctx, api, listID, site)
			}
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	infoCmd.Flags().BoolVarP(&list, "list", "l", false, "testbed resources list")
	infoCmd.Flags().BoolVar(&listID, "list-id", false, "testbed resources id list, '1-34+72' format")
	infoCmd.Flags().StringVar(&site, "site", "", "restrict to one site")
	infoCmd.Flags().StringVar(&circuit, "circuit", "", "robot circuit, 'site,circuit_name'")
	return infoCmd
}
