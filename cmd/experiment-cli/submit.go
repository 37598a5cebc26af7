package main

import (
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/parser"
	"github.com/spf13/cobra"
)

func newSubmitCmd(opts *cli.Options) *cobra.Command {
	var (
		name        string
		duration    int
		reservation int64
		resources   []string
		printOnly   bool
	)

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new experiment",
		Long: `Submit a new experiment.

Resources are either physical nodes, 'site,archi,nodes[,firmware[,profile]]'
like 'grenoble,m3,1-4+7,tuto.elf', or an alias selecting a number of nodes
with properties, 'nb,archi=..+site=..[+mobile=..][,firmware[,profile]]'
like '5,archi=m3:at86rf231+site=grenoble'.`,
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return models.Argumentf("the following arguments are required: -d/--duration")
			}
			if len(resources) == 0 {
				return models.Argumentf("the following arguments are required: -l/--list")
			}

			var startTime *int64
			if cmd.Flags().Changed("reservation") {
				startTime = &reservation
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			ctx := opts.Context()

			p := parser.New(api)
			var expResources []experiment.Resources
			for _, resStr := range resources {
				res, err := p.ResourcesFromStr(ctx, resStr)
				if err != nil {
					return err
				}
				expResources = append(expResources, res)
			}

			if printOnly {
				exp, _, err := experiment.Build(name, duration, expResources, startTime)
				if err != nil {
					return err
				}
				return opts.Print(cmd, exp)
			}

			result, err := experiment.Submit(ctx, api, name, duration, expResources, startTime)
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	submitCmd.Flags().StringVarP(&name, "name", "n", "", "experiment name")
	submitCmd.Flags().IntVarP(&duration, "duration", "d", 0, "experiment duration in minutes")
	submitCmd.Flags().Int64VarP(&reservation, "reservation", "r", 0, "experiment start time as a unix timestamp")
	submitCmd.Flags().StringArrayVarP(&resources, "list", "l", nil, "experiment resources, can be repeated")
	submitCmd.Flags().BoolVar(&printOnly, "print", false, "print the experiment description instead of submitting it")
	return submitCmd
}
