package main

import (
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/spf13/cobra"
)

// getOptions maps the get flags selecting a part of an experiment to the
// matching experiment.Get option.
var getOptions = []struct {
	flag   string
	option string
}{
	{"print", ""},
	{"resources", "resources"},
	{"resources-id", "id"},
	{"exp-state", "state"},
	{"start-time", "start"},
	{"archive", "data"},
}

func newGetCmd(opts *cli.Options) *cobra.Command {
	var (
		expID  int
		state  string
		limit  int
		offset int
	)

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get experiment information",
		Long: `Get experiment information.

One of the selection flags is required. --list and --active return the user
experiments, the others a part of one experiment, the given one or the only
running one.`,
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := getSelection(cmd)
			if err != nil {
				return err
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			ctx := opts.Context()

			var result interface{}
			switch selected {
			case "list":
				result, err = experiment.List(ctx, api, state, limit, offset)
			case "active":
				result, err = experiment.Active(ctx, api, false)
			default:
				var id int
				id, err = experiment.Current(ctx, api, expID, true)
				if err != nil {
					return err
				}
				result, err = experiment.Get(ctx, api, id, getOptionFor(selected))
			}
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	addExpIDFlag(getCmd, &expID)
	flags := getCmd.Flags()
	flags.Bool("print", false, "experiment submission")
	flags.BoolP("resources", "r", false, "experiment resources list")
	flags.Bool("resources-id", false, "experiment resources id list, '1-34+72' format")
	flags.BoolP("exp-state", "s", false, "experiment state")
	flags.Bool("start-time", false, "experiment expected start time")
	flags.BoolP("archive", "a", false, "write the experiment archive to '<id>.tar.gz'")
	flags.BoolP("list", "l", false, "list the user experiments")
	flags.BoolP("active", "e", false, "active experiments ids grouped by state")

	flags.StringVar(&state, "state", "", "with --list, experiment states, comma separated")
	flags.IntVar(&limit, "limit", 0, "with --list, maximum number of experiments")
	flags.IntVar(&offset, "offset", 0, "with --list, experiments list offset")
	return getCmd
}

// getSelection returns the single selection flag set.
func getSelection(cmd *cobra.Command) (string, error) {
	names := []string{"list", "active"}
	for _, o := range getOptions {
		names = append(names, o.flag)
	}

	var selected []string
	for _, name := range names {
		if set, _ := cmd.Flags().GetBool(name); set {
			selected = append(selected, name)
		}
	}

	switch len(selected) {
	case 1:
		return selected[0], nil
	case 0:
		return "", models.Argumentf("one of the arguments --%s is required", strings.Join(names, " --"))
	default:
		return "", models.Argumentf("arguments --%s are mutually exclusive", strings.Join(selected, " --"))
	}
}

func getOptionFor(flag string) string {
	for _, o := range getOptions {
		if o.flag == flag {
			return o.option
		}
	}
	return ""
}
