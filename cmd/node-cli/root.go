package main

import (
	"context"

	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/node"
	"github.com/iot-lab/iotlab-cli/pkg/parser"
	"github.com/spf13/cobra"
)

type nodeFlags struct {
	expID    int
	start    bool
	stop     bool
	reset    bool
	firmware string
	lists    []string
	excludes []string
}

// command returns the single action selected.
func (f *nodeFlags) command() (string, error) {
	var selected []string
	for _, c := range []struct {
		name string
		set  bool
	}{
		{"start", f.start},
		{"stop", f.stop},
		{"reset", f.reset},
		{"update", f.firmware != ""},
	} {
		if c.set {
			selected = append(selected, c.name)
		}
	}

	switch len(selected) {
	case 1:
		return selected[0], nil
	case 0:
		return "", models.Argumentf("one of the arguments --start --stop --reset --update is required")
	default:
		return "", models.Argumentf("arguments %s are mutually exclusive", models.QuoteList(selected))
	}
}

func newRootCmd(opts *cli.Options) *cobra.Command {
	flags := &nodeFlags{}

	rootCmd := cli.NewRoot("node-cli", "Run commands on the nodes of an experiment", opts)
	rootCmd.Long = `Start, stop, reset or flash the nodes of an experiment.

Without --list or --exclude, the command applies to all the experiment nodes.
Nodes lists are 'site,archi,nodes' like 'grenoble,m3,1-4+7'.

Examples:
  node-cli --reset
  node-cli -i 1234 --update tutorial.elf -l grenoble,m3,1-10
  node-cli --stop -e grenoble,m3,3`
	rootCmd.Args = cli.NoArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		command, err := flags.command()
		if err != nil {
			return err
		}
		if len(flags.lists) > 0 && len(flags.excludes) > 0 {
			return models.Argumentf("arguments -l/--list and -e/--exclude are mutually exclusive")
		}

		api, err := opts.API()
		if err != nil {
			return err
		}
		ctx := opts.Context()

		expID, err := experiment.Current(ctx, api, flags.expID, true)
		if err != nil {
			return err
		}

		p := parser.New(api)
		nodesLists, err := parseLists(ctx, p, flags.lists)
		if err != nil {
			return err
		}
		excludeLists, err := parseLists(ctx, p, flags.excludes)
		if err != nil {
			return err
		}
		nodes, err := p.ListNodes(ctx, expID, nodesLists, excludeLists)
		if err != nil {
			return err
		}

		var result interface{}
		if command == "update" {
			result, err = node.UpdateFirmware(ctx, api, expID, flags.firmware, nodes)
		} else {
			result, err = node.Command(ctx, api, expID, command, nodes)
		}
		if err != nil {
			return err
		}
		return opts.Print(cmd, result)
	}

	f := rootCmd.Flags()
	f.IntVarP(&flags.expID, "id", "i", 0, "experiment id")
	f.BoolVar(&flags.start, "start", false, "start the nodes")
	f.BoolVar(&flags.stop, "stop", false, "stop the nodes")
	f.BoolVar(&flags.reset, "reset", false, "reset the nodes")
	f.StringVar(&flags.firmware, "update", "", "flash the firmware at this path")
	f.StringArrayVarP(&flags.lists, "list", "l", nil, "nodes list, can be repeated")
	f.StringArrayVarP(&flags.excludes, "exclude", "e", nil, "exclude nodes list, can be repeated")
	return rootCmd
}

// parseLists returns nil when no list is given, so that ListNodes can tell
// it apart from an empty selection.
func parseLists(ctx context.Context, p *parser.Parser, lists []string) ([][]string, error) {
	if len(lists) == 0 {
		return nil, nil
	}
	parsed := make([][]string, 0, len(lists))
	for _, list := range lists {
		nodes, err := p.NodesListFromStr(ctx, list)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, nodes)
	}
	return parsed, nil
}
