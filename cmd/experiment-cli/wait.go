package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/ui"
	"github.com/spf13/cobra"
)

func newWaitCmd(opts *cli.Options) *cobra.Command {
	var (
		expID   int
		states  string
		step    float64
		timeout float64
	)

	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for an experiment to be in a given state",
		Long: `Wait for the given experiment, or the only active one, to be in one of
the given states. Fails if it ends before.

A spinner shows the current state when stderr is a terminal.`,
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if step <= 0 {
				return models.Argumentf("--step must be positive")
			}
			if timeout < 0 {
				return models.Argumentf("--timeout must not be negative")
			}

			api, err := opts.API()
			if err != nil {
				return err
			}
			ctx := opts.Context()

			id, err := experiment.Current(ctx, api, expID, false)
			if err != nil {
				return err
			}

			stateFn := func(ctx context.Context) (string, error) {
				return experiment.State(ctx, api, id)
			}
			var progress *ui.WaitProgress
			if ui.IsTerminal(os.Stderr) {
				progress = ui.NewWaitProgress(os.Stderr, id, states)
				stateFn = func(ctx context.Context) (string, error) {
					state, err := experiment.State(ctx, api, id)
					if err == nil {
						progress.Update(state)
					}
					return state, err
				}
			}

			result, err := experiment.WaitState(ctx, stateFn, strconv.Itoa(id), states, seconds(step), seconds(timeout))
			if progress != nil {
				progress.Done(result, err)
			}
			if err != nil {
				return err
			}
			return opts.Print(cmd, result)
		},
	}

	addExpIDFlag(waitCmd, &expID)
	waitCmd.Flags().StringVar(&states, "state", "Running", "expected states, comma separated")
	waitCmd.Flags().Float64Var(&step, "step", experiment.DefaultWaitStep.Seconds(), "time to wait between checks, in seconds")
	waitCmd.Flags().Float64Var(&timeout, "timeout", 0, "maximum time to wait in seconds, 0 waits forever")
	return waitCmd
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
