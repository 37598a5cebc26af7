package main

import (
	"github.com/iot-lab/iotlab-cli/config"
	"github.com/iot-lab/iotlab-cli/pkg/auth"
	"github.com/iot-lab/iotlab-cli/pkg/cli"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/spf13/cobra"
)

func newRootCmd(opts *cli.Options) *cobra.Command {
	rootCmd := cli.NewRoot("auth-cli", "Store IoT-LAB credentials", opts)
	rootCmd.Long = `Check the given login and password against the IoT-LAB API and store them
in the credentials file, $IOTLABRC or ~/.iotlabrc. The other tools use them
when no --user is given.

The password is prompted for when --password is not given.`
	rootCmd.Args = cli.NoArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.Username == "" {
			return models.Argumentf("the following arguments are required: -u/--user")
		}

		creds, err := opts.Credentials()
		if err != nil {
			return err
		}

		ok, err := config.NewClient(opts.Settings, creds).CheckCredential(opts.Context())
		if err != nil {
			return err
		}
		if !ok {
			return models.Argumentf("Wrong login:password")
		}

		if err := auth.WriteRCFile(opts.Settings.RCFile, creds); err != nil {
			return err
		}
		utils.Log.Infof("Credentials of %s written to %s", creds.Username, opts.Settings.RCFile)
		return opts.Print(cmd, "Written")
	}
	return rootCmd
}
