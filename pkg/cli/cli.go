// Package cli holds what the iotlab command line tools share: common flags,
// settings loading, result printing and the mapping of errors to exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/iot-lab/iotlab-cli/config"
	"github.com/iot-lab/iotlab-cli/pkg/auth"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/output"
	"github.com/iot-lab/iotlab-cli/pkg/rest"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

const unauthorizedHint = "HTTP Error 401: Unauthorized: Wrong login/password\n\n" +
	"\tRegister your login:password using `auth-cli`"

// Options are the flags common to all tools, and what is built from them.
type Options struct {
	ConfigFile string
	Username   string
	Password   string
	JMESPath   string
	Format     string
	LogLevel   string
	Proxy      string

	Settings models.Settings
	Prompt   auth.PromptFunc

	ctx     context.Context
	printer *output.Printer
}

// NewRoot returns a root command carrying the common flags. Settings are
// loaded before any subcommand runs.
func NewRoot(use, short string, opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           use,
		Short:         short,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.Init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default is $HOME/.iotlab/config.yaml)")
	flags.StringVarP(&opts.Username, "user", "u", "", "IoT-LAB login, prompts for the password when --password is not given")
	flags.StringVarP(&opts.Password, "password", "p", "", "IoT-LAB password")
	flags.StringVar(&opts.JMESPath, "jmespath", "", "JMESPath query applied to the result (alias --jp)")
	flags.StringVar(&opts.Format, "format", "json", "Output format: json, yaml, text, table (alias --fmt)")
	flags.StringVar(&opts.LogLevel, "loglevel", "", "Set log level. Available: debug, info, warning, error, fatal")
	flags.StringVar(&opts.Proxy, "proxy", "", "HTTP Proxy (Example: http://127.0.0.1:8080)")
	root.SetGlobalNormalizationFunc(flagAliases)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &models.ArgumentError{Msg: err.Error(), Err: err}
	})
	return root
}

func flagAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "jp":
		name = "jmespath"
	case "fmt":
		name = "format"
	}
	return pflag.NormalizedName(name)
}

// Init loads settings and prepares the log level and result printer.
func (o *Options) Init() error {
	settings, err := config.Load(o.ConfigFile, map[string]string{
		"proxy":    o.Proxy,
		"loglevel": o.LogLevel,
	})
	if err != nil {
		return err
	}
	o.Settings = settings

	if err := utils.SetLogLevel(settings.LogLevel); err != nil {
		return &models.ArgumentError{Msg: err.Error(), Err: err}
	}

	o.printer, err = output.NewPrinter(o.JMESPath, o.Format)
	return err
}

// Context is cancelled on SIGINT and SIGTERM once Execute runs.
func (o *Options) Context() context.Context {
	if o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// Credentials resolves the credentials from flags, the prompt or the rc
// file.
func (o *Options) Credentials() (models.Credentials, error) {
	prompt := o.Prompt
	if prompt == nil {
		prompt = auth.TerminalPrompt(os.Stdin, os.Stderr)
	}
	return auth.Resolve(o.Username, o.Password, o.Settings.RCFile, prompt)
}

// API returns a REST client using the resolved credentials.
func (o *Options) API() (*rest.Client, error) {
	creds, err := o.Credentials()
	if err != nil {
		return nil, err
	}
	return config.NewClient(o.Settings, creds), nil
}

// Print writes result to the command output.
func (o *Options) Print(cmd *cobra.Command, result interface{}) error {
	if o.printer == nil {
		var err error
		if o.printer, err = output.NewPrinter(o.JMESPath, o.Format); err != nil {
			return err
		}
	}
	return o.printer.Print(cmd.OutOrStdout(), result)
}

// NoArgs rejects positional arguments as a usage error.
func NoArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return models.Argumentf("unrecognized arguments: %v", args)
	}
	return nil
}

// Execute runs root and returns the process exit code. SIGPIPE is
// ignored so that writing to a closed stdout returns EPIPE, which
// output.Printer drops, instead of killing the process.
func Execute(root *cobra.Command, opts *Options) int {
	signal.Ignore(syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	opts.ctx = ctx

	cmd, err := root.ExecuteC()
	return ExitCode(cmd, err, root.ErrOrStderr())
}

// ExitCode reports err on w and returns the matching exit code: 2 for
// usage errors, 1 for the others.
func ExitCode(cmd *cobra.Command, err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	utils.Log.WithError(err).Debug("command failed")

	var argErr *models.ArgumentError
	var pathErr *fs.PathError
	var httpErr *models.HTTPError
	switch {
	case errors.As(err, &argErr), errors.As(err, &pathErr):
		if cmd != nil {
			fmt.Fprint(w, cmd.UsageString())
		}
		fmt.Fprintf(w, "error: %s\n", err)
		return 2
	case models.IsUnauthorized(err):
		fmt.Fprintln(w, unauthorizedHint)
		return 1
	case errors.As(err, &httpErr):
		fmt.Fprintln(w, httpErr)
		return 1
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "\nStopped.")
		return 1
	default:
		fmt.Fprintf(w, "error: %s\n", err)
		return 1
	}
}
