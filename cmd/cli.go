package cmd

import (
	"fmt"
	"io"
	"strconv"

	"wavescope/pkg/build"

	"github.com/spf13/cobra"
)

// ListDevicesEnv switches the program to printing the output devices. It is
// an environment variable so the only positional argument stays the file.
const ListDevicesEnv = "ENV_LIST_DEVICES"

// Command names the action selected on the command line.
type Command string

const (
	// CommandNone means cobra handled --help or --version itself.
	CommandNone Command = ""
	CommandPlay Command = "play"
	CommandList Command = "list"
)

// Options is the parsed command line. Everything else comes from the
// config file.
type Options struct {
	Command Command
	Path    string
}

// UsageError wraps argument errors; the usage text has already been written
// to stderr when one is returned.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// ParseArgs parses args (without the program name). getenv is consulted for
// ListDevicesEnv. Help and version output goes to stdout; usage errors go to
// stderr.
func ParseArgs(args []string, getenv func(string) string, stdout, stderr io.Writer) (*Options, error) {
	info := build.Get()
	options := &Options{}

	listDevices, err := envFlag(getenv, ListDevicesEnv)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, &UsageError{Err: err}
	}

	positional := cobra.ExactArgs(1)
	if listDevices {
		positional = cobra.NoArgs
	}

	rootCmd := &cobra.Command{
		Use:           info.Name + " <file.wav>",
		Short:         info.Description,
		Long:          info.Description + ".\n\nSet " + ListDevicesEnv + "=1 to list the audio output devices instead.",
		Version:       info.String(),
		Args:          positional,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if listDevices {
				options.Command = CommandList
				return nil
			}
			options.Command = CommandPlay
			options.Path = args[0]
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, rootCmd.UsageString())
		return nil, &UsageError{Err: err}
	}
	return options, nil
}

func envFlag(getenv func(string) string, name string) (bool, error) {
	v := getenv(name)
	if v == "" {
		return false, nil
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a boolean", name, v)
	}
	return on, nil
}
