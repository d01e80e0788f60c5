package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/mdreader/internal/config"
	"github.com/mithrel/mdreader/internal/relay"
	"github.com/mithrel/mdreader/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// Execute is the entrypoint: it builds the root cobra.Command and runs it
// with the process arguments until the command returns or a signal arrives.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], NewRootCmd)
}

// flagError marks a flag parsing failure on the root command.
type flagError struct{ err error }

func (e *flagError) Error() string { return e.err.Error() }
func (e *flagError) Unwrap() error { return e.err }

// run executes the command tree. Malformed arguments to the root command
// are reported and the viewer starts without a file, keeping only --config.
func run(ctx context.Context, args []string, build func() *cobra.Command) error {
	root := build()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	var fe *flagError
	if !errors.As(err, &fe) {
		return err
	}
	_, _ = fmt.Fprintf(root.ErrOrStderr(), "mdreader: %v; starting without a file\n", fe.err)
	retry := build()
	retry.SetOut(root.OutOrStdout())
	retry.SetErr(root.ErrOrStderr())
	retry.SetArgs(configFlag(args))
	return retry.ExecuteContext(ctx)
}

// configFlag extracts a --config flag from args, if any.
func configFlag(args []string) []string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if strings.HasPrefix(a, "--config=") {
			return []string{a}
		}
		if a == "--config" && i+1 < len(args) {
			return []string{a, args[i+1]}
		}
	}
	return []string{}
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "mdreader [file]",
		Short:         "mdreader — a markdown viewer",
		Long:          "Open a markdown file in the viewer. A second launch hands its file to the viewer that is already running.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			// Wire up the app and stash it in context for subcommands.
			app, err := wire.BuildApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), appKey, app)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				return app.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := relay.Argument{}
			switch len(args) {
			case 0:
			case 1:
				arg = relay.Arg(args[0])
			default:
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "mdreader: expected at most one file, got %d; starting without a file\n", len(args))
			}
			return openViewer(cmd, getApp(cmd), arg)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml|yaml|json)")
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		if c.HasParent() {
			return err
		}
		return &flagError{err: err}
	})

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newRecentCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}
