// Package cli implements the wauth command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/watarui/wauth/internal/app"
	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/goerror"
)

const stopTimeout = 10 * time.Second

// Options customise the command tree, mainly for tests.
type Options struct {
	// Clock replaces the wall clock for code generation.
	Clock clock.Clocker
}

type globalFlags struct {
	config  string
	profile string
}

type command struct {
	opts  Options
	flags globalFlags
}

// Execute runs the command line with os.Args and returns the exit code.
func Execute() int {
	root := NewCommand(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		writeln(root.ErrOrStderr(), "Error:", message(err))
		return 1
	}
	return 0
}

// NewCommand builds the root command with every subcommand attached.
func NewCommand(opts Options) *cobra.Command {
	c := &command{opts: opts}

	root := &cobra.Command{
		Use:               "wauth [site]",
		Short:             "TOTP code generator backed by a remote secret store",
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		ValidArgsFunction: c.completeSites,
		RunE:              c.runShowCode,
	}

	root.PersistentFlags().StringVar(&c.flags.config, "config", "", "config file (default ~/.config/wauth/config.toml)")
	root.PersistentFlags().StringVar(&c.flags.profile, "profile", "", "AWS profile to use")

	root.AddCommand(
		c.newAddCommand(),
		c.newDeleteCommand(),
		c.newListCommand(),
		c.newGenerateCommand(),
		c.newFishCompletionCommand(),
		c.newServeCommand(),
		c.newTokenCommand(),
	)

	return root
}

func (c *command) appOptions(cmd *cobra.Command, server bool) app.Options {
	opts := app.Options{
		ConfigPath: c.flags.config,
		Server:     server,
		Clock:      c.opts.Clock,
	}
	if !server {
		opts.LogOutput = cmd.ErrOrStderr()
	}
	if c.flags.profile != "" {
		opts.Overrides = map[string]any{
			"store.dynamodb.profile": c.flags.profile,
			"store.s3.profile":       c.flags.profile,
		}
	}
	return opts
}

// withApp builds a command line App, runs fn and releases every resource,
// flushing pending events first.
func (c *command) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, c.appOptions(cmd, false))
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		a.Stop(stopCtx)
	}()

	return fn(ctx, a)
}

// message renders err for a terminal: business errors show their message,
// validation errors their rule, and store failures their cause.
func message(err error) string {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		return err.Error()
	}

	switch gerr.Type() {
	case goerror.TypeBusiness:
		return gerr.Msg()
	case goerror.TypeServer:
		if cause := errors.Unwrap(gerr); cause != nil {
			return "secret store error: " + cause.Error()
		}
		return gerr.Msg()
	default:
		return gerr.Error()
	}
}

func writeln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func writef(w io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(w, format, a...)
}
