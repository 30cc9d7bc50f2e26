package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/watarui/wauth/internal/app"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/vault/entity"
	"github.com/watarui/wauth/internal/vault/usecase"
)

func (c *command) runShowCode(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		writeln(out, "Please provide a site name or use --help for available commands")
		return nil
	}
	siteName := args[0]

	return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
		code, err := a.Vault().GetCode(ctx, usecase.GetCodeInput{SiteName: siteName})
		if errors.Is(err, entity.ErrSiteNotFound) {
			writef(out, "No secret found for site: %s\n", siteName)
			return nil
		}
		if err != nil {
			return err
		}

		writef(out, "WAUTH - TOTP Generator for %s\n", siteName)
		writeln(out, "---------------------")
		writef(out, "Code: %s (%ds remaining)\n", code.Code, code.RemainingSeconds)
		return nil
	})
}

func (c *command) newAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <site> <secret>",
		Short: "Add a new TOTP secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Vault().AddSite(ctx, usecase.AddSiteInput{SiteName: args[0], Secret: args[1]}); err != nil {
					return err
				}
				writef(cmd.OutOrStdout(), "Added secret for %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *command) newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <site>",
		Short:             "Delete a TOTP secret",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeSites,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Vault().DeleteSite(ctx, usecase.DeleteSiteInput{SiteName: args[0]}); err != nil {
					return err
				}
				writef(cmd.OutOrStdout(), "Deleted secret for %s\n", args[0])
				return nil
			})
		},
	}
}

func (c *command) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Vault().ListSites(ctx, usecase.ListSitesInput{})
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				writeln(w, "Registered sites:")
				for _, site := range out.Sites {
					writef(w, "- %s\n", site)
				}
				return nil
			})
		},
	}
}

func (c *command) newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <site>",
		Short: "Generate and store a random secret for a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Vault().GenerateSecret(ctx, usecase.GenerateSecretInput{SiteName: args[0]})
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				writef(w, "Generated secret for %s\n", out.SiteName)
				writef(w, "Secret: %s\n", out.Secret)
				writef(w, "URI: %s\n", out.URI)
				return nil
			})
		},
	}
}

// fishCompletion writes the static fish script with the current site names.
func fishCompletion(sites []string) string {
	names := strings.Join(sites, " ")

	var b strings.Builder
	b.WriteString("# Fish completion for wauth\n")
	b.WriteString(`complete -f -c wauth -n "__fish_use_subcommand" -a "add" -d "Add new TOTP secret for a site"` + "\n")
	b.WriteString(`complete -f -c wauth -n "__fish_use_subcommand" -a "delete" -d "Delete TOTP secret for a site"` + "\n")
	b.WriteString(`complete -f -c wauth -n "__fish_use_subcommand" -a "list" -d "List all registered sites"` + "\n")
	b.WriteString(`complete -f -c wauth -n "not __fish_seen_subcommand_from add delete list" -a "` + names + `" -d "Site name"` + "\n")
	b.WriteString(`complete -f -c wauth -n "__fish_seen_subcommand_from delete" -a "` + names + `" -d "Site to delete"` + "\n")
	b.WriteString(`complete -f -c wauth -l profile -d "Specify AWS profile" -r` + "\n")
	return b.String()
}

func (c *command) newFishCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-fish-completion",
		Short: "Generate fish shell completion script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Vault().ListSites(ctx, usecase.ListSitesInput{})
				if err != nil {
					return err
				}
				writef(cmd.OutOrStdout(), "%s", fishCompletion(out.Sites))
				return nil
			})
		},
	}
}

// completeSites feeds site names to cobra's dynamic shell completion.
func (c *command) completeSites(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	err := c.withApp(cmd, func(ctx context.Context, a *app.App) error {
		out, err := a.Vault().ListSites(ctx, usecase.ListSitesInput{})
		if err != nil {
			return err
		}
		for _, name := range out.Sites {
			if strings.HasPrefix(name, toComplete) {
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		cobra.CompErrorln(message(err))
		return nil, cobra.ShellCompDirectiveError
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

func (c *command) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL and REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, c.appOptions(cmd, true))
			if err != nil {
				return err
			}

			runErr := a.Run(ctx)

			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
			defer cancel()
			a.Stop(stopCtx)
			return runErr
		},
	}
}

func (c *command) newTokenCommand() *cobra.Command {
	var (
		subject  string
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(c.appOptions(cmd, false))
			if err != nil {
				return err
			}
			defer cfg.Close()

			if !cfg.GetBool("auth.enabled") {
				return errors.New("auth.enabled must be true to mint tokens")
			}

			signer, err := app.NewSigner(cfg, c.opts.Clock)
			if err != nil {
				return err
			}

			scopes := []string{jwt.ScopeRead, jwt.ScopeWrite}
			if readOnly {
				scopes = []string{jwt.ScopeRead}
			}

			token, err := signer.Generate(subject, scopes...)
			if err != nil {
				return err
			}

			writeln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "wauth-cli", "token subject")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "grant only the "+jwt.ScopeRead+" scope")

	return cmd
}
