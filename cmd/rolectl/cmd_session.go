package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alanyang/role-master/internal/domain/compose"
	domainrole "github.com/alanyang/role-master/internal/domain/role"
)

// =============================================================================
// IMPORT / EXPORT
// =============================================================================

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import roles from a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			n, err := c.core.RoleSvc.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), n)
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "export <file> [role-id...]",
		Short: "Export roles to a file (.yaml/.yml for YAML, otherwise JSON)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			ids := args[1:]
			if all {
				roles, err := c.core.RoleSvc.ListRoles(ctx)
				if err != nil {
					return err
				}
				ids = make([]string, 0, len(roles))
				for _, r := range roles {
					ids = append(ids, r.ID)
				}
			}
			n, err := c.core.RoleSvc.ExportFile(ctx, ids, args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				return errors.New("nothing exported")
			}
			fmt.Fprintln(out(cmd), n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "export every role")
	return cmd
}

// =============================================================================
// GROUP CHAT
// =============================================================================

func (c *cli) groupChatCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:     "groupchat",
		Aliases: []string{"gc"},
		Short:   "Run a multi-role group chat session",
	}
	cmd.PersistentFlags().BoolVar(&raw, "raw", false, "print prompts without terminal styling")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <role-id>...",
			Short: "Start a session and print the group prompt",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				prompt, err := c.core.GroupSvc.Start(ctx, args)
				if err != nil {
					return err
				}
				return renderMarkdown(out(cmd), prompt, raw)
			},
		},
		&cobra.Command{
			Use:   "add <role-id>",
			Short: "Add a role to the running session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				prompt, err := c.core.GroupSvc.Add(ctx, args[0])
				if err != nil {
					return err
				}
				return renderMarkdown(out(cmd), prompt, raw)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the session roster",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				sess, err := c.core.GroupSvc.Session(ctx)
				if err != nil {
					return err
				}
				if !sess.Active {
					fmt.Fprintln(out(cmd), mutedStyle.Render("no active session"))
					return nil
				}
				for _, r := range sess.Roles {
					fmt.Fprintf(out(cmd), "%s %s\n", compose.ReplyPrefix(r), mutedStyle.Render(r.ID))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "prompt",
			Short: "Print the group prompt for the running session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				prompt, err := c.core.GroupSvc.Prompt(ctx)
				if err != nil {
					return err
				}
				return renderMarkdown(out(cmd), prompt, raw)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "End the session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()
				return c.core.GroupSvc.Stop(ctx)
			},
		},
	)
	return cmd
}

// =============================================================================
// MARKET
// =============================================================================

func (c *cli) marketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Browse and install roles from the role market",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List market roles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				entries, err := c.core.MarketSvc.Catalog(ctx)
				if err != nil {
					return err
				}
				for _, e := range entries {
					mark := "  "
					if e.Installed {
						mark = activeStyle.Render("✓") + " "
					}
					fmt.Fprintf(out(cmd), "%s%s %s %s\n", mark, e.DisplayName,
						mutedStyle.Render(e.ID), mutedStyle.Render(e.Description))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "install <market-id>",
			Short: "Install a market role into the library",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				r, err := c.core.MarketSvc.InstallByID(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), r.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "presets",
			Short: "Install every market role not installed yet",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				n, err := c.core.MarketSvc.InstallPresets(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), n)
				return nil
			},
		},
	)
	return cmd
}

// =============================================================================
// COMPOSE
// =============================================================================

func (c *cli) composeCmd() *cobra.Command {
	var (
		mode string
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "compose <role-id>...",
		Short: "Print a composed prompt without changing any state",
		Long: `Print a composed prompt for the given roles.

Modes:
  group     - group chat prompt for every role (default)
  addition  - the block that adds the first role to a running chat
  apply     - the single-role "answer as" prompt for the first role`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			var roles []domainrole.Role
			for _, id := range args {
				r, ok, err := c.core.RoleSvc.GetRole(ctx, id)
				if err != nil {
					return err
				}
				if ok {
					roles = append(roles, r)
				}
			}
			if len(roles) == 0 {
				return fmt.Errorf("%w: %s", errRoleNotFound, strings.Join(args, ", "))
			}

			var prompt string
			switch mode {
			case "group":
				prompt = compose.Compose(roles)
			case "addition":
				prompt = compose.ComposeAddition(roles[0])
			case "apply":
				prompt = compose.ComposeApply(roles[0]) + "\n"
			default:
				return fmt.Errorf("unknown mode %q", mode)
			}
			return renderMarkdown(out(cmd), prompt, raw)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "group", "group, addition or apply")
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}
