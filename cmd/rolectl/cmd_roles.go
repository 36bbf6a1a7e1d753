package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	domainrole "github.com/alanyang/role-master/internal/domain/role"
	"github.com/alanyang/role-master/internal/domain/rulefile"
	"github.com/alanyang/role-master/internal/service/catalog"
)

var errRoleNotFound = errors.New("role not found")

// =============================================================================
// BROWSING
// =============================================================================

func (c *cli) listCmd() *cobra.Command {
	var (
		query string
		flat  bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the role tree, grouped by category",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			nodes, err := c.core.Catalog.TreeFor(ctx, query, !flat)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), renderTree(nodes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by name, description, expertise or tag")
	cmd.Flags().BoolVar(&flat, "flat", false, "list roles without category groups")
	return cmd
}

func renderTree(nodes []catalog.Node) string {
	t := tree.Root(groupStyle.Render("AI 角色")).Enumerator(tree.RoundedEnumerator)
	for _, n := range nodes {
		switch n.Kind {
		case catalog.KindGroup:
			sub := tree.Root(groupStyle.Render(n.Label) + " " + mutedStyle.Render(n.Detail))
			for _, leaf := range n.Children {
				sub.Child(leafLine(leaf))
			}
			t.Child(sub)
		case catalog.KindRole:
			t.Child(leafLine(n))
		default:
			t.Child(mutedStyle.Render(n.Label + " " + n.Detail))
		}
	}
	return t.String()
}

func leafLine(n catalog.Node) string {
	label := n.Label
	if n.Active {
		label = activeStyle.Render(label)
	}
	parts := []string{label}
	if n.Badge != "" {
		parts = append(parts, n.Badge)
	}
	parts = append(parts, mutedStyle.Render(n.RoleID))
	return strings.Join(parts, " ")
}

func (c *cli) showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <role-id>",
		Short: "Render a role the way its rule file reads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			r, ok, err := c.core.RoleSvc.GetRole(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", errRoleNotFound, args[0])
			}
			return renderMarkdown(out(cmd), rulefile.Render(r, time.Now()), raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

// =============================================================================
// EDITING
// =============================================================================

func (c *cli) createCmd() *cobra.Command {
	var (
		d          domainrole.Draft
		category   string
		promptFile string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a custom role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("reading prompt file: %w", err)
				}
				d.SystemPrompt = string(data)
			}
			cat, ok := domainrole.ParseCategory(category)
			if !ok {
				return fmt.Errorf("unknown category %q", category)
			}
			d.Category = cat
			if !d.Complete() {
				return errors.New("--name, --display-name and --prompt (or --prompt-file) are required")
			}

			r, err := c.core.RoleSvc.CreateRole(ctx, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), r.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&d.Name, "name", "", "short identifier, e.g. qa-bot")
	f.StringVar(&d.DisplayName, "display-name", "", "name shown in lists and replies")
	f.StringVar(&d.Description, "description", "", "one-line summary")
	f.StringVar(&category, "category", string(domainrole.CategoryCustom), "category")
	f.StringVar(&d.SystemPrompt, "prompt", "", "system prompt")
	f.StringVar(&promptFile, "prompt-file", "", "read the system prompt from a file")
	f.StringVar(&d.Personality, "personality", "", "personality traits")
	f.StringVar(&d.Scenario, "scenario", "", "working scenario")
	f.StringVar(&d.CharacterNote, "note", "", "character note")
	f.StringSliceVar(&d.Expertise, "expertise", nil, "areas of expertise")
	f.StringSliceVar(&d.Tags, "tags", nil, "search tags")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <role-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a role",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()
			return c.core.RoleSvc.DeleteRole(ctx, args[0])
		},
	}
}

// =============================================================================
// SELECTION
// =============================================================================

func (c *cli) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <role-id>",
		Short: "Make a role current and write its workspace rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			if _, ok, err := c.core.RoleSvc.GetRole(ctx, args[0]); err != nil {
				return err
			} else if !ok {
				return fmt.Errorf("%w: %s", errRoleNotFound, args[0])
			}
			result, err := c.core.RoleSvc.SetCurrentRole(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), result)
			return nil
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the current role and remove the rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			result, err := c.core.RoleSvc.SetCurrentRole(ctx, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), result)
			return nil
		},
	}
}

func (c *cli) currentCmd() *cobra.Command {
	var prompt bool
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Print the current role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.ctx(cmd)
			defer cancel()

			r, ok, err := c.core.RoleSvc.GetCurrentRole(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out(cmd), mutedStyle.Render("no current role"))
				return nil
			}
			if prompt {
				fmt.Fprintln(out(cmd), r.SystemPrompt)
				return nil
			}
			fmt.Fprintf(out(cmd), "%s %s\n", activeStyle.Render(r.DisplayName), mutedStyle.Render(r.ID))
			return nil
		},
	}
	cmd.Flags().BoolVar(&prompt, "prompt", false, "print only the system prompt")
	return cmd
}

// =============================================================================
// FAVORITES
// =============================================================================

func (c *cli) favCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite roles",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorite roles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				roles, err := c.core.RoleSvc.ListFavorites(ctx)
				if err != nil {
					return err
				}
				for _, r := range roles {
					fmt.Fprintf(out(cmd), "%s %s\n", r.DisplayName, mutedStyle.Render(r.ID))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <role-id>",
			Short: "Add a role to favorites, or remove it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.ctx(cmd)
				defer cancel()

				fav, err := c.core.RoleSvc.ToggleFavorite(ctx, args[0])
				if err != nil {
					return err
				}
				if fav {
					fmt.Fprintln(out(cmd), "★ "+args[0])
				} else {
					fmt.Fprintln(out(cmd), "☆ "+args[0])
				}
				return nil
			},
		},
	)
	return cmd
}
