// Command rolectl manages role prompts from the terminal: it shares the
// store and workspace rule file with the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alanyang/role-master/internal/config"
	"github.com/alanyang/role-master/internal/wire"
)

// cli carries the flags and the service graph for one invocation.
type cli struct {
	configPath string
	workspace  string
	store      string
	verbose    bool
	timeout    time.Duration

	core *wire.Core
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes one command line and releases the store afterwards, whether
// or not the command failed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rolectl",
		Short: "Manage AI role prompts",
		Long: `rolectl manages the AI role library: browse and search roles, pick the
active role whose rule file is injected into the workspace, run multi-role
group chats, and move roles between machines with import/export.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", os.Getenv("ROLEMASTER_CONFIG"), "path to a YAML config file")
	flags.StringVarP(&c.workspace, "workspace", "w", "", "workspace directory for the rule file (default: current)")
	flags.StringVar(&c.store, "store", "", "override store.driver (memory, sqlite, postgres, redis, mongo)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.DurationVar(&c.timeout, "timeout", 30*time.Second, "operation timeout")

	root.AddCommand(
		c.listCmd(),
		c.showCmd(),
		c.createCmd(),
		c.deleteCmd(),
		c.useCmd(),
		c.clearCmd(),
		c.currentCmd(),
		c.favCmd(),
		c.importCmd(),
		c.exportCmd(),
		c.groupChatCmd(),
		c.marketCmd(),
		c.composeCmd(),
	)
	return root
}

// open loads config, applies flag overrides and wires the services. Output
// from notifications goes to the command's stderr.
func (c *cli) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.store != "" {
		cfg.Store.Driver = c.store
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	switch {
	case c.workspace != "":
		cfg.Workspace.Root = c.workspace
	case cfg.Workspace.Root == "":
		if wd, err := os.Getwd(); err == nil {
			cfg.Workspace.Root = wd
		}
	}

	level := slog.LevelWarn
	if c.verbose {
		level = cfg.Log.SlogLevel()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	core, err := wire.BuildCore(ctx, cfg, newPrintSink(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("opening role store: %w", err)
	}
	c.core = core
	return nil
}

func (c *cli) close() error {
	if c.core == nil {
		return nil
	}
	err := c.core.Close()
	c.core = nil
	return err
}

// ctx bounds one command by --timeout.
func (c *cli) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
