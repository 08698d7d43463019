package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gestor/internal/app"
	"gestor/internal/config"
	"gestor/internal/db"
	"gestor/internal/logging"
)

type cli struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{v: viper.New(), out: out, errOut: errOut}
	root := &cobra.Command{
		Use:   "gestor",
		Short: "Gestor case tracking CLI",
		Long: `Gestor tracks cases ("gestiones") through a catalog of states.
- States and the allowed transitions between them come from gestor.yml (gestor seed).
- Moving a case into a state may require a comment, depending on the comment template for that state and case type.
- Every transition and comment is kept in the case timeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	c.v.SetEnvPrefix("GESTOR")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	pf := root.PersistentFlags()
	pf.StringP("workspace", "w", ".", "workspace directory")
	pf.String("db", "", "database file (default <workspace>/.gestor/gestor.db)")
	pf.String("config", "", "config file (default <workspace>/gestor.yml)")
	pf.Bool("json", false, "output JSON")
	pf.String("log-level", "", "log level (overrides config)")
	for _, name := range []string{"workspace", "db", "config", "json", "log-level"} {
		_ = c.v.BindPFlag(name, pf.Lookup(name))
	}

	root.AddCommand(c.configCmd())
	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.seedCmd())
	root.AddCommand(c.serveCmd())
	root.AddCommand(c.stateCmd())
	root.AddCommand(c.templateCmd())
	root.AddCommand(c.userCmd())
	root.AddCommand(c.caseCmd())
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	if path := c.v.GetString("config"); path != "" {
		return config.FromFile(path)
	}
	return config.LoadOptional(c.v.GetString("workspace"))
}

func (c *cli) logger(cfg *config.Config) (*log.Logger, error) {
	level := c.v.GetString("log-level")
	if level == "" {
		level = cfg.Log.Level
	}
	return logging.New(c.errOut, level, cfg.Log.Format)
}

// withService opens the workspace, runs fn and releases everything after.
func (c *cli) withService(ctx context.Context, fn func(context.Context, *app.Service, *config.Config) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}
	svc, closeFn, err := app.Open(ctx, db.Config{Workspace: c.v.GetString("workspace"), Path: c.v.GetString("db")}, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc, cfg)
}
