package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gestor/internal/app"
	"gestor/internal/config"
	"gestor/internal/db"
	"gestor/internal/migrate"
)

func (c *cli) configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage gestor.yml"}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default gestor.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(c.v.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if c.v.GetBool("json") {
				return c.printJSON(cfg)
			}
			enc := yaml.NewEncoder(c.out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cfgCmd.AddCommand(initCmd, showCmd)
	return cfgCmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(db.Config{Workspace: c.v.GetString("workspace"), Path: c.v.GetString("db")})
			if err != nil {
				return err
			}
			defer conn.Close()
			v, err := migrate.MigrateContext(cmd.Context(), conn)
			if err != nil {
				return err
			}
			if c.v.GetBool("json") {
				return c.printJSON(map[string]int{"schema_version": v})
			}
			fmt.Fprintf(c.out, "schema version %d\n", v)
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the state catalog, templates and users from config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, cfg *config.Config) error {
				if file != "" {
					var err error
					if cfg, err = config.FromFile(file); err != nil {
						return err
					}
				}
				stats, err := svc.SeedCatalog(ctx, cfg.Catalog)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(stats)
				}
				fmt.Fprintf(c.out, "seeded %d states, %d transitions, %d templates, %d users\n",
					stats.States, stats.Transitions, stats.Templates, stats.Users)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed from this config file instead of the workspace one")
	return cmd
}
