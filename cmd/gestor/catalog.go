package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"gestor/internal/app"
	"gestor/internal/config"
	"gestor/internal/domain"
)

func (c *cli) stateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "state", Short: "Inspect the state catalog"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List states and the states reachable from each",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				states, err := svc.ListStates(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(states)
				}
				tw := c.table(table.Row{"ID", "Nombre", "Orden", "Terminal", "Next"})
				for _, s := range states {
					next := make([]string, 0, len(s.AllowedNext))
					for _, n := range s.AllowedNext {
						next = append(next, fmt.Sprint(n))
					}
					tw.AppendRow(table.Row{s.ID, s.Name, s.Order, s.IsTerminal, strings.Join(next, ",")})
				}
				tw.Render()
				return nil
			})
		},
	})
	return cmd
}

func (c *cli) templateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "template", Short: "Inspect comment templates"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List comment templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				items, err := svc.ListTemplates(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(items)
				}
				tw := c.table(table.Row{"ID", "Estado", "Tipo", "Titulo", "Required"})
				for _, t := range items {
					tipo := "*"
					if t.CaseType != nil {
						tipo = *t.CaseType
					}
					tw.AppendRow(table.Row{t.ID, t.StateID, tipo, t.Title, t.Required})
				}
				tw.Render()
				return nil
			})
		},
	})

	var (
		caseType string
		stateID  int64
	)
	resolve := &cobra.Command{
		Use:   "resolve",
		Short: "Show which template applies to a move into a state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stateID == 0 {
				return fmt.Errorf("--estado is required")
			}
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				res, err := svc.ResolveTemplate(ctx, optionalString(caseType), stateID)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(map[string]any{"plantilla": res.Template, "comment_required": res.CommentRequired})
				}
				if res.Template == nil {
					fmt.Fprintf(c.out, "no template for state %d; comment optional\n", stateID)
					return nil
				}
				fmt.Fprintf(c.out, "template %d %q (comment required: %t)\n%s\n", res.Template.ID, res.Template.Title, res.CommentRequired, res.Template.Body)
				return nil
			})
		},
	}
	resolve.Flags().StringVar(&caseType, "tipo", "", "case type")
	resolve.Flags().Int64Var(&stateID, "estado", 0, "target state id")
	cmd.AddCommand(resolve)
	return cmd
}

func (c *cli) userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				users, err := svc.ListUsers(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(users)
				}
				tw := c.table(table.Row{"ID", "Nombre", "Correo"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Name, str(u.Email)})
				}
				tw.Render()
				return nil
			})
		},
	})

	var name, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				u, err := svc.CreateUser(ctx, domain.User{Name: name, Email: optionalString(email)})
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(u)
				}
				fmt.Fprintf(c.out, "user %d created\n", u.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "nombre", "", "user name")
	create.Flags().StringVar(&email, "correo", "", "email")
	cmd.AddCommand(create)
	return cmd
}
