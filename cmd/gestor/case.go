package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"gestor/internal/app"
	"gestor/internal/config"
	"gestor/internal/engine"
)

func (c *cli) caseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "case", Short: "Work with cases"}
	cmd.AddCommand(c.caseListCmd(), c.caseCreateCmd(), c.caseShowCmd(), c.caseTransitionCmd(), c.caseCommentCmd(), c.caseDeleteCmd())
	return cmd
}

func parseCaseID(arg string) (int64, error) {
	v, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid case id %q", arg)
	}
	return v, nil
}

func (c *cli) caseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				cases, err := svc.ListCases(ctx)
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					out := make([]caseView, 0, len(cases))
					for _, cs := range cases {
						out = append(out, newCaseView(cs))
					}
					return c.printJSON(out)
				}
				tw := c.table(table.Row{"ID", "Nombre", "Tipo", "Estado", "Responsable", "Creada"})
				for _, cs := range cases {
					tw.AppendRow(table.Row{cs.ID, cs.Name, str(cs.Type), idString(cs.StateID), idString(cs.ResponsibleID), cs.CreatedAt.Format("2006-01-02 15:04")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (c *cli) caseCreateCmd() *cobra.Command {
	var (
		name, desc, caseType, comment string
		stateID, responsible, userID  int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a case, optionally placing it in its first state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				cs, err := svc.CreateCase(ctx, app.CreateCaseRequest{
					Name:          name,
					Description:   optionalString(desc),
					Type:          optionalString(caseType),
					ResponsibleID: optionalInt64(responsible),
					StateID:       optionalInt64(stateID),
					UserID:        optionalInt64(userID),
					Comment:       optionalString(comment),
				})
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(newCaseView(cs))
				}
				fmt.Fprintf(c.out, "case %d created\n", cs.ID)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "nombre", "", "case name")
	f.StringVar(&desc, "descripcion", "", "description")
	f.StringVar(&caseType, "tipo", "", "case type")
	f.Int64Var(&stateID, "estado", 0, "initial state id")
	f.Int64Var(&responsible, "responsable", 0, "responsible user id")
	f.Int64Var(&userID, "usuario", 0, "user recorded on the initial transition")
	f.StringVar(&comment, "comentario", "", "comment for the initial transition")
	return cmd
}

func (c *cli) caseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show a case and its timeline by id or name fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				d, err := svc.CaseDetail(ctx, args[0])
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(d)
				}
				fmt.Fprintf(c.out, "#%d %s\n", d.ID, d.Name)
				fmt.Fprintf(c.out, "estado: %s  tipo: %s  responsable: %s  creada: %s\n",
					str(d.StateName), str(d.Type), str(d.ResponsibleName), d.CreatedAt)
				if d.Description != nil {
					fmt.Fprintln(c.out, *d.Description)
				}
				tw := c.table(table.Row{"ID", "Fecha", "Estado", "Usuario", "Comentario"})
				for _, e := range d.Timeline {
					tw.AppendRow(table.Row{e.ID, e.Timestamp, str(e.StateName), idString(e.UserID), str(e.Comment)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func (c *cli) caseTransitionCmd() *cobra.Command {
	var (
		stateID, userID int64
		comment         string
	)
	cmd := &cobra.Command{
		Use:   "transition <id>",
		Short: "Move a case to another state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			if stateID == 0 {
				return fmt.Errorf("--estado is required")
			}
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				res, err := svc.ApplyTransition(ctx, engine.TransitionRequest{
					CaseID:        caseID,
					TargetStateID: stateID,
					UserID:        optionalInt64(userID),
					Comment:       optionalString(comment),
				})
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(map[string]any{
						"gestion":        newCaseView(res.Case),
						"from_estado_id": res.From,
						"evento":         newEventView(res.Event),
						"plantilla":      res.Template,
					})
				}
				from := idString(res.From)
				if from == "" {
					from = "-"
				}
				fmt.Fprintf(c.out, "case %d: %s -> %d (event %d)\n", caseID, from, stateID, res.Event.ID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&stateID, "estado", 0, "target state id")
	cmd.Flags().Int64Var(&userID, "usuario", 0, "acting user id")
	cmd.Flags().StringVar(&comment, "comentario", "", "comment")
	return cmd
}

func (c *cli) caseCommentCmd() *cobra.Command {
	var (
		userID  int64
		comment string
	)
	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: "Add a comment to a case timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				ev, err := svc.RecordComment(ctx, engine.CommentRequest{
					CaseID:  caseID,
					UserID:  optionalInt64(userID),
					Comment: comment,
				})
				if err != nil {
					return err
				}
				if c.v.GetBool("json") {
					return c.printJSON(newEventView(ev))
				}
				fmt.Fprintf(c.out, "event %d recorded\n", ev.ID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "usuario", 0, "author user id")
	cmd.Flags().StringVar(&comment, "comentario", "", "comment")
	return cmd
}

func (c *cli) caseDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a case and its timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := parseCaseID(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				if err := svc.DeleteCase(ctx, caseID); err != nil {
					return err
				}
				fmt.Fprintf(c.out, "case %d deleted\n", caseID)
				return nil
			})
		},
	}
}
