package main

import (
	"encoding/json"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"gestor/internal/domain"
)

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) table(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.out)
	tw.AppendHeader(header)
	return tw
}

// caseView is the JSON shape of a case, matching the HTTP API.
type caseView struct {
	ID            int64   `json:"id"`
	Name          string  `json:"nombre"`
	Description   *string `json:"descripcion"`
	Type          *string `json:"tipo"`
	StateID       *int64  `json:"estado_id"`
	ResponsibleID *int64  `json:"responsable_id"`
	CreatedAt     string  `json:"fecha_creacion"`
}

func newCaseView(cs domain.Case) caseView {
	return caseView{
		ID:            cs.ID,
		Name:          cs.Name,
		Description:   cs.Description,
		Type:          cs.Type,
		StateID:       cs.StateID,
		ResponsibleID: cs.ResponsibleID,
		CreatedAt:     domain.FormatTimestamp(cs.CreatedAt),
	}
}

type eventView struct {
	ID        int64   `json:"id"`
	CaseID    int64   `json:"gestion_id"`
	UserID    *int64  `json:"usuario_id"`
	Timestamp string  `json:"fecha"`
	Comment   *string `json:"comentario"`
	StateID   *int64  `json:"estado_id"`
}

func newEventView(e domain.Event) eventView {
	return eventView{
		ID:        e.ID,
		CaseID:    e.CaseID,
		UserID:    e.UserID,
		Timestamp: domain.FormatTimestamp(e.CreatedAt),
		Comment:   e.Comment,
		StateID:   e.StateID,
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func idString(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// optionalInt64 treats zero as unset; catalog and user ids start at 1.
func optionalInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
