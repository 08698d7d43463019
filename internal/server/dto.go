package server

import (
	"gestor/internal/domain"
	"gestor/internal/engine"
)

// Request payloads

type CreateUserRequest struct {
	Name  string  `json:"nombre" minLength:"1"`
	Email *string `json:"correo,omitempty"`
}

type CreateCaseRequest struct {
	Name          string  `json:"nombre" minLength:"1"`
	Description   *string `json:"descripcion,omitempty"`
	Type          *string `json:"tipo,omitempty"`
	StateID       *int64  `json:"estado_id,omitempty" doc:"Initial state, applied as the first transition"`
	ResponsibleID *int64  `json:"responsable_id,omitempty"`
	UserID        *int64  `json:"usuario_id,omitempty" doc:"User recorded on the initial transition"`
	Comment       *string `json:"comentario,omitempty"`
}

type UpdateCaseRequest struct {
	Name          string  `json:"nombre" minLength:"1"`
	Description   *string `json:"descripcion,omitempty"`
	Type          *string `json:"tipo,omitempty"`
	ResponsibleID *int64  `json:"responsable_id,omitempty"`
}

type CreateEventRequest struct {
	UserID          *int64  `json:"usuario_id,omitempty"`
	Comment         *string `json:"comentario,omitempty"`
	StateID         *int64  `json:"estado_id,omitempty"`
	ApplyTransition bool    `json:"apply_transition,omitempty" doc:"Move the case to estado_id"`
}

type TransitionRequest struct {
	StateID int64   `json:"estado_id"`
	UserID  *int64  `json:"usuario_id,omitempty"`
	Comment *string `json:"comentario,omitempty"`
}

// Response payloads

type CaseResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"nombre"`
	Description   *string `json:"descripcion"`
	Type          *string `json:"tipo"`
	StateID       *int64  `json:"estado_id"`
	ResponsibleID *int64  `json:"responsable_id"`
	CreatedAt     string  `json:"fecha_creacion"`
}

type EventResponse struct {
	ID        int64   `json:"id"`
	CaseID    int64   `json:"gestion_id"`
	UserID    *int64  `json:"usuario_id"`
	Timestamp string  `json:"fecha"`
	Comment   *string `json:"comentario"`
	StateID   *int64  `json:"estado_id"`
}

type TransitionResponse struct {
	Case        CaseResponse            `json:"gestion"`
	FromStateID *int64                  `json:"from_estado_id"`
	Event       EventResponse           `json:"evento"`
	Template    *domain.CommentTemplate `json:"plantilla"`
}

type ResolveResponse struct {
	Template        *domain.CommentTemplate `json:"plantilla"`
	CommentRequired bool                    `json:"comment_required"`
}

type DeleteResponse struct {
	Detail string `json:"detail"`
}

func caseResponse(c domain.Case) CaseResponse {
	return CaseResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Type:          c.Type,
		StateID:       c.StateID,
		ResponsibleID: c.ResponsibleID,
		CreatedAt:     domain.FormatTimestamp(c.CreatedAt),
	}
}

func mapCases(items []domain.Case) []CaseResponse {
	out := make([]CaseResponse, 0, len(items))
	for _, c := range items {
		out = append(out, caseResponse(c))
	}
	return out
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		CaseID:    e.CaseID,
		UserID:    e.UserID,
		Timestamp: domain.FormatTimestamp(e.CreatedAt),
		Comment:   e.Comment,
		StateID:   e.StateID,
	}
}

func transitionResponse(res engine.TransitionResult) TransitionResponse {
	return TransitionResponse{
		Case:        caseResponse(res.Case),
		FromStateID: res.From,
		Event:       eventResponse(res.Event),
		Template:    res.Template,
	}
}
