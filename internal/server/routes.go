package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"gestor/internal/app"
	"gestor/internal/domain"
	"gestor/internal/engine"
)

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerCatalog(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-states",
		Method:      http.MethodGet,
		Path:        "/catalogos/estados",
		Summary:     "List states with their allowed next states",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.State `json:"body"`
	}, error) {
		states, err := svc.ListStates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if states == nil {
			states = []domain.State{}
		}
		return &struct {
			Body []domain.State `json:"body"`
		}{Body: states}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-comment-templates",
		Method:      http.MethodGet,
		Path:        "/catalogos/comentario-plantillas",
		Summary:     "List comment templates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.CommentTemplate `json:"body"`
	}, error) {
		items, err := svc.ListTemplates(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.CommentTemplate{}
		}
		return &struct {
			Body []domain.CommentTemplate `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-comment-template",
		Method:      http.MethodGet,
		Path:        "/catalogos/comentario-plantillas/resolve",
		Summary:     "Preview the template applied when moving a case type into a state",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Type    string `query:"tipo" doc:"Case type; empty matches only wildcard templates"`
		StateID int64  `query:"estado_id" required:"true"`
	}) (*struct {
		Body ResolveResponse `json:"body"`
	}, error) {
		var caseType *string
		if t := strings.TrimSpace(input.Type); t != "" {
			caseType = &t
		}
		res, err := svc.ResolveTemplate(ctx, caseType, input.StateID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ResolveResponse `json:"body"`
		}{Body: ResolveResponse{Template: res.Template, CommentRequired: res.CommentRequired}}, nil
	})
}

func registerUsers(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/usuarios",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		users, err := svc.ListUsers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if users == nil {
			users = []domain.User{}
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/usuarios",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		u, err := svc.CreateUser(ctx, domain.User{Name: input.Body.Name, Email: input.Body.Email})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})
}

func registerCases(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-cases",
		Method:      http.MethodGet,
		Path:        "/gestiones",
		Summary:     "List cases",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []CaseResponse `json:"body"`
	}, error) {
		items, err := svc.ListCases(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []CaseResponse `json:"body"`
		}{Body: mapCases(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-case",
		Method:        http.MethodPost,
		Path:          "/gestiones",
		Summary:       "Create case",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body CreateCaseRequest
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		b := input.Body
		c, err := svc.CreateCase(ctx, app.CreateCaseRequest{
			Name:          b.Name,
			Description:   b.Description,
			Type:          b.Type,
			StateID:       b.StateID,
			ResponsibleID: b.ResponsibleID,
			UserID:        b.UserID,
			Comment:       b.Comment,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: caseResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-case",
		Method:      http.MethodGet,
		Path:        "/gestiones/{id}",
		Summary:     "Case detail with timeline",
		Description: "A numeric code is a case id. Anything else matches the first case whose name contains it, " +
			"ignoring case; which one is returned among several matches is not defined.",
		Errors: []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Code string `path:"id"`
	}) (*struct {
		Body domain.CaseDetail `json:"body"`
	}, error) {
		d, err := svc.CaseDetail(ctx, input.Code)
		if err != nil {
			return nil, handleError(err)
		}
		if d.Timeline == nil {
			d.Timeline = []domain.TimelineEntry{}
		}
		return &struct {
			Body domain.CaseDetail `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-case",
		Method:      http.MethodPut,
		Path:        "/gestiones/{id}",
		Summary:     "Update case metadata",
		Description: "The state is not changed here; use the transitions endpoint.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body UpdateCaseRequest
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		b := input.Body
		c, err := svc.UpdateCase(ctx, app.UpdateCaseRequest{
			ID:            input.ID,
			Name:          b.Name,
			Description:   b.Description,
			Type:          b.Type,
			ResponsibleID: b.ResponsibleID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: caseResponse(c)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-case",
		Method:      http.MethodDelete,
		Path:        "/gestiones/{id}",
		Summary:     "Delete case and its timeline",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body DeleteResponse `json:"body"`
	}, error) {
		if err := svc.DeleteCase(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeleteResponse `json:"body"`
		}{Body: DeleteResponse{Detail: "Gestión eliminada correctamente"}}, nil
	})
}

func registerEvents(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-case-events",
		Method:      http.MethodGet,
		Path:        "/gestiones/{id}/eventos",
		Summary:     "Case timeline, oldest first",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct {
		Body []domain.TimelineEntry `json:"body"`
	}, error) {
		entries, err := svc.Timeline(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if entries == nil {
			entries = []domain.TimelineEntry{}
		}
		return &struct {
			Body []domain.TimelineEntry `json:"body"`
		}{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-case-event",
		Method:        http.MethodPost,
		Path:          "/gestiones/{id}/eventos",
		Summary:       "Record a comment or apply a transition",
		Description:   "With apply_transition the case moves to estado_id under the transition rules; otherwise a plain comment is recorded.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body CreateEventRequest
	}) (*struct {
		Body EventResponse `json:"body"`
	}, error) {
		b := input.Body
		if b.ApplyTransition {
			if b.StateID == nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "estado_id is required with apply_transition", nil)
			}
			res, err := svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: input.ID, TargetStateID: *b.StateID, UserID: b.UserID, Comment: b.Comment})
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body EventResponse `json:"body"`
			}{Body: eventResponse(res.Event)}, nil
		}
		if b.StateID != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "estado_id needs apply_transition=true", map[string]any{"estado_id": *b.StateID})
		}
		comment := ""
		if b.Comment != nil {
			comment = *b.Comment
		}
		ev, err := svc.RecordComment(ctx, engine.CommentRequest{CaseID: input.ID, UserID: b.UserID, Comment: comment})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body EventResponse `json:"body"`
		}{Body: eventResponse(ev)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "apply-transition",
		Method:        http.MethodPost,
		Path:          "/gestiones/{id}/transiciones",
		Summary:       "Apply a state transition",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64 `path:"id"`
		Body TransitionRequest
	}) (*struct {
		Body TransitionResponse `json:"body"`
	}, error) {
		b := input.Body
		res, err := svc.ApplyTransition(ctx, engine.TransitionRequest{CaseID: input.ID, TargetStateID: b.StateID, UserID: b.UserID, Comment: b.Comment})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TransitionResponse `json:"body"`
		}{Body: transitionResponse(res)}, nil
	})
}
