package gestorsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal gestor HTTP API client. BaseURL includes the API base
// path, e.g. http://localhost:8080/api.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

type State struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Order       int     `json:"orden"`
	IsTerminal  bool    `json:"is_terminal"`
	AllowedNext []int64 `json:"allowed_next"`
}

type Case struct {
	ID            int64   `json:"id"`
	Name          string  `json:"nombre"`
	Description   *string `json:"descripcion"`
	Type          *string `json:"tipo"`
	StateID       *int64  `json:"estado_id"`
	ResponsibleID *int64  `json:"responsable_id"`
	CreatedAt     string  `json:"fecha_creacion"`
}

type TimelineEntry struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"fecha"`
	Comment   *string `json:"comentario"`
	UserID    *int64  `json:"usuario_id"`
	StateID   *int64  `json:"estado_id"`
	StateName *string `json:"estado_nombre"`
}

type CaseDetail struct {
	ID              int64           `json:"id"`
	Name            string          `json:"nombre"`
	Description     *string         `json:"descripcion"`
	StateID         *int64          `json:"estado_id"`
	StateName       *string         `json:"estado_nombre"`
	Type            *string         `json:"tipo"`
	ResponsibleID   *int64          `json:"responsable_id"`
	ResponsibleName *string         `json:"responsable_nombre"`
	CreatedAt       string          `json:"fecha_creacion"`
	Timeline        []TimelineEntry `json:"etapas"`
}

type Event struct {
	ID        int64   `json:"id"`
	CaseID    int64   `json:"gestion_id"`
	UserID    *int64  `json:"usuario_id"`
	Timestamp string  `json:"fecha"`
	Comment   *string `json:"comentario"`
	StateID   *int64  `json:"estado_id"`
}

type Template struct {
	ID       int64   `json:"id"`
	CaseType *string `json:"tipo_gestion"`
	StateID  int64   `json:"estado_id"`
	Title    string  `json:"titulo"`
	Body     string  `json:"template"`
	Required bool    `json:"required"`
}

type Transition struct {
	Case        Case      `json:"gestion"`
	FromStateID *int64    `json:"from_estado_id"`
	Event       Event     `json:"evento"`
	Template    *Template `json:"plantilla"`
}

type CreateCaseInput struct {
	Name          string  `json:"nombre"`
	Description   *string `json:"descripcion,omitempty"`
	Type          *string `json:"tipo,omitempty"`
	StateID       *int64  `json:"estado_id,omitempty"`
	ResponsibleID *int64  `json:"responsable_id,omitempty"`
	UserID        *int64  `json:"usuario_id,omitempty"`
	Comment       *string `json:"comentario,omitempty"`
}

// APIError wraps non-2xx responses. Code and Message come from the error
// envelope when the body carries one.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.Status, e.Body)
}

// ListStates returns the state catalog.
func (c *Client) ListStates(ctx context.Context) ([]State, error) {
	var resp []State
	err := c.do(ctx, http.MethodGet, "catalogos/estados", nil, &resp)
	return resp, err
}

// GetCase fetches a case by id or by name fragment.
func (c *Client) GetCase(ctx context.Context, code string) (CaseDetail, error) {
	var resp CaseDetail
	err := c.do(ctx, http.MethodGet, "gestiones/"+url.PathEscape(code), nil, &resp)
	return resp, err
}

func (c *Client) CreateCase(ctx context.Context, in CreateCaseInput) (Case, error) {
	var resp Case
	err := c.do(ctx, http.MethodPost, "gestiones", in, &resp)
	return resp, err
}

// ApplyTransition moves a case to stateID. An empty comment is sent as absent.
func (c *Client) ApplyTransition(ctx context.Context, caseID, stateID int64, userID *int64, comment string) (Transition, error) {
	body := map[string]any{"estado_id": stateID}
	if userID != nil {
		body["usuario_id"] = *userID
	}
	if comment != "" {
		body["comentario"] = comment
	}
	var resp Transition
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("gestiones/%d/transiciones", caseID), body, &resp)
	return resp, err
}

// RecordComment appends a note without changing the case state.
func (c *Client) RecordComment(ctx context.Context, caseID int64, userID *int64, comment string) (Event, error) {
	body := map[string]any{"comentario": comment}
	if userID != nil {
		body["usuario_id"] = *userID
	}
	var resp Event
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("gestiones/%d/eventos", caseID), body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
