package domain

import "time"

// State is one entry of the case state catalog.
type State struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Order       int     `json:"orden"`
	IsTerminal  bool    `json:"is_terminal"`
	AllowedNext []int64 `json:"allowed_next"`
}

// Transition is a directed edge of the state graph.
type Transition struct {
	FromStateID int64 `json:"from_estado_id" yaml:"from"`
	ToStateID   int64 `json:"to_estado_id" yaml:"to"`
}

// CommentTemplate attaches a comment policy to a target state. A nil CaseType
// applies to every case type. RolesAllowed is stored but not enforced.
type CommentTemplate struct {
	ID           int64   `json:"id"`
	CaseType     *string `json:"tipo_gestion"`
	StateID      int64   `json:"estado_id"`
	Title        string  `json:"titulo"`
	Body         string  `json:"template"`
	Required     bool    `json:"required"`
	RolesAllowed *string `json:"roles_allowed"`
}

type User struct {
	ID    int64   `json:"id"`
	Name  string  `json:"nombre"`
	Email *string `json:"correo"`
}

// Case is a "gestión".
type Case struct {
	ID            int64
	Name          string
	Description   *string
	Type          *string
	StateID       *int64
	ResponsibleID *int64
	CreatedAt     time.Time
}

// Event is an immutable timeline record. StateID is set when the event records
// a transition and nil for a plain comment.
type Event struct {
	ID        int64
	CaseID    int64
	UserID    *int64
	CreatedAt time.Time
	Comment   *string
	StateID   *int64
}

// TimelineEntry is an Event annotated for reading.
type TimelineEntry struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"fecha"`
	Comment   *string `json:"comentario"`
	UserID    *int64  `json:"usuario_id"`
	StateID   *int64  `json:"estado_id"`
	StateName *string `json:"estado_nombre"`
}

// CaseDetail is the read model of a case with its full timeline.
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
