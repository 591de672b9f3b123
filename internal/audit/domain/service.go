package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rendezvous/internal/apperror"
	"github.com/smallbiznis/rendezvous/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrInvalidAction    = errors.New("invalid_audit_action")
	ErrMissingActor     = errors.New("audit_actor_required")
	ErrMissingEntity    = errors.New("audit_entity_required")
	ErrInvalidPageToken = apperror.NewValidation("page_token", "invalid page token")
	ErrInvalidTimeRange = apperror.NewValidation("start_at", "start_at must be before end_at")
)

// Record describes an entry before the sink stamps id, time and request context.
type Record struct {
	ActorID    string
	ActorType  string
	Action     ActionType
	ModuleName string
	EntityType string
	EntityID   string
	Outcome    string
	Metadata   map[string]any
}

// Sink appends entries inside the caller's transaction so a failed append
// rolls the state change back with it.
type Sink interface {
	Append(ctx context.Context, tx *gorm.DB, rec Record) (*AuditEntry, error)
}

type Service interface {
	Sink
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditEntry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditEntry, error)
}

type ListRequest struct {
	pagination.Pagination
	ModuleName string
	ActionType string
	EntityType string
	EntityID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListResponse struct {
	Entries  []AuditEntry        `json:"entries"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Cursor struct {
	ID        string
	Timestamp time.Time
}

type ListFilter struct {
	ModuleName string
	ActionType string
	EntityType string
	EntityID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *Cursor
	Limit      int
}
