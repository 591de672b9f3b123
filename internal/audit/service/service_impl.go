package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/rendezvous/internal/audit/domain"
	"github.com/smallbiznis/rendezvous/internal/audit/masking"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	"github.com/smallbiznis/rendezvous/internal/clock"
	"github.com/smallbiznis/rendezvous/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Append writes one entry through tx. Request id and IP come from the
// audit context when the transport populated it.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, rec auditdomain.Record) (*auditdomain.AuditEntry, error) {
	action := auditdomain.ActionType(strings.TrimSpace(string(rec.Action)))
	if action == "" {
		return nil, auditdomain.ErrInvalidAction
	}
	actorType, actorID := s.resolveActor(ctx, rec.ActorType, rec.ActorID)
	if actorID == "" {
		return nil, auditdomain.ErrMissingActor
	}
	entityID := strings.TrimSpace(rec.EntityID)
	if entityID == "" {
		return nil, auditdomain.ErrMissingEntity
	}
	if tx == nil {
		tx = s.db
	}

	entry := &auditdomain.AuditEntry{
		ID:               s.genID.Generate().String(),
		Timestamp:        s.clock.Now().UTC(),
		ActorType:        actorType,
		ActorID:          actorID,
		ActionType:       action,
		ModuleName:       strings.TrimSpace(rec.ModuleName),
		EntityType:       strings.TrimSpace(rec.EntityType),
		AffectedEntityID: entityID,
		OutcomeSummary:   strings.TrimSpace(rec.Outcome),
		IPAddress:        optional(auditcontext.IPAddressFromContext(ctx)),
		RequestID:        optional(auditcontext.RequestIDFromContext(ctx)),
		Metadata:         sanitizeMetadata(rec.Metadata),
	}

	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		s.log.Warn("failed to write audit entry",
			zap.String("action", string(action)),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListRequest) (auditdomain.ListResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		ts, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.Cursor{ID: decoded.ID, Timestamp: ts}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		ModuleName: req.ModuleName,
		ActionType: req.ActionType,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ActorID:    req.ActorID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.AuditEntry) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID,
			CreatedAt: item.Timestamp.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	entries := make([]auditdomain.AuditEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, *item)
	}
	return auditdomain.ListResponse{Entries: entries, PageInfo: *pageInfo}, nil
}

func (s *Service) resolveActor(ctx context.Context, actorType, actorID string) (string, string) {
	actorType = strings.TrimSpace(actorType)
	actorID = strings.TrimSpace(actorID)
	ctxType, ctxID := auditcontext.ActorFromContext(ctx)
	if actorID == "" {
		actorID = ctxID
		if actorType == "" {
			actorType = ctxType
		}
	}
	if actorType == "" {
		actorType = auditcontext.ActorTypeAdmin
	}
	return actorType, actorID
}

func sanitizeMetadata(in map[string]any) datatypes.JSONMap {
	masked := masking.MaskFields(in, "bank_account", "bank_account_ref")
	if len(masked) == 0 {
		return nil
	}
	return datatypes.JSONMap(masked)
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
