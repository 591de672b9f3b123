package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/rendezvous/internal/payout/domain"
	"github.com/smallbiznis/rendezvous/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, p *domain.PayoutRequest) error {
	if p.Version == 0 {
		p.Version = 1
	}
	return conn.WithContext(ctx).Create(p).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id string) (*domain.PayoutRequest, error) {
	return r.find(conn.WithContext(ctx), id)
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id string) (*domain.PayoutRequest, error) {
	return r.find(db.ForUpdate(conn.WithContext(ctx)), id)
}

func (r *repo) find(stmt *gorm.DB, id string) (*domain.PayoutRequest, error) {
	var p domain.PayoutRequest
	err := stmt.Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, p *domain.PayoutRequest) error {
	res := conn.WithContext(ctx).Model(&domain.PayoutRequest{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]any{
			"status":          p.Status,
			"decided_at":      p.DecidedAt,
			"decided_by":      p.DecidedBy,
			"decision_note":   p.DecisionNote,
			"transfer_ref":    p.TransferRef,
			"transfer_status": p.TransferStatus,
			"updated_at":      p.UpdatedAt,
			"version":         p.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *repo) RecordTransfer(ctx context.Context, conn *gorm.DB, id string, status domain.TransferStatus, ref *string, at time.Time) error {
	res := conn.WithContext(ctx).Model(&domain.PayoutRequest{}).
		Where("id = ? AND status = ? AND transfer_status <> ?", id, domain.StatusApproved, domain.TransferInitiated).
		Updates(map[string]any{
			"transfer_status": status,
			"transfer_ref":    ref,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransferSettled
	}
	return nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.PayoutRequest, error) {
	stmt := conn.WithContext(ctx).Model(&domain.PayoutRequest{})
	if filter.ServiceModule != "" {
		stmt = stmt.Where("service_module = ?", filter.ServiceModule)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if payeeID := strings.TrimSpace(filter.PayeeID); payeeID != "" {
		stmt = stmt.Where("payee_id = ?", payeeID)
	}

	order := "created_at asc, id asc"
	if sortBy := strings.TrimSpace(filter.SortBy); sortBy != "" {
		column, ok := domain.SortColumns[sortBy]
		if !ok {
			return nil, domain.ErrInvalidSortKey
		}
		direction := " asc"
		if filter.Descending {
			direction = " desc"
		}
		order = column + direction + ", " + order
	}
	stmt = stmt.Order(order)
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var rows []domain.PayoutRequest
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
