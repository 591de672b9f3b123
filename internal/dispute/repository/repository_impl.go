package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/rendezvous/internal/dispute/domain"
	"github.com/smallbiznis/rendezvous/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, d *domain.DisputeCase) error {
	if d.Version == 0 {
		d.Version = 1
	}
	return conn.WithContext(ctx).Create(d).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id string) (*domain.DisputeCase, error) {
	return r.find(conn.WithContext(ctx), id)
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id string) (*domain.DisputeCase, error) {
	return r.find(db.ForUpdate(conn.WithContext(ctx)), id)
}

func (r *repo) find(stmt *gorm.DB, id string) (*domain.DisputeCase, error) {
	var d domain.DisputeCase
	err := stmt.Where("id = ?", id).Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, d *domain.DisputeCase) error {
	res := conn.WithContext(ctx).Model(&domain.DisputeCase{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		Updates(map[string]any{
			"severity":     d.Severity,
			"status":       d.Status,
			"assigned_to":  d.AssignedTo,
			"resolution":   d.Resolution,
			"resolved_by":  d.ResolvedBy,
			"resolved_at":  d.ResolvedAt,
			"escalated_at": d.EscalatedAt,
			"closed_at":    d.ClosedAt,
			"updated_at":   d.UpdatedAt,
			"version":      d.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	d.Version++
	return nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.DisputeCase, error) {
	stmt := conn.WithContext(ctx).Model(&domain.DisputeCase{})
	if filter.ServiceModule != "" {
		stmt = stmt.Where("service_module = ?", filter.ServiceModule)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if bookingID := strings.TrimSpace(filter.BookingID); bookingID != "" {
		stmt = stmt.Where("booking_id = ?", bookingID)
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

	var rows []domain.DisputeCase
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
