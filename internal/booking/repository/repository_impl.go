package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/rendezvous/internal/booking/domain"
	"github.com/smallbiznis/rendezvous/internal/servicemodule"
	"github.com/smallbiznis/rendezvous/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, b *domain.Booking) error {
	if !b.ServiceModule.Valid() {
		return servicemodule.ErrUnknownModule
	}
	if b.Version == 0 {
		b.Version = 1
	}
	return conn.WithContext(ctx).Create(b).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id string) (*domain.Booking, error) {
	return r.find(conn.WithContext(ctx), id)
}

func (r *repo) FindForUpdate(ctx context.Context, conn *gorm.DB, id string) (*domain.Booking, error) {
	return r.find(db.ForUpdate(conn.WithContext(ctx)), id)
}

func (r *repo) find(stmt *gorm.DB, id string) (*domain.Booking, error) {
	var b domain.Booking
	err := stmt.Where("id = ?", id).Take(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) FindByIDs(ctx context.Context, conn *gorm.DB, ids []string) ([]domain.Booking, error) {
	return r.findMany(conn.WithContext(ctx), ids)
}

// FindByIDsForUpdate locks rows in id order so concurrent callers over
// overlapping sets queue instead of deadlocking.
func (r *repo) FindByIDsForUpdate(ctx context.Context, conn *gorm.DB, ids []string) ([]domain.Booking, error) {
	return r.findMany(db.ForUpdate(conn.WithContext(ctx)).Order("id asc"), ids)
}

func (r *repo) findMany(stmt *gorm.DB, ids []string) ([]domain.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.Booking
	if err := stmt.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Booking, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]domain.Booking, 0, len(rows))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, b *domain.Booking) error {
	res := conn.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]any{
			"provider_id":       b.ProviderID,
			"status":            b.Status,
			"attributes":        b.Attributes,
			"refund_percent":    b.RefundPercent,
			"status_changed_at": b.StatusChangedAt,
			"confirmed_at":      b.ConfirmedAt,
			"completed_at":      b.CompletedAt,
			"cancelled_at":      b.CancelledAt,
			"updated_at":        b.UpdatedAt,
			"version":           b.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	b.Version++
	return nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.Booking, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Booking{})
	if filter.ServiceModule != "" {
		stmt = stmt.Where("service_module = ?", filter.ServiceModule)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if customerID := strings.TrimSpace(filter.CustomerID); customerID != "" {
		stmt = stmt.Where("customer_id = ?", customerID)
	}
	if providerID := strings.TrimSpace(filter.ProviderID); providerID != "" {
		stmt = stmt.Where("provider_id = ?", providerID)
	}

	order, err := orderClause(filter.SortBy, filter.Descending)
	if err != nil {
		return nil, err
	}
	stmt = stmt.Order(order)
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var rows []domain.Booking
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// orderClause defaults to insertion order.
func orderClause(sortBy string, desc bool) (string, error) {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		return "created_at asc, id asc", nil
	}
	column, ok := domain.SortColumns[sortBy]
	if !ok {
		return "", domain.ErrInvalidSortKey
	}
	direction := "asc"
	if desc {
		direction = "desc"
	}
	return column + " " + direction + ", created_at asc, id asc", nil
}
