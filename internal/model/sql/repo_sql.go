package sql

import (
	"context"
	"errors"
	"fmt"

	"bloodbank/internal/entity"

	"gorm.io/gorm"
)

var (
	// ErrStockGuard is returned when a stock change would drive units below zero.
	ErrStockGuard = errors.New("inventory guard rejected update")
	// ErrStatusChanged is returned when a guarded status update finds the row
	// in a different status than expected.
	ErrStatusChanged = errors.New("row status changed concurrently")
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Transaction runs fn against a repository bound to a single database
// transaction. Any error returned by fn rolls everything back.
func (r *GormRepository) Transaction(ctx context.Context, fn func(tx *GormRepository) error) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

// Ping checks connectivity of the underlying pool.
func (r *GormRepository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) dialect() string {
	if r.db == nil || r.db.Dialector == nil {
		return ""
	}
	return r.db.Dialector.Name()
}

// paginate normalises params and applies offset/limit.
func (r *GormRepository) paginate(query *gorm.DB, params *entity.BaseParams) (*gorm.DB, *entity.BaseParams) {
	if params == nil {
		params = &entity.BaseParams{}
	}
	params.Normalize(defaultPageSize, maxPageSize)
	return query.Offset(params.Offset()).Limit(int(params.PageSize)), params
}

// calculatePagination calculates pagination metrics
func (r *GormRepository) calculatePagination(totalCount int64, params *entity.BaseParams) *entity.Meta {
	return &entity.Meta{
		Total:    totalCount,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
}
