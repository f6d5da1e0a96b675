package sql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bloodbank/internal/entity"

	"gorm.io/gorm"
)

// ListInventory returns every stock line in clinical order.
func (r *GormRepository) ListInventory(ctx context.Context) ([]entity.DbInventory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var lines []entity.DbInventory
	if err := r.db.WithContext(ctx).Find(&lines).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return entity.BloodGroupRank(lines[i].BloodGroup) < entity.BloodGroupRank(lines[j].BloodGroup)
	})
	return lines, nil
}

// GetInventory loads the line for one blood group.
func (r *GormRepository) GetInventory(ctx context.Context, bloodGroup string) (*entity.DbInventory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var line entity.DbInventory
	if err := r.db.WithContext(ctx).Where("blood_group = ?", bloodGroup).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

// EnsureInventoryLine creates the line for bloodGroup when it is missing and
// reports whether a row was inserted.
func (r *GormRepository) EnsureInventoryLine(ctx context.Context, bloodGroup, status string, at time.Time) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	line := entity.DbInventory{BloodGroup: bloodGroup, UnitsAvailable: 0, Status: status, LastUpdated: at}
	result := r.db.WithContext(ctx).Where(entity.DbInventory{BloodGroup: bloodGroup}).FirstOrCreate(&line)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddInventoryUnits applies delta to the line in a single guarded UPDATE and
// returns the resulting unit count. The guard rejects any change that would
// leave units_available negative, so concurrent removals cannot both pass a
// stale availability check. Returns gorm.ErrRecordNotFound for an unknown
// group and ErrStockGuard when the guard fails.
func (r *GormRepository) AddInventoryUnits(ctx context.Context, bloodGroup string, delta int, at time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	result := r.db.WithContext(ctx).Model(&entity.DbInventory{}).
		Where("blood_group = ?", bloodGroup).
		Where("units_available + ? >= 0", delta).
		Updates(map[string]interface{}{
			"units_available": gorm.Expr("units_available + ?", delta),
			"last_updated":    at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetInventory(ctx, bloodGroup); err != nil {
			return 0, err
		}
		return 0, ErrStockGuard
	}

	line, err := r.GetInventory(ctx, bloodGroup)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("inventory line %s vanished during update: %w", bloodGroup, err)
		}
		return 0, err
	}
	return line.UnitsAvailable, nil
}

// SetInventoryStatus stores the derived status label of a line.
func (r *GormRepository) SetInventoryStatus(ctx context.Context, bloodGroup, status string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	return r.db.WithContext(ctx).Model(&entity.DbInventory{}).
		Where("blood_group = ?", bloodGroup).
		Update("status", status).Error
}
