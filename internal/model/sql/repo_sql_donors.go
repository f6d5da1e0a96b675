package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/entity"

	"gorm.io/gorm"
)

// CreateDonor inserts a donor. Unique violations surface as gorm.ErrDuplicatedKey.
func (r *GormRepository) CreateDonor(ctx context.Context, donor *entity.DbDonor) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if donor == nil {
		return fmt.Errorf("donor is nil")
	}
	return r.db.WithContext(ctx).Create(donor).Error
}

// GetDonor loads a donor by its public donor_id.
func (r *GormRepository) GetDonor(ctx context.Context, donorID string) (*entity.DbDonor, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(donorID)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var donor entity.DbDonor
	if err := r.db.WithContext(ctx).Where("donor_id = ?", trimmed).First(&donor).Error; err != nil {
		return nil, err
	}
	return &donor, nil
}

// DonorExists reports whether donorID is taken.
func (r *GormRepository) DonorExists(ctx context.Context, donorID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbDonor{}).Where("donor_id = ?", donorID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindDonorConflict returns the name of the first unique contact field
// (phone, email) already used by a donor other than excludeDonorID.
func (r *GormRepository) FindDonorConflict(ctx context.Context, phone string, email *string, excludeDonorID string) (string, error) {
	if r == nil || r.db == nil {
		return "", fmt.Errorf("repository not initialised")
	}
	check := func(column string, value string) (bool, error) {
		query := r.db.WithContext(ctx).Model(&entity.DbDonor{}).Where(column+" = ?", value)
		if excludeDonorID != "" {
			query = query.Where("donor_id <> ?", excludeDonorID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}

	if phone != "" {
		taken, err := check("phone", phone)
		if err != nil {
			return "", err
		}
		if taken {
			return "phone", nil
		}
	}
	if email != nil && *email != "" {
		taken, err := check("email", *email)
		if err != nil {
			return "", err
		}
		if taken {
			return "email", nil
		}
	}
	return "", nil
}

// UpdateDonor applies updates to the donor identified by donorID.
func (r *GormRepository) UpdateDonor(ctx context.Context, donorID string, updates entity.DonorUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if updates.IsEmpty() {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entity.DbDonor{}).Where("donor_id = ?", donorID).Updates(updates.ToMap())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastDonation moves last_donation_date forward to date. Older dates
// (back-filled donations) leave the newer value in place.
func (r *GormRepository) TouchLastDonation(ctx context.Context, donorID string, date time.Time) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	donor, err := r.GetDonor(ctx, donorID)
	if err != nil {
		return err
	}
	if donor.LastDonationDate != nil && !donor.LastDonationDate.Before(date) {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbDonor{}).
		Where("donor_id = ?", donorID).
		Update("last_donation_date", date).Error
}

// ListDonors returns a filtered page of donors, newest first.
func (r *GormRepository) ListDonors(ctx context.Context, params *entity.DonorQuery) ([]entity.DbDonor, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil {
		params = &entity.DonorQuery{}
	}

	query := r.db.WithContext(ctx).Model(&entity.DbDonor{})
	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(donor_id) LIKE ? OR phone LIKE ?", like, like, "%"+search+"%")
	}
	if group := entity.NormalizeBloodGroup(params.BloodGroup); group != "" {
		query = query.Where("blood_group = ?", group)
	}
	if city := strings.TrimSpace(params.City); city != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(city)+"%")
	}
	if params.Eligible != nil {
		query = query.Where("eligible = ?", *params.Eligible)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	paged, page := r.paginate(query, &params.BaseParams)
	var donors []entity.DbDonor
	if err := paged.Order("created_at DESC").Order("id DESC").Find(&donors).Error; err != nil {
		return nil, nil, err
	}
	return donors, r.calculatePagination(total, page), nil
}

// ListEligibleDonors returns eligible donors of one group, most rested first.
// Donors who never donated sort ahead of everyone else.
func (r *GormRepository) ListEligibleDonors(ctx context.Context, params entity.EligibleDonorQuery) ([]entity.DbDonor, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	group := entity.NormalizeBloodGroup(params.BloodGroup)
	if group == "" {
		return nil, errors.New("blood group is required")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbDonor{}).
		Where("eligible = ?", true).
		Where("blood_group = ?", group)
	if city := strings.TrimSpace(params.City); city != "" {
		query = query.Where("LOWER(city) LIKE ?", "%"+strings.ToLower(city)+"%")
	}
	limit := params.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = 50
	}

	var donors []entity.DbDonor
	err := query.
		Order("CASE WHEN last_donation_date IS NULL THEN 0 ELSE 1 END").
		Order("last_donation_date ASC").
		Order("donor_id ASC").
		Limit(limit).
		Find(&donors).Error
	if err != nil {
		return nil, err
	}
	return donors, nil
}
