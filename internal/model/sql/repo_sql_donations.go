package sql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bloodbank/internal/entity"

	"gorm.io/gorm"
)

// CreateDonation inserts an immutable donation row.
func (r *GormRepository) CreateDonation(ctx context.Context, donation *entity.DbDonation) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if donation == nil {
		return fmt.Errorf("donation is nil")
	}
	return r.db.WithContext(ctx).Create(donation).Error
}

// GetDonation loads a donation by its public id.
func (r *GormRepository) GetDonation(ctx context.Context, donationID string) (*entity.DbDonation, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var donation entity.DbDonation
	if err := r.db.WithContext(ctx).Where("donation_id = ?", strings.TrimSpace(donationID)).First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *GormRepository) DonationExists(ctx context.Context, donationID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbDonation{}).Where("donation_id = ?", donationID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateDonation changes the mutable test_result/notes columns only.
func (r *GormRepository) UpdateDonation(ctx context.Context, donationID string, updates entity.DonationUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if updates.IsEmpty() {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entity.DbDonation{}).Where("donation_id = ?", donationID).Updates(updates.ToMap())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SyncDonationSnapshots rewrites the donor_name/blood_group snapshot on every
// donation of donorID and returns the number of rows touched.
func (r *GormRepository) SyncDonationSnapshots(ctx context.Context, donorID, donorName, bloodGroup string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(donorID) == "" {
		return 0, fmt.Errorf("donor id is empty")
	}
	result := r.db.WithContext(ctx).Model(&entity.DbDonation{}).
		Where("donor_id = ?", donorID).
		Updates(map[string]interface{}{
			"donor_name":  donorName,
			"blood_group": bloodGroup,
		})
	return result.RowsAffected, result.Error
}

// ListDonationsByDonor returns the donor's history, newest first.
func (r *GormRepository) ListDonationsByDonor(ctx context.Context, donorID string) ([]entity.DbDonation, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var donations []entity.DbDonation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("donation_date DESC").Order("id DESC").
		Find(&donations).Error
	return donations, err
}

// ListDonations returns a filtered page of donation history, newest first.
func (r *GormRepository) ListDonations(ctx context.Context, params *entity.DonationQuery) ([]entity.DbDonation, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil {
		params = &entity.DonationQuery{}
	}

	query := r.db.WithContext(ctx).Model(&entity.DbDonation{})
	if donorID := strings.TrimSpace(params.DonorID); donorID != "" {
		query = query.Where("donor_id = ?", donorID)
	}
	if group := entity.NormalizeBloodGroup(params.BloodGroup); group != "" {
		query = query.Where("blood_group = ?", group)
	}
	if result := entity.NormalizeTestResult(params.TestResult); result != "" {
		query = query.Where("test_result = ?", result)
	}
	if params.FromDate != nil {
		query = query.Where("donation_date >= ?", entity.DateOnly(*params.FromDate))
	}
	if params.ToDate != nil {
		query = query.Where("donation_date <= ?", entity.DateOnly(*params.ToDate))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	paged, page := r.paginate(query, &params.BaseParams)
	var donations []entity.DbDonation
	if err := paged.Order("donation_date DESC").Order("id DESC").Find(&donations).Error; err != nil {
		return nil, nil, err
	}
	return donations, r.calculatePagination(total, page), nil
}

// RecentDonations returns the latest limit donations.
func (r *GormRepository) RecentDonations(ctx context.Context, limit int) ([]entity.DbDonation, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if limit <= 0 {
		limit = 5
	}
	var donations []entity.DbDonation
	err := r.db.WithContext(ctx).Order("donation_date DESC").Order("id DESC").Limit(limit).Find(&donations).Error
	return donations, err
}

// ExpiringDonations groups units with expiry_date in [from, to] by blood
// group. Failed units are excluded.
func (r *GormRepository) ExpiringDonations(ctx context.Context, from, to time.Time) ([]entity.ExpiringGroup, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var rows []entity.DbDonation
	err := r.db.WithContext(ctx).
		Select("blood_group", "units_donated", "expiry_date").
		Where("expiry_date >= ? AND expiry_date <= ?", entity.DateOnly(from), entity.DateOnly(to)).
		Where("test_result <> ?", entity.TestResultFailed).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string]*entity.ExpiringGroup)
	for _, row := range rows {
		group, ok := byGroup[row.BloodGroup]
		if !ok {
			group = &entity.ExpiringGroup{BloodGroup: row.BloodGroup, EarliestExpiry: row.ExpiryDate}
			byGroup[row.BloodGroup] = group
		}
		group.Donations++
		group.Units += int64(row.UnitsDonated)
		if row.ExpiryDate.Before(group.EarliestExpiry) {
			group.EarliestExpiry = row.ExpiryDate
		}
	}

	out := make([]entity.ExpiringGroup, 0, len(byGroup))
	for _, bg := range entity.BloodGroups {
		if group, ok := byGroup[bg]; ok {
			out = append(out, *group)
		}
	}
	return out, nil
}
