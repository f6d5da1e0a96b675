package sql

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bloodbank/internal/entity"

	"gorm.io/gorm"
)

// CountDonors counts all donors, or only eligible ones.
func (r *GormRepository) CountDonors(ctx context.Context, eligibleOnly bool) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Model(&entity.DbDonor{})
	if eligibleOnly {
		query = query.Where("eligible = ?", true)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumPassedUnits totals units of every donation that passed testing.
func (r *GormRepository) SumPassedUnits(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.DbDonation{}).
		Where("test_result = ?", entity.TestResultPassed).
		Select("COALESCE(SUM(units_donated), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormRepository) CountBloodRequests(ctx context.Context, status string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	query := r.db.WithContext(ctx).Model(&entity.DbBloodRequest{})
	if status != "" {
		query = query.Where("request_status = ?", status)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// monthExpression renders donation_date as YYYY-MM in the active dialect.
func (r *GormRepository) monthExpression() string {
	switch strings.ToLower(r.dialect()) {
	case "mysql":
		return "DATE_FORMAT(donation_date, '%Y-%m')"
	case "postgres":
		return "to_char(donation_date, 'YYYY-MM')"
	default:
		return "strftime('%Y-%m', donation_date)"
	}
}

// MonthlyDonations sums passed units per month from since onwards.
func (r *GormRepository) MonthlyDonations(ctx context.Context, since time.Time) ([]entity.MonthlyUnits, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	month := r.monthExpression()
	var rows []entity.MonthlyUnits
	err := r.db.WithContext(ctx).Model(&entity.DbDonation{}).
		Select(month+" AS month, COUNT(*) AS donations, COALESCE(SUM(units_donated), 0) AS units").
		Where("test_result = ?", entity.TestResultPassed).
		Where("donation_date >= ?", entity.DateOnly(since)).
		Group(month).
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DonorGroupDistribution counts donors per blood group in clinical order.
func (r *GormRepository) DonorGroupDistribution(ctx context.Context) ([]entity.GroupCount, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var rows []entity.GroupCount
	err := r.db.WithContext(ctx).Model(&entity.DbDonor{}).
		Select("blood_group, COUNT(*) AS count").
		Group("blood_group").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return entity.BloodGroupRank(rows[i].BloodGroup) < entity.BloodGroupRank(rows[j].BloodGroup)
	})
	return rows, nil
}

// OrphanDonationIDs lists donations whose donor row is missing.
func (r *GormRepository) OrphanDonationIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	donors := r.db.WithContext(ctx).Model(&entity.DbDonor{}).Select("donor_id")
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.DbDonation{}).
		Where("donor_id NOT IN (?)", donors).
		Order("donation_id").
		Pluck("donation_id", &ids).Error
	return ids, err
}

// InvalidGroupDonationIDs lists donations carrying an unknown blood group.
func (r *GormRepository) InvalidGroupDonationIDs(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.DbDonation{}).
		Where("blood_group NOT IN ?", entity.BloodGroups).
		Order("donation_id").
		Pluck("donation_id", &ids).Error
	return ids, err
}

// EligibleDonorsDonatedAfter lists eligible donors whose last donation is
// later than since.
func (r *GormRepository) EligibleDonorsDonatedAfter(ctx context.Context, since time.Time) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.DbDonor{}).
		Where("eligible = ?", true).
		Where("last_donation_date IS NOT NULL AND last_donation_date > ?", entity.DateOnly(since)).
		Order("donor_id").
		Pluck("donor_id", &ids).Error
	return ids, err
}

// ExportSnapshot reads every backed-up table inside one read transaction.
func (r *GormRepository) ExportSnapshot(ctx context.Context) (*entity.Snapshot, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	snapshot := &entity.Snapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id ASC").Find(&snapshot.Donors).Error; err != nil {
			return fmt.Errorf("export donors: %w", err)
		}
		if err := tx.Order("id ASC").Find(&snapshot.Donations).Error; err != nil {
			return fmt.Errorf("export donations: %w", err)
		}
		if err := tx.Order("id ASC").Find(&snapshot.Inventory).Error; err != nil {
			return fmt.Errorf("export inventory: %w", err)
		}
		if err := tx.Order("id ASC").Find(&snapshot.Requests).Error; err != nil {
			return fmt.Errorf("export requests: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
