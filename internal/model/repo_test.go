package model

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bloodbank/internal/config"
	"bloodbank/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestRepo(t *testing.T) Repository {
	t.Helper()
	repo, err := NewRepositoryFactory().CreateRepository(&config.Config{
		DBType: DBTypeSQLite,
		DBPath: filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSeedInventoryIsIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, SeedInventory(ctx, repo, entity.DefaultInventoryThresholds, now))
	_, err := repo.AddInventoryUnits(ctx, entity.BloodGroupOPos, 7, now)
	require.NoError(t, err)
	require.NoError(t, SeedInventory(ctx, repo, entity.DefaultInventoryThresholds, now))

	lines, err := repo.ListInventory(ctx)
	require.NoError(t, err)
	require.Len(t, lines, len(entity.BloodGroups))
	for i, line := range lines {
		assert.Equal(t, entity.BloodGroups[i], line.BloodGroup)
	}
	line, err := repo.GetInventory(ctx, entity.BloodGroupOPos)
	require.NoError(t, err)
	assert.Equal(t, 7, line.UnitsAvailable)
}

func TestAddInventoryUnitsGuard(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SeedInventory(ctx, repo, entity.DefaultInventoryThresholds, now))

	units, err := repo.AddInventoryUnits(ctx, entity.BloodGroupANeg, 3, now)
	require.NoError(t, err)
	assert.Equal(t, 3, units)

	_, err = repo.AddInventoryUnits(ctx, entity.BloodGroupANeg, -4, now)
	assert.ErrorIs(t, err, ErrStockGuard)

	units, err = repo.AddInventoryUnits(ctx, entity.BloodGroupANeg, -3, now)
	require.NoError(t, err)
	assert.Equal(t, 0, units)

	_, err = repo.AddInventoryUnits(ctx, "X+", 1, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SeedInventory(ctx, repo, entity.DefaultInventoryThresholds, now))

	err := repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.AddInventoryUnits(ctx, entity.BloodGroupBPos, 5, now); err != nil {
			return err
		}
		_, err := tx.AddInventoryUnits(ctx, entity.BloodGroupBNeg, -1, now)
		return err
	})
	require.ErrorIs(t, err, ErrStockGuard)

	line, err := repo.GetInventory(ctx, entity.BloodGroupBPos)
	require.NoError(t, err)
	assert.Equal(t, 0, line.UnitsAvailable)
}

func TestExpiringDonationsSkipsFailed(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := []entity.DbDonation{
		{DonationID: "DONATION00000001", DonorID: "DON1", DonorName: "a", BloodGroup: "O+", UnitsDonated: 1, DonationType: entity.DonationTypeWholeBlood, DonationDate: today.AddDate(0, 0, -40), ExpiryDate: today.AddDate(0, 0, 2), TestResult: entity.TestResultPassed},
		{DonationID: "DONATION00000002", DonorID: "DON1", DonorName: "a", BloodGroup: "O+", UnitsDonated: 2, DonationType: entity.DonationTypeWholeBlood, DonationDate: today.AddDate(0, 0, -36), ExpiryDate: today.AddDate(0, 0, 6), TestResult: entity.TestResultPending},
		{DonationID: "DONATION00000003", DonorID: "DON2", DonorName: "b", BloodGroup: "O-", UnitsDonated: 1, DonationType: entity.DonationTypeWholeBlood, DonationDate: today.AddDate(0, 0, -40), ExpiryDate: today.AddDate(0, 0, 2), TestResult: entity.TestResultFailed},
		{DonationID: "DONATION00000004", DonorID: "DON2", DonorName: "b", BloodGroup: "A+", UnitsDonated: 1, DonationType: entity.DonationTypeWholeBlood, DonationDate: today.AddDate(0, 0, -10), ExpiryDate: today.AddDate(0, 0, 32), TestResult: entity.TestResultPassed},
	}
	for i := range rows {
		require.NoError(t, repo.CreateDonation(ctx, &rows[i]))
	}

	groups, err := repo.ExpiringDonations(ctx, today, today.AddDate(0, 0, entity.ExpiringWindowDays))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, entity.BloodGroupOPos, groups[0].BloodGroup)
	assert.EqualValues(t, 2, groups[0].Donations)
	assert.EqualValues(t, 3, groups[0].Units)
	assert.True(t, groups[0].EarliestExpiry.Equal(today.AddDate(0, 0, 2)))

	orphans, err := repo.OrphanDonationIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, orphans, 4)
}

func TestFindDonorConflict(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	email := "x@example.com"
	donor := &entity.DbDonor{
		DonorID: "DON00000001", Name: "X", DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Age: 34, Gender: entity.GenderMale, BloodGroup: "B+", City: "Pune", Phone: "111", Email: &email, Eligible: true,
	}
	require.NoError(t, repo.CreateDonor(ctx, donor))

	field, err := repo.FindDonorConflict(ctx, "111", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "phone", field)

	field, err = repo.FindDonorConflict(ctx, "222", &email, "")
	require.NoError(t, err)
	assert.Equal(t, "email", field)

	field, err = repo.FindDonorConflict(ctx, "111", &email, donor.DonorID)
	require.NoError(t, err)
	assert.Empty(t, field)

	dup := *donor
	dup.ID = 0
	dup.DonorID = "DON00000002"
	dup.Email = nil
	assert.ErrorIs(t, repo.CreateDonor(ctx, &dup), gorm.ErrDuplicatedKey)
}

func TestListEligibleDonorsOrdering(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	donors := []entity.DbDonor{
		{DonorID: "DON00000004", Name: "Aarav", Phone: "104", LastDonationDate: &recent},
		{DonorID: "DON00000003", Name: "Bela", Phone: "103", LastDonationDate: &older},
		{DonorID: "DON00000002", Name: "Zoya", Phone: "102"},
		{DonorID: "DON00000001", Name: "Yash", Phone: "101"},
		{DonorID: "DON00000005", Name: "Cyrus", Phone: "105", Eligible: false},
	}
	for i := range donors {
		d := donors[i]
		d.DateOfBirth, d.Age, d.Gender, d.BloodGroup, d.City = dob, 34, entity.GenderMale, entity.BloodGroupBNeg, "Pune"
		d.Eligible = d.DonorID != "DON00000005"
		require.NoError(t, repo.CreateDonor(ctx, &d))
	}

	got, err := repo.ListEligibleDonors(ctx, entity.EligibleDonorQuery{BloodGroup: "B-"})
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, d := range got {
		ids = append(ids, d.DonorID)
	}
	// 从未献血者优先，同为空时按 donor_id 排序
	assert.Equal(t, []string{"DON00000001", "DON00000002", "DON00000003", "DON00000004"}, ids)
}

// The guard lives in the UPDATE itself: a caller acting on a stale read of
// the line is still refused once another removal has drained it.
func TestAddInventoryUnitsGuardIgnoresStaleReads(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, SeedInventory(ctx, repo, entity.DefaultInventoryThresholds, now))
	_, err := repo.AddInventoryUnits(ctx, entity.BloodGroupBPos, 1, now)
	require.NoError(t, err)

	first, err := repo.GetInventory(ctx, entity.BloodGroupBPos)
	require.NoError(t, err)
	second, err := repo.GetInventory(ctx, entity.BloodGroupBPos)
	require.NoError(t, err)
	require.Equal(t, 1, first.UnitsAvailable)
	require.Equal(t, 1, second.UnitsAvailable)

	units, err := repo.AddInventoryUnits(ctx, entity.BloodGroupBPos, -first.UnitsAvailable, now)
	require.NoError(t, err)
	assert.Equal(t, 0, units)

	_, err = repo.AddInventoryUnits(ctx, entity.BloodGroupBPos, -second.UnitsAvailable, now)
	assert.ErrorIs(t, err, ErrStockGuard)

	line, err := repo.GetInventory(ctx, entity.BloodGroupBPos)
	require.NoError(t, err)
	assert.Equal(t, 0, line.UnitsAvailable)
}
