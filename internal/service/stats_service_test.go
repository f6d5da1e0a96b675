package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bloodbank/internal/entity"
	"bloodbank/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	env.setStock(t, entity.BloodGroupAPos, 30)
	donor := env.registerDonor(t, entity.BloodGroupONeg, "1990-01-01")
	env.registerDonor(t, entity.BloodGroupONeg, "2010-01-01")

	// 2024-04-22 的献血在 2024-06-03 过期，落在 7 天窗口内
	old, err := env.donations.Record(staffCtx(), entity.DonationCreateRequest{DonorID: donor.DonorID, UnitsDonated: 2, DonationDate: "2024-04-22"})
	require.NoError(t, err)
	passed := entity.TestResultPassed
	_, err = env.donations.UpdateTestResult(staffCtx(), old.DonationID, entity.DonationUpdateRequest{TestResult: &passed})
	require.NoError(t, err)
	_, err = env.donations.Record(staffCtx(), entity.DonationCreateRequest{DonorID: donor.DonorID, UnitsDonated: 1})
	require.NoError(t, err)
	newRequest(t, env, "A+", 3)

	stats, err := env.stats.Dashboard(ctxAs(entity.UserRoleViewer))
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalDonors)
	assert.EqualValues(t, 1, stats.EligibleDonors)
	assert.EqualValues(t, 2, stats.TotalUnitsDonated)
	assert.EqualValues(t, 33, stats.TotalUnitsInStock)
	assert.EqualValues(t, 7, stats.LowStockGroups)
	assert.EqualValues(t, 1, stats.PendingRequests)
	assert.Len(t, stats.RecentDonations, 2)
	require.Len(t, stats.ExpiringSoon, 1)
	assert.Equal(t, entity.BloodGroupONeg, stats.ExpiringSoon[0].BloodGroup)
	assert.EqualValues(t, 2, stats.ExpiringSoon[0].Units)
	require.Len(t, stats.MonthlyDonations, 1)
	assert.Equal(t, "2024-04", stats.MonthlyDonations[0].Month)
	assert.EqualValues(t, 2, stats.MonthlyDonations[0].Units)

	cached, err := env.stats.Dashboard(staffCtx())
	require.NoError(t, err)
	assert.Same(t, stats, cached)
}

func TestDashboardWithoutCache(t *testing.T) {
	env := newTestEnv(t, nil)
	stats := NewStatsService(env.repo, entity.DefaultInventoryThresholds, env.metrics, 0, 0)
	first, err := stats.Dashboard(staffCtx())
	require.NoError(t, err)
	second, err := stats.Dashboard(staffCtx())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.EqualValues(t, 8, first.LowStockGroups)
}

func TestHealthReport(t *testing.T) {
	env := newTestEnv(t, nil)
	donor := env.registerDonor(t, entity.BloodGroupOPos, "1990-01-01")
	_, err := env.donations.Record(staffCtx(), entity.DonationCreateRequest{DonorID: donor.DonorID, UnitsDonated: 1, DonationDate: "2024-01-02"})
	require.NoError(t, err)

	report, err := env.stats.HealthReport(adminCtx())
	require.NoError(t, err)
	assert.True(t, report.Healthy)
	assert.Empty(t, report.StatusMismatches)

	_, err = env.donations.Record(staffCtx(), entity.DonationCreateRequest{DonorID: donor.DonorID, UnitsDonated: 1, DonationDate: "2024-05-25"})
	require.NoError(t, err)
	require.NoError(t, env.repo.SetInventoryStatus(adminCtx(), entity.BloodGroupABNeg, entity.InventoryStatusFull))

	report, err = env.stats.HealthReport(adminCtx())
	require.NoError(t, err)
	assert.False(t, report.Healthy)
	assert.Equal(t, []string{donor.DonorID}, report.TooSoonButEligible)
	require.Len(t, report.StatusMismatches, 1)
	assert.Equal(t, entity.BloodGroupABNeg, report.StatusMismatches[0].BloodGroup)
	assert.Equal(t, entity.InventoryStatusCritical, report.StatusMismatches[0].ExpectedStatus)

	_, err = env.stats.HealthReport(staffCtx())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBackupCreate(t *testing.T) {
	env := newTestEnv(t, nil)
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	backups := NewBackupService(env.repo, store)
	donor := env.registerDonor(t, entity.BloodGroupANeg, "1990-01-01")

	result, err := backups.Create(adminCtx())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "backups/2024/06/01/"), result.Key)
	assert.Equal(t, 1, result.Donors)

	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	var snapshot entity.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	assert.Equal(t, 1, snapshot.Version)
	assert.Equal(t, "admin@example.com", snapshot.CreatedBy)
	require.Len(t, snapshot.Donors, 1)
	assert.Equal(t, donor.DonorID, snapshot.Donors[0].DonorID)
	assert.Len(t, snapshot.Inventory, len(entity.BloodGroups))

	_, err = backups.Create(adminCtx())
	assert.ErrorIs(t, err, ErrConflict)
	_, err = backups.Create(staffCtx())
	assert.ErrorIs(t, err, ErrForbidden)
}
