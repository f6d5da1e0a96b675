package service

import (
	"context"
	"time"

	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	recentDonationLimit = 5
	monthlyWindow       = 6
)

// StatsService builds the dashboard and the integrity report. Dashboard
// results are cached for a short TTL; readers may see slightly stale numbers.
type StatsService struct {
	repo       model.Repository
	thresholds entity.InventoryThresholds
	metrics    *metrics.Metrics
	cache      *expirable.LRU[string, *entity.Statistics]
}

// NewStatsService creates the service. ttl <= 0 disables caching.
func NewStatsService(repo model.Repository, thresholds entity.InventoryThresholds, m *metrics.Metrics, size int, ttl time.Duration) *StatsService {
	s := &StatsService{repo: repo, thresholds: thresholds, metrics: m}
	if ttl > 0 {
		if size <= 0 {
			size = 1
		}
		s.cache = expirable.NewLRU[string, *entity.Statistics](size, nil, ttl)
	}
	return s
}

// Dashboard returns the aggregate statistics for the current day.
func (s *StatsService) Dashboard(ctx context.Context) (*entity.Statistics, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	now := reqctx.Now(ctx).UTC()
	key := "dashboard:" + now.Format(entity.DateLayout)

	if s.cache != nil {
		if stats, ok := s.cache.Get(key); ok {
			s.metrics.CacheLookup(true)
			return stats, nil
		}
		s.metrics.CacheLookup(false)
	}

	stats, err := s.collect(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("build dashboard failed")
		return nil, unavailable("build dashboard", err)
	}
	if s.cache != nil {
		s.cache.Add(key, stats)
	}
	return stats, nil
}

func (s *StatsService) collect(ctx context.Context, now time.Time) (*entity.Statistics, error) {
	stats := &entity.Statistics{GeneratedAt: now}
	today := entity.DateOnly(now)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := monthStart.AddDate(0, -(monthlyWindow - 1), 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalDonors, err = s.repo.CountDonors(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		stats.EligibleDonors, err = s.repo.CountDonors(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUnitsDonated, err = s.repo.SumPassedUnits(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingRequests, err = s.repo.CountBloodRequests(gctx, entity.RequestStatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.Inventory, err = s.repo.ListInventory(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentDonations, err = s.repo.RecentDonations(gctx, recentDonationLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.ExpiringSoon, err = s.repo.ExpiringDonations(gctx, today, today.AddDate(0, 0, entity.ExpiringWindowDays))
		return err
	})
	g.Go(func() (err error) {
		stats.MonthlyDonations, err = s.repo.MonthlyDonations(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		stats.GroupDistribution, err = s.repo.DonorGroupDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, line := range stats.Inventory {
		stats.TotalUnitsInStock += int64(line.UnitsAvailable)
		switch line.Status {
		case entity.InventoryStatusCritical, entity.InventoryStatusLow:
			stats.LowStockGroups++
		}
	}
	return stats, nil
}

// HealthReport runs the integrity checks. Admin only.
func (s *StatsService) HealthReport(ctx context.Context) (*entity.HealthReport, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	now := reqctx.Now(ctx).UTC()
	report := &entity.HealthReport{CheckedAt: now}
	intervalStart := entity.DateOnly(now).AddDate(0, 0, -entity.DonationIntervalDays)

	var lines []entity.DbInventory
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.OrphanDonations, err = s.repo.OrphanDonationIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.InvalidBloodGroups, err = s.repo.InvalidGroupDonationIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		report.TooSoonButEligible, err = s.repo.EligibleDonorsDonatedAfter(gctx, intervalStart)
		return err
	})
	g.Go(func() (err error) {
		lines, err = s.repo.ListInventory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("health report failed")
		return nil, unavailable("health report", err)
	}

	report.StatusMismatches = []entity.StatusMismatch{}
	for _, line := range lines {
		if expected := s.thresholds.StatusFor(line.UnitsAvailable); expected != line.Status {
			report.StatusMismatches = append(report.StatusMismatches, entity.StatusMismatch{
				BloodGroup:     line.BloodGroup,
				UnitsAvailable: line.UnitsAvailable,
				StoredStatus:   line.Status,
				ExpectedStatus: expected,
			})
		}
	}
	report.Healthy = len(report.OrphanDonations) == 0 && len(report.InvalidBloodGroups) == 0 &&
		len(report.TooSoonButEligible) == 0 && len(report.StatusMismatches) == 0

	if !report.Healthy {
		logrus.WithFields(logrus.Fields{
			"orphans":           len(report.OrphanDonations),
			"invalid_groups":    len(report.InvalidBloodGroups),
			"too_soon":          len(report.TooSoonButEligible),
			"status_mismatches": len(report.StatusMismatches),
		}).Warn("data integrity issues found")
	}
	return report, nil
}
