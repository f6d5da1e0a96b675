package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bloodbank/internal/config"
	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	repo      model.Repository
	metrics   *metrics.Metrics
	inventory *InventoryService
	donations *DonationService
	donors    *DonorService
	requests  *RequestService
	stats     *StatsService
}

func newTestEnv(t *testing.T, ids IDGenerator) *testEnv {
	t.Helper()
	cfg := &config.Config{DBType: model.DBTypeSQLite, DBPath: filepath.Join(t.TempDir(), "bloodbank.db")}
	repo, err := model.NewRepositoryFactory().CreateRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, model.SeedInventory(context.Background(), repo, entity.DefaultInventoryThresholds, testNow))

	m := metrics.New(prometheus.NewRegistry())
	inventory := NewInventoryService(repo, entity.DefaultInventoryThresholds, m)
	donations := NewDonationService(repo, inventory, ids, m)
	return &testEnv{
		repo:      repo,
		metrics:   m,
		inventory: inventory,
		donations: donations,
		donors:    NewDonorService(repo, donations, ids, m),
		requests:  NewRequestService(repo, inventory, ids, m),
		stats:     NewStatsService(repo, entity.DefaultInventoryThresholds, m, 4, time.Minute),
	}
}

func ctxAs(role string) context.Context {
	ctx := reqctx.WithNow(context.Background(), testNow)
	if role == "" {
		return ctx
	}
	return reqctx.WithIdentity(ctx, reqctx.Identity{
		UserID: 1,
		Name:   "Test " + role,
		Email:  role + "@example.com",
		Role:   role,
	})
}

func adminCtx() context.Context { return ctxAs(entity.UserRoleAdmin) }
func staffCtx() context.Context { return ctxAs(entity.UserRoleStaff) }

var phoneSeq struct {
	sync.Mutex
	n int
}

func nextPhone() string {
	phoneSeq.Lock()
	defer phoneSeq.Unlock()
	phoneSeq.n++
	return fmt.Sprintf("+91-90000%05d", phoneSeq.n)
}

func (e *testEnv) registerDonor(t *testing.T, group, dob string) *entity.DbDonor {
	t.Helper()
	reg, err := e.donors.Register(staffCtx(), entity.DonorCreateRequest{
		Name:        "Donor " + group,
		DateOfBirth: dob,
		Gender:      "Female",
		BloodGroup:  group,
		City:        "Pune",
		Phone:       nextPhone(),
	})
	require.NoError(t, err)
	return reg.Donor
}

func (e *testEnv) setStock(t *testing.T, group string, units int) {
	t.Helper()
	line, err := e.repo.GetInventory(context.Background(), group)
	require.NoError(t, err)
	delta := units - line.UnitsAvailable
	if delta == 0 {
		return
	}
	action := entity.StockActionAdd
	if delta < 0 {
		action, delta = entity.StockActionRemove, -delta
	}
	_, err = e.inventory.AdjustStock(adminCtx(), entity.StockUpdateRequest{BloodGroup: group, Units: delta, Action: action})
	require.NoError(t, err)
}

func (e *testEnv) stock(t *testing.T, group string) *entity.DbInventory {
	t.Helper()
	line, err := e.repo.GetInventory(context.Background(), group)
	require.NoError(t, err)
	return line
}

// stubIDs replays fixed candidate lists; the last entry repeats when exhausted.
type stubIDs struct {
	mu        sync.Mutex
	donors    int
	requests  int
	donations []string
	next      int
}

func (s *stubIDs) DonorID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.donors++
	return fmt.Sprintf("DON%08d", s.donors)
}

func (s *stubIDs) RequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	return fmt.Sprintf("REQ%08d", s.requests)
}

func (s *stubIDs) DonationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.donations[min(s.next, len(s.donations)-1)]
	s.next++
	return id
}
