package service

import (
	"context"
	"errors"
	"time"

	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InventoryService owns every change to units_available. All mutation sites
// (donations, manual corrections, request fulfilment) go through applyDelta
// so the stored status always equals thresholds.StatusFor(units).
type InventoryService struct {
	repo       model.Repository
	thresholds entity.InventoryThresholds
	metrics    *metrics.Metrics
}

func NewInventoryService(repo model.Repository, thresholds entity.InventoryThresholds, m *metrics.Metrics) *InventoryService {
	return &InventoryService{repo: repo, thresholds: thresholds, metrics: m}
}

// Thresholds exposes the active status thresholds.
func (s *InventoryService) Thresholds() entity.InventoryThresholds {
	return s.thresholds
}

// List returns the eight lines in clinical order plus units expiring within
// the next seven days.
func (s *InventoryService) List(ctx context.Context) (*entity.InventoryView, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	lines, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, unavailable("list inventory", err)
	}
	today := entity.DateOnly(reqctx.Now(ctx))
	expiring, err := s.repo.ExpiringDonations(ctx, today, today.AddDate(0, 0, entity.ExpiringWindowDays))
	if err != nil {
		return nil, unavailable("list expiring units", err)
	}
	return &entity.InventoryView{Lines: lines, ExpiringSoon: expiring}, nil
}

// AdjustStock is the admin correction: add or remove units of one group.
// A removal larger than the stock fails with InsufficientStockError and
// leaves the line untouched.
func (s *InventoryService) AdjustStock(ctx context.Context, req entity.StockUpdateRequest) (*entity.StockUpdateResponse, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	group := entity.NormalizeBloodGroup(req.BloodGroup)
	if group == "" {
		return nil, invalid("blood_group", "must be one of %v", entity.BloodGroups)
	}
	if req.Units <= 0 {
		return nil, invalid("units", "must be a positive integer")
	}
	if req.Units > entity.MaxStockAdjustment {
		return nil, invalid("units", "must not exceed %d per adjustment", entity.MaxStockAdjustment)
	}
	action := entity.NormalizeStockAction(req.Action)
	if action == "" {
		return nil, invalid("action", "must be add or remove")
	}
	delta := req.Units
	if action == entity.StockActionRemove {
		delta = -delta
	}

	now := reqctx.Now(ctx).UTC()
	var line *entity.DbInventory
	err = s.repo.Transaction(ctx, func(tx model.Repository) error {
		var applyErr error
		line, applyErr = s.applyDelta(ctx, tx, group, delta, now)
		return applyErr
	})
	if err != nil {
		s.metrics.StockAdjusted(action, resultLabel(err))
		log := logrus.WithError(err).WithFields(logrus.Fields{
			"blood_group": group, "units": req.Units, "action": action, "user_id": identity.UserID,
		})
		if errors.Is(err, ErrStoreUnavailable) {
			log.Error("stock adjustment failed")
		} else {
			log.Warn("stock adjustment rejected")
		}
		return nil, err
	}

	s.metrics.StockAdjusted(action, "ok")
	s.metrics.InventoryLevel(line.BloodGroup, line.UnitsAvailable)
	logrus.WithFields(logrus.Fields{
		"blood_group": group, "delta": delta, "units_available": line.UnitsAvailable,
		"status": line.Status, "user_id": identity.UserID,
	}).Info("stock adjusted")

	return &entity.StockUpdateResponse{
		Success:        true,
		BloodGroup:     line.BloodGroup,
		UnitsAvailable: line.UnitsAvailable,
		Status:         line.Status,
	}, nil
}

// applyDelta changes one line inside tx and recomputes its status. It must
// only be called from within a Transaction callback with that callback's tx.
func (s *InventoryService) applyDelta(ctx context.Context, tx model.Repository, group string, delta int, now time.Time) (*entity.DbInventory, error) {
	units, err := tx.AddInventoryUnits(ctx, group, delta, now)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrStockGuard):
			available := 0
			if line, getErr := tx.GetInventory(ctx, group); getErr == nil {
				available = line.UnitsAvailable
			}
			return nil, &InsufficientStockError{BloodGroup: group, Requested: -delta, Available: available}
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, &NotFoundError{Resource: "inventory", ID: group}
		default:
			return nil, unavailable("update inventory", err)
		}
	}

	status := s.thresholds.StatusFor(units)
	if err := tx.SetInventoryStatus(ctx, group, status); err != nil {
		return nil, unavailable("update inventory status", err)
	}
	return &entity.DbInventory{BloodGroup: group, UnitsAvailable: units, Status: status, LastUpdated: now}, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
