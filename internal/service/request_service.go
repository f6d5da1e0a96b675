package service

import (
	"context"
	"errors"
	"strings"

	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RequestService manages hospital blood requests. Fulfilment draws stock
// through the inventory service so the same guard applies.
type RequestService struct {
	repo      model.Repository
	inventory *InventoryService
	ids       IDGenerator
	metrics   *metrics.Metrics
}

func NewRequestService(repo model.Repository, inventory *InventoryService, ids IDGenerator, m *metrics.Metrics) *RequestService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &RequestService{repo: repo, inventory: inventory, ids: ids, metrics: m}
}

func (s *RequestService) Create(ctx context.Context, req entity.BloodRequestCreateRequest) (*entity.DbBloodRequest, error) {
	identity, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	now := reqctx.Now(ctx).UTC()
	today := entity.DateOnly(now)

	patient := strings.TrimSpace(req.PatientName)
	if patient == "" {
		return nil, invalid("patient_name", "is required")
	}
	hospital := strings.TrimSpace(req.HospitalName)
	if hospital == "" {
		return nil, invalid("hospital_name", "is required")
	}
	group := entity.NormalizeBloodGroup(req.BloodGroup)
	if group == "" {
		return nil, invalid("blood_group", "must be one of %v", entity.BloodGroups)
	}
	if req.UnitsRequired <= 0 {
		return nil, invalid("units_required", "must be a positive integer")
	}
	urgency := entity.NormalizeUrgency(req.Urgency)
	if urgency == "" {
		return nil, invalid("urgency", "must be Emergency, Urgent or Normal")
	}
	required := today
	if strings.TrimSpace(req.RequiredDate) != "" {
		parsed, err := entity.ParseDate(req.RequiredDate)
		if err != nil {
			return nil, invalid("required_date", "%v", err)
		}
		if parsed.Before(today) {
			return nil, invalid("required_date", "must not be in the past")
		}
		required = parsed
	}

	request := &entity.DbBloodRequest{
		PatientName:     patient,
		HospitalName:    hospital,
		HospitalAddress: strings.TrimSpace(req.HospitalAddress),
		DoctorName:      strings.TrimSpace(req.DoctorName),
		BloodGroup:      group,
		UnitsRequired:   req.UnitsRequired,
		Urgency:         urgency,
		RequestDate:     today,
		RequiredDate:    required,
		Status:          entity.RequestStatusPending,
		RequestedBy:     identity.UserID,
		Notes:           strings.TrimSpace(req.Notes),
	}

	for attempt := 0; attempt < 2; attempt++ {
		requestID, err := uniqueID(ctx, "request", s.ids.RequestID, s.repo.BloodRequestExists)
		if err != nil {
			return nil, err
		}
		request.RequestID = requestID
		err = s.repo.CreateBloodRequest(ctx, request)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == 1 {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, &ConflictError{Field: "request_id"}
			}
			return nil, unavailable("create blood request", err)
		}
		request.ID = 0
	}

	s.metrics.RequestTransition(entity.RequestStatusPending)
	logrus.WithFields(logrus.Fields{
		"request_id": request.RequestID, "blood_group": group, "units": request.UnitsRequired,
		"urgency": urgency, "user_id": identity.UserID,
	}).Info("blood request created")
	return request, nil
}

func (s *RequestService) Approve(ctx context.Context, requestID string, decision entity.BloodRequestDecision) (*entity.DbBloodRequest, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	approver := identity.UserID
	return s.transition(ctx, requestID, entity.RequestStatusApproved, decision, entity.BloodRequestUpdates{ApprovedBy: &approver})
}

func (s *RequestService) Reject(ctx context.Context, requestID string, decision entity.BloodRequestDecision) (*entity.DbBloodRequest, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	approver := identity.UserID
	return s.transition(ctx, requestID, entity.RequestStatusRejected, decision, entity.BloodRequestUpdates{ApprovedBy: &approver})
}

func (s *RequestService) Cancel(ctx context.Context, requestID string, decision entity.BloodRequestDecision) (*entity.DbBloodRequest, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	return s.transition(ctx, requestID, entity.RequestStatusCancelled, decision, entity.BloodRequestUpdates{})
}

func (s *RequestService) transition(ctx context.Context, requestID, target string, decision entity.BloodRequestDecision, updates entity.BloodRequestUpdates) (*entity.DbBloodRequest, error) {
	requestID = strings.TrimSpace(requestID)
	current, err := s.repo.GetBloodRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "blood request", requestID, "load blood request")
	}
	if !entity.CanTransition(current.Status, target) {
		return nil, &TransitionError{From: current.Status, To: target}
	}
	updates.Status = &target
	if notes := strings.TrimSpace(decision.Notes); notes != "" {
		updates.Notes = &notes
	}
	if err := s.repo.UpdateBloodRequest(ctx, requestID, current.Status, updates); err != nil {
		if errors.Is(err, model.ErrStatusChanged) {
			return nil, &TransitionError{From: current.Status, To: target}
		}
		return nil, notFoundOr(err, "blood request", requestID, "update blood request")
	}
	return s.reload(ctx, requestID, target)
}

// Fulfill removes the outstanding units from inventory and closes the
// request, atomically. Insufficient stock leaves both untouched.
func (s *RequestService) Fulfill(ctx context.Context, requestID string, decision entity.BloodRequestDecision) (*entity.DbBloodRequest, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	requestID = strings.TrimSpace(requestID)
	now := reqctx.Now(ctx).UTC()

	var line *entity.DbInventory
	err = s.repo.Transaction(ctx, func(tx model.Repository) error {
		current, err := tx.GetBloodRequest(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "blood request", requestID, "load blood request")
		}
		if !entity.CanTransition(current.Status, entity.RequestStatusFulfilled) {
			return &TransitionError{From: current.Status, To: entity.RequestStatusFulfilled}
		}
		outstanding := current.UnitsRequired - current.FulfilledUnits
		if outstanding > 0 {
			line, err = s.inventory.applyDelta(ctx, tx, current.BloodGroup, -outstanding, now)
			if err != nil {
				return err
			}
		}

		status := entity.RequestStatusFulfilled
		fulfilledDate := entity.DateOnly(now)
		units := current.UnitsRequired
		updates := entity.BloodRequestUpdates{Status: &status, FulfilledUnits: &units, FulfilledDate: &fulfilledDate}
		if notes := strings.TrimSpace(decision.Notes); notes != "" {
			updates.Notes = &notes
		}
		if err := tx.UpdateBloodRequest(ctx, requestID, current.Status, updates); err != nil {
			if errors.Is(err, model.ErrStatusChanged) {
				return &TransitionError{From: current.Status, To: status}
			}
			return unavailable("update blood request", err)
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"request_id": requestID, "user_id": identity.UserID}).Warn("request fulfilment failed")
		return nil, err
	}
	if line != nil {
		s.metrics.InventoryLevel(line.BloodGroup, line.UnitsAvailable)
		s.metrics.StockAdjusted(entity.StockActionRemove, "ok")
	}
	return s.reload(ctx, requestID, entity.RequestStatusFulfilled)
}

func (s *RequestService) reload(ctx context.Context, requestID, status string) (*entity.DbBloodRequest, error) {
	s.metrics.RequestTransition(status)
	request, err := s.repo.GetBloodRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "blood request", requestID, "reload blood request")
	}
	logrus.WithFields(logrus.Fields{"request_id": requestID, "status": status}).Info("blood request updated")
	return request, nil
}

func (s *RequestService) List(ctx context.Context, query *entity.BloodRequestQuery) (*entity.BloodRequestListResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	requests, meta, err := s.repo.ListBloodRequests(ctx, query)
	if err != nil {
		return nil, unavailable("list blood requests", err)
	}
	return &entity.BloodRequestListResponse{Requests: requests, Meta: meta}, nil
}
