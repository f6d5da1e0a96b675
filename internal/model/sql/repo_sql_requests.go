package sql

import (
	"context"
	"fmt"
	"strings"

	"bloodbank/internal/entity"
)

func (r *GormRepository) CreateBloodRequest(ctx context.Context, request *entity.DbBloodRequest) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if request == nil {
		return fmt.Errorf("blood request is nil")
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *GormRepository) GetBloodRequest(ctx context.Context, requestID string) (*entity.DbBloodRequest, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	var request entity.DbBloodRequest
	if err := r.db.WithContext(ctx).Where("request_id = ?", strings.TrimSpace(requestID)).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormRepository) BloodRequestExists(ctx context.Context, requestID string) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbBloodRequest{}).Where("request_id = ?", requestID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateBloodRequest applies updates only while the request is still in
// expectedStatus. Returns ErrStatusChanged when another writer got there
// first and gorm.ErrRecordNotFound for an unknown id.
func (r *GormRepository) UpdateBloodRequest(ctx context.Context, requestID, expectedStatus string, updates entity.BloodRequestUpdates) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if updates.IsEmpty() {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entity.DbBloodRequest{}).
		Where("request_id = ? AND request_status = ?", requestID, expectedStatus).
		Updates(updates.ToMap())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetBloodRequest(ctx, requestID); err != nil {
			return err
		}
		return ErrStatusChanged
	}
	return nil
}

var urgencyOrder = fmt.Sprintf("CASE urgency WHEN '%s' THEN 0 WHEN '%s' THEN 1 ELSE 2 END",
	entity.UrgencyEmergency, entity.UrgencyUrgent)

// ListBloodRequests orders by urgency, then required date.
func (r *GormRepository) ListBloodRequests(ctx context.Context, params *entity.BloodRequestQuery) ([]entity.DbBloodRequest, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil {
		params = &entity.BloodRequestQuery{}
	}

	query := r.db.WithContext(ctx).Model(&entity.DbBloodRequest{})
	if status := entity.NormalizeRequestStatus(params.Status); status != "" {
		query = query.Where("request_status = ?", status)
	}
	if group := entity.NormalizeBloodGroup(params.BloodGroup); group != "" {
		query = query.Where("blood_group = ?", group)
	}
	if strings.TrimSpace(params.Urgency) != "" {
		if urgency := entity.NormalizeUrgency(params.Urgency); urgency != "" {
			query = query.Where("urgency = ?", urgency)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	paged, page := r.paginate(query, &params.BaseParams)
	var requests []entity.DbBloodRequest
	err := paged.
		Order(urgencyOrder).
		Order("required_date ASC").
		Order("id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, nil, err
	}
	return requests, r.calculatePagination(total, page), nil
}
