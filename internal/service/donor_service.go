package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"bloodbank/internal/entity"
	"bloodbank/internal/metrics"
	"bloodbank/internal/model"
	"bloodbank/internal/reqctx"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DonorService registers, edits and searches donors.
type DonorService struct {
	repo      model.Repository
	donations *DonationService
	ids       IDGenerator
	metrics   *metrics.Metrics
}

func NewDonorService(repo model.Repository, donations *DonationService, ids IDGenerator, m *metrics.Metrics) *DonorService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &DonorService{repo: repo, donations: donations, ids: ids, metrics: m}
}

// Register validates the donor, derives age and eligibility from the date of
// birth and stores it under a fresh donor id. When req.Donation is set the
// first donation is recorded in the same transaction.
func (s *DonorService) Register(ctx context.Context, req entity.DonorCreateRequest) (*entity.DonorRegistration, error) {
	identity, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	now := reqctx.Now(ctx).UTC()

	donor, err := s.buildDonor(req, now)
	if err != nil {
		return nil, err
	}
	donor.CreatedBy = identity.UserID

	var inline *donationInput
	if req.Donation != nil {
		input, err := parseDonationInput(req.Donation.UnitsDonated, req.Donation.DonationType, req.Donation.DonationDate, req.Donation.Notes, now)
		if err != nil {
			return nil, err
		}
		inline = &input
	}

	if err := s.checkContactConflict(ctx, donor.Phone, donor.Email, ""); err != nil {
		return nil, err
	}

	var (
		result *entity.DonorRegistration
		line   *entity.DbInventory
	)
	attempt := func() error {
		return s.repo.Transaction(ctx, func(tx model.Repository) error {
			row := *donor
			donorID, err := uniqueID(ctx, "donor", s.ids.DonorID, tx.DonorExists)
			if err != nil {
				return err
			}
			row.DonorID = donorID
			if err := tx.CreateDonor(ctx, &row); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				return unavailable("create donor", err)
			}

			result = &entity.DonorRegistration{Donor: &row}
			if inline == nil {
				return nil
			}
			donation, updated, err := s.donations.recordInTx(ctx, tx, &row, *inline, identity, now)
			if err != nil {
				return err
			}
			result.Donation = donation
			line = updated
			// recordInTx 已更新数据库中的 last_donation_date
			row.LastDonationDate = &inline.date
			return nil
		})
	}

	err = attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 区分用户字段冲突（phone/email）与生成 ID 冲突：前者直接报告，后者换 ID 重试一次
		if conflict := s.checkContactConflict(ctx, donor.Phone, donor.Email, ""); conflict != nil {
			return nil, conflict
		}
		logrus.WithField("phone", donor.Phone).Warn("generated id collided at insert, retrying")
		err = attempt()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = &ConflictError{Field: "donor_id"}
		}
	}
	if err != nil {
		log := logrus.WithError(err).WithField("user_id", identity.UserID)
		if errors.Is(err, ErrStoreUnavailable) {
			log.Error("donor registration failed")
		} else {
			log.Warn("donor registration rejected")
		}
		return nil, err
	}

	s.metrics.DonorRegistered()
	logrus.WithFields(logrus.Fields{
		"donor_id": result.Donor.DonorID, "blood_group": result.Donor.BloodGroup,
		"eligible": result.Donor.Eligible, "user_id": identity.UserID,
	}).Info("donor registered")
	if result.Donation != nil {
		s.donations.recorded(result.Donation, line)
	}
	return result, nil
}

func (s *DonorService) buildDonor(req entity.DonorCreateRequest, now time.Time) (*entity.DbDonor, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", req.Name},
		{"date_of_birth", req.DateOfBirth},
		{"gender", req.Gender},
		{"blood_group", req.BloodGroup},
		{"city", req.City},
		{"phone", req.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, invalid(r.field, "is required")
		}
	}

	dob, age, err := parseBirthDate(req.DateOfBirth, now)
	if err != nil {
		return nil, err
	}
	gender := entity.NormalizeGender(req.Gender)
	if gender == "" {
		return nil, invalid("gender", "must be Male, Female or Other")
	}
	group := entity.NormalizeBloodGroup(req.BloodGroup)
	if group == "" {
		return nil, invalid("blood_group", "must be one of %v", entity.BloodGroups)
	}
	email, err := optionalEmail(req.Email)
	if err != nil {
		return nil, err
	}

	return &entity.DbDonor{
		Name:         strings.TrimSpace(req.Name),
		DateOfBirth:  dob,
		Age:          age,
		Gender:       gender,
		BloodGroup:   group,
		City:         strings.TrimSpace(req.City),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		MedicalNotes: strings.TrimSpace(req.MedicalNotes),
		Eligible:     entity.EligibleAge(age),
	}, nil
}

// parseBirthDate rejects unparsable or future dates rather than defaulting
// the age to zero.
func parseBirthDate(value string, now time.Time) (time.Time, int, error) {
	dob, err := entity.ParseDate(value)
	if err != nil {
		return time.Time{}, 0, invalid("date_of_birth", "%v", err)
	}
	if dob.After(entity.DateOnly(now)) {
		return time.Time{}, 0, invalid("date_of_birth", "must not be in the future")
	}
	return dob, entity.AgeOn(dob, now), nil
}

func optionalEmail(value string) (*string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	email, err := normalizeEmail(value)
	if err != nil {
		return nil, err
	}
	return &email, nil
}

func (s *DonorService) checkContactConflict(ctx context.Context, phone string, email *string, excludeDonorID string) error {
	field, err := s.repo.FindDonorConflict(ctx, phone, email, excludeDonorID)
	if err != nil {
		return unavailable("check donor conflict", err)
	}
	if field != "" {
		return &ConflictError{Field: field}
	}
	return nil
}

// Get returns a donor with its donation history, newest first.
func (s *DonorService) Get(ctx context.Context, donorID string) (*entity.DonorDetail, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	donorID = strings.TrimSpace(donorID)
	donor, err := s.repo.GetDonor(ctx, donorID)
	if err != nil {
		return nil, notFoundOr(err, "donor", donorID, "load donor")
	}
	donations, err := s.repo.ListDonationsByDonor(ctx, donorID)
	if err != nil {
		return nil, unavailable("list donor donations", err)
	}
	return &entity.DonorDetail{Donor: donor, Donations: donations}, nil
}

// Update edits a donor. A new date of birth recomputes age and, unless the
// request sets eligible explicitly, eligibility. Changes to name or blood
// group are copied onto every donation of this donor in the same
// transaction.
func (s *DonorService) Update(ctx context.Context, donorID string, req entity.DonorUpdateRequest) (*entity.DbDonor, error) {
	identity, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	donorID = strings.TrimSpace(donorID)
	now := reqctx.Now(ctx).UTC()

	updates, err := buildDonorUpdates(req, now)
	if err != nil {
		return nil, err
	}
	if updates.IsEmpty() {
		return nil, invalid("", "nothing to update")
	}
	if updates.Phone != nil || updates.Email != nil {
		phone := ""
		if updates.Phone != nil {
			phone = *updates.Phone
		}
		if err := s.checkContactConflict(ctx, phone, updates.Email, donorID); err != nil {
			return nil, err
		}
	}

	var (
		donor  *entity.DbDonor
		synced int64
	)
	err = s.repo.Transaction(ctx, func(tx model.Repository) error {
		if err := tx.UpdateDonor(ctx, donorID, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
			return notFoundOr(err, "donor", donorID, "update donor")
		}
		current, err := tx.GetDonor(ctx, donorID)
		if err != nil {
			return notFoundOr(err, "donor", donorID, "reload donor")
		}
		donor = current
		if updates.TouchesSnapshot() {
			synced, err = tx.SyncDonationSnapshots(ctx, donorID, current.Name, current.BloodGroup)
			if err != nil {
				return unavailable("sync donation snapshots", err)
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = s.checkContactConflict(ctx, valueOr(updates.Phone), updates.Email, donorID)
		if err == nil {
			err = &ConflictError{Field: "phone"}
		}
	}
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"donor_id": donorID, "user_id": identity.UserID}).Warn("donor update failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"donor_id": donorID, "snapshots_synced": synced, "user_id": identity.UserID,
	}).Info("donor updated")
	return donor, nil
}

func buildDonorUpdates(req entity.DonorUpdateRequest, now time.Time) (entity.DonorUpdates, error) {
	var updates entity.DonorUpdates
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return updates, invalid("name", "must not be empty")
		}
		updates.Name = &name
	}
	if req.DateOfBirth != nil {
		dob, age, err := parseBirthDate(*req.DateOfBirth, now)
		if err != nil {
			return updates, err
		}
		eligible := entity.EligibleAge(age)
		updates.DateOfBirth = &dob
		updates.Age = &age
		updates.Eligible = &eligible
	}
	if req.Gender != nil {
		gender := entity.NormalizeGender(*req.Gender)
		if gender == "" {
			return updates, invalid("gender", "must be Male, Female or Other")
		}
		updates.Gender = &gender
	}
	if req.BloodGroup != nil {
		group := entity.NormalizeBloodGroup(*req.BloodGroup)
		if group == "" {
			return updates, invalid("blood_group", "must be one of %v", entity.BloodGroups)
		}
		updates.BloodGroup = &group
	}
	if req.City != nil {
		city := strings.TrimSpace(*req.City)
		if city == "" {
			return updates, invalid("city", "must not be empty")
		}
		updates.City = &city
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return updates, invalid("phone", "must not be empty")
		}
		updates.Phone = &phone
	}
	if req.Email != nil {
		email, err := optionalEmail(*req.Email)
		if err != nil {
			return updates, err
		}
		if email == nil {
			updates.ClearEmail = true
		} else {
			updates.Email = email
		}
	}
	if req.MedicalNotes != nil {
		notes := strings.TrimSpace(*req.MedicalNotes)
		updates.MedicalNotes = &notes
	}
	// 显式传入的 eligible 优先于根据年龄推导的值
	if req.Eligible != nil {
		eligible := *req.Eligible
		updates.Eligible = &eligible
	}
	return updates, nil
}

func valueOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Search lists donors by substring of name, donor id or phone, exact blood
// group, city substring and eligibility.
func (s *DonorService) Search(ctx context.Context, query *entity.DonorQuery) (*entity.DonorListResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if query != nil && strings.TrimSpace(query.BloodGroup) != "" && entity.NormalizeBloodGroup(query.BloodGroup) == "" {
		return nil, invalid("blood_group", "is not a known blood group")
	}
	donors, meta, err := s.repo.ListDonors(ctx, query)
	if err != nil {
		return nil, unavailable("list donors", err)
	}
	return &entity.DonorListResponse{Donors: donors, Meta: meta}, nil
}

// Eligible returns eligible donors of one blood group, longest rested first.
func (s *DonorService) Eligible(ctx context.Context, query entity.EligibleDonorQuery) ([]entity.DbDonor, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	group := entity.NormalizeBloodGroup(query.BloodGroup)
	if group == "" {
		return nil, invalid("blood_group", "must be one of %v", entity.BloodGroups)
	}
	query.BloodGroup = group
	donors, err := s.repo.ListEligibleDonors(ctx, query)
	if err != nil {
		return nil, unavailable("list eligible donors", err)
	}
	return donors, nil
}
