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

// DonationService records donations and keeps inventory in step with them.
type DonationService struct {
	repo      model.Repository
	inventory *InventoryService
	ids       IDGenerator
	metrics   *metrics.Metrics
}

func NewDonationService(repo model.Repository, inventory *InventoryService, ids IDGenerator, m *metrics.Metrics) *DonationService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &DonationService{repo: repo, inventory: inventory, ids: ids, metrics: m}
}

// donationInput is a validated donation request.
type donationInput struct {
	units        int
	donationType string
	date         time.Time
	notes        string
}

func parseDonationInput(units int, donationType, date, notes string, now time.Time) (donationInput, error) {
	if units < entity.MinUnitsPerDonation || units > entity.MaxUnitsPerDonation {
		return donationInput{}, invalid("units_donated", "must be between %d and %d", entity.MinUnitsPerDonation, entity.MaxUnitsPerDonation)
	}
	kind := entity.NormalizeDonationType(donationType)
	if kind == "" {
		return donationInput{}, invalid("donation_type", "is not a known donation type")
	}
	today := entity.DateOnly(now)
	donated := today
	if strings.TrimSpace(date) != "" {
		parsed, err := entity.ParseDate(date)
		if err != nil {
			return donationInput{}, invalid("donation_date", "%v", err)
		}
		if parsed.After(today) {
			return donationInput{}, invalid("donation_date", "must not be in the future")
		}
		donated = parsed
	}
	return donationInput{units: units, donationType: kind, date: donated, notes: strings.TrimSpace(notes)}, nil
}

// Record performs the four effects of a donation atomically: insert the
// record, advance the donor's last donation date, add the units to the
// donor's blood group and recompute that line's status.
func (s *DonationService) Record(ctx context.Context, req entity.DonationCreateRequest) (*entity.DbDonation, error) {
	identity, err := requireWriter(ctx)
	if err != nil {
		return nil, err
	}
	donorID := strings.TrimSpace(req.DonorID)
	if donorID == "" {
		return nil, invalid("donor_id", "is required")
	}
	now := reqctx.Now(ctx).UTC()
	input, err := parseDonationInput(req.UnitsDonated, req.DonationType, req.DonationDate, req.Notes, now)
	if err != nil {
		return nil, err
	}

	var (
		donation *entity.DbDonation
		line     *entity.DbInventory
	)
	attempt := func() error {
		return s.repo.Transaction(ctx, func(tx model.Repository) error {
			donor, err := tx.GetDonor(ctx, donorID)
			if err != nil {
				return notFoundOr(err, "donor", donorID, "load donor")
			}
			donation, line, err = s.recordInTx(ctx, tx, donor, input, identity, now)
			return err
		})
	}

	err = attempt()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// donation_id 是唯一会冲突的生成字段，换一个重试一次
		logrus.WithField("donor_id", donorID).Warn("donation id collided at insert, retrying")
		err = attempt()
	}
	if err != nil {
		return nil, s.finish(err, logrus.Fields{"donor_id": donorID, "user_id": identity.UserID})
	}

	s.recorded(donation, line)
	return donation, nil
}

// recordInTx applies a donation for donor within tx. Callers own the
// transaction.
func (s *DonationService) recordInTx(ctx context.Context, tx model.Repository, donor *entity.DbDonor, input donationInput, identity reqctx.Identity, now time.Time) (*entity.DbDonation, *entity.DbInventory, error) {
	if !donor.Eligible {
		return nil, nil, &IneligibleDonorError{DonorID: donor.DonorID}
	}
	donationID, err := uniqueID(ctx, "donation", s.ids.DonationID, tx.DonationExists)
	if err != nil {
		return nil, nil, err
	}

	donation := &entity.DbDonation{
		DonationID:   donationID,
		DonorID:      donor.DonorID,
		DonorName:    donor.Name,
		BloodGroup:   donor.BloodGroup,
		UnitsDonated: input.units,
		DonationType: input.donationType,
		DonationDate: input.date,
		ExpiryDate:   entity.ExpiryFor(input.date),
		RecordedBy:   identity.Name,
		RecordedByID: identity.UserID,
		TestResult:   entity.TestResultPending,
		Notes:        input.notes,
	}
	if err := tx.CreateDonation(ctx, donation); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, err
		}
		return nil, nil, unavailable("create donation", err)
	}
	if err := tx.TouchLastDonation(ctx, donor.DonorID, input.date); err != nil {
		return nil, nil, notFoundOr(err, "donor", donor.DonorID, "update last donation")
	}
	line, err := s.inventory.applyDelta(ctx, tx, donor.BloodGroup, input.units, now)
	if err != nil {
		return nil, nil, err
	}
	return donation, line, nil
}

func (s *DonationService) recorded(donation *entity.DbDonation, line *entity.DbInventory) {
	s.metrics.DonationRecorded(donation.BloodGroup, donation.UnitsDonated)
	if line != nil {
		s.metrics.InventoryLevel(line.BloodGroup, line.UnitsAvailable)
	}
	fields := logrus.Fields{
		"donation_id": donation.DonationID,
		"donor_id":    donation.DonorID,
		"blood_group": donation.BloodGroup,
		"units":       donation.UnitsDonated,
	}
	if line != nil {
		fields["units_available"] = line.UnitsAvailable
		fields["status"] = line.Status
	}
	logrus.WithFields(fields).Info("donation recorded")
}

// finish logs a failed write at the right level and converts leftover
// duplicate-key errors into a conflict.
func (s *DonationService) finish(err error, fields logrus.Fields) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = &ConflictError{Field: "donation_id"}
	}
	log := logrus.WithError(err).WithFields(fields)
	if errors.Is(err, ErrStoreUnavailable) {
		log.Error("donation failed")
	} else {
		log.Warn("donation rejected")
	}
	return err
}

// UpdateTestResult changes the only mutable fields of a donation.
func (s *DonationService) UpdateTestResult(ctx context.Context, donationID string, req entity.DonationUpdateRequest) (*entity.DbDonation, error) {
	if _, err := requireWriter(ctx); err != nil {
		return nil, err
	}
	donationID = strings.TrimSpace(donationID)
	var updates entity.DonationUpdates
	if req.TestResult != nil {
		result := entity.NormalizeTestResult(*req.TestResult)
		if result == "" {
			return nil, invalid("test_result", "must be Pending, Passed or Failed")
		}
		updates.TestResult = &result
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		updates.Notes = &notes
	}
	if updates.IsEmpty() {
		return nil, invalid("", "nothing to update")
	}
	if err := s.repo.UpdateDonation(ctx, donationID, updates); err != nil {
		return nil, notFoundOr(err, "donation", donationID, "update donation")
	}
	donation, err := s.repo.GetDonation(ctx, donationID)
	if err != nil {
		return nil, notFoundOr(err, "donation", donationID, "load donation")
	}
	logrus.WithFields(logrus.Fields{"donation_id": donationID, "test_result": donation.TestResult}).Info("donation updated")
	return donation, nil
}

// List returns donation history filtered by donor, group, result and an
// inclusive date range.
func (s *DonationService) List(ctx context.Context, query *entity.DonationQuery) (*entity.DonationListResponse, error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if query == nil {
		query = &entity.DonationQuery{}
	}
	if strings.TrimSpace(query.From) != "" {
		from, err := entity.ParseDate(query.From)
		if err != nil {
			return nil, invalid("from", "%v", err)
		}
		query.FromDate = &from
	}
	if strings.TrimSpace(query.To) != "" {
		to, err := entity.ParseDate(query.To)
		if err != nil {
			return nil, invalid("to", "%v", err)
		}
		query.ToDate = &to
	}
	if query.FromDate != nil && query.ToDate != nil && query.ToDate.Before(*query.FromDate) {
		return nil, invalid("to", "must not be before from")
	}
	if strings.TrimSpace(query.BloodGroup) != "" && entity.NormalizeBloodGroup(query.BloodGroup) == "" {
		return nil, invalid("blood_group", "is not a known blood group")
	}

	donations, meta, err := s.repo.ListDonations(ctx, query)
	if err != nil {
		return nil, unavailable("list donations", err)
	}
	return &entity.DonationListResponse{Donations: donations, Meta: meta}, nil
}
