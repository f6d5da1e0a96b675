package entity

import "time"

const (
	MinUnitsPerDonation = 1
	MaxUnitsPerDonation = 2
)

// DbDonation is an immutable donation record. DonorName and BloodGroup are
// snapshots kept in sync with the donor on every donor edit; only
// TestResult and Notes change after creation.
type DbDonation struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	DonationID   string    `gorm:"column:donation_id;type:varchar(20);uniqueIndex;not null" json:"donation_id"`
	DonorID      string    `gorm:"column:donor_id;type:varchar(20);index;not null" json:"donor_id"`
	DonorName    string    `gorm:"column:donor_name;type:varchar(255);not null" json:"donor_name"`
	BloodGroup   string    `gorm:"column:blood_group;type:varchar(3);index;not null" json:"blood_group"`
	UnitsDonated int       `gorm:"column:units_donated;not null" json:"units_donated"`
	DonationType string    `gorm:"column:donation_type;type:varchar(20);not null" json:"donation_type"`
	DonationDate time.Time `gorm:"column:donation_date;type:date;index;not null" json:"donation_date"`
	ExpiryDate   time.Time `gorm:"column:expiry_date;type:date;index;not null" json:"expiry_date"`
	RecordedBy   string    `gorm:"column:recorded_by;type:varchar(255)" json:"recorded_by"`
	RecordedByID uint      `gorm:"column:recorded_by_id" json:"recorded_by_id"`
	TestResult   string    `gorm:"column:test_result;type:varchar(10);not null" json:"test_result"`
	Notes        string    `gorm:"column:notes;type:text" json:"notes"`
}

func (DbDonation) TableName() string {
	return "donation_history"
}

// DonationCreateRequest records a donation for an existing donor.
type DonationCreateRequest struct {
	DonorID      string `json:"donor_id"`
	UnitsDonated int    `json:"units_donated"`
	DonationDate string `json:"donation_date"`
	DonationType string `json:"donation_type"`
	Notes        string `json:"notes"`
}

// DonationUpdateRequest changes the mutable fields of a donation.
type DonationUpdateRequest struct {
	TestResult *string `json:"test_result,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// DonationQuery filters donation history. Dates are inclusive YYYY-MM-DD.
type DonationQuery struct {
	BaseParams
	DonorID    string `json:"donor_id" form:"donor_id"`
	BloodGroup string `json:"blood_group" form:"blood_group"`
	From       string `json:"from" form:"from"`
	To         string `json:"to" form:"to"`
	TestResult string `json:"test_result" form:"test_result"`

	FromDate *time.Time `json:"-" form:"-"`
	ToDate   *time.Time `json:"-" form:"-"`
}

type DonationListResponse struct {
	Donations []DbDonation `json:"donations"`
	Meta      *Meta        `json:"meta"`
}
