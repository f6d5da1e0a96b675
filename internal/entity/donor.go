package entity

import "time"

// DbDonor is a registered donor. Donors are never deleted.
type DbDonor struct {
	ID               uint       `gorm:"primarykey" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DonorID          string     `gorm:"column:donor_id;type:varchar(20);uniqueIndex;not null" json:"donor_id"`
	Name             string     `gorm:"column:name;type:varchar(255);index;not null" json:"name"`
	DateOfBirth      time.Time  `gorm:"column:date_of_birth;type:date;not null" json:"date_of_birth"`
	Age              int        `gorm:"column:age;not null" json:"age"`
	Gender           string     `gorm:"column:gender;type:varchar(10);not null" json:"gender"`
	BloodGroup       string     `gorm:"column:blood_group;type:varchar(3);index;not null" json:"blood_group"`
	City             string     `gorm:"column:city;type:varchar(120);index;not null" json:"city"`
	Phone            string     `gorm:"column:phone;type:varchar(20);uniqueIndex;not null" json:"phone"`
	Email            *string    `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email,omitempty"`
	MedicalNotes     string     `gorm:"column:medical_notes;type:text" json:"medical_notes"`
	Eligible         bool       `gorm:"column:eligible;index;not null" json:"eligible"`
	LastDonationDate *time.Time `gorm:"column:last_donation_date;type:date" json:"last_donation_date,omitempty"`
	CreatedBy        uint       `gorm:"column:created_by" json:"created_by"`
}

func (DbDonor) TableName() string {
	return "donors"
}

// DonorQuery filters the donor listing. Search matches name, donor id or
// phone by substring.
type DonorQuery struct {
	BaseParams
	Search     string `json:"search" form:"search"`
	BloodGroup string `json:"blood_group" form:"blood_group"`
	City       string `json:"city" form:"city"`
	Eligible   *bool  `json:"eligible" form:"eligible"`
}

// EligibleDonorQuery is the "search blood" lookup.
type EligibleDonorQuery struct {
	BloodGroup string `json:"blood_group" form:"blood_group"`
	City       string `json:"city" form:"city"`
	Limit      int    `json:"limit" form:"limit"`
}

// DonorCreateRequest registers a donor, optionally with a first donation.
type DonorCreateRequest struct {
	Name         string `json:"name"`
	DateOfBirth  string `json:"date_of_birth"`
	Gender       string `json:"gender"`
	BloodGroup   string `json:"blood_group"`
	City         string `json:"city"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	MedicalNotes string `json:"medical_notes"`

	Donation *InlineDonation `json:"donation,omitempty"`
}

// InlineDonation is the first donation recorded together with registration.
type InlineDonation struct {
	UnitsDonated int    `json:"units_donated"`
	DonationDate string `json:"donation_date"`
	DonationType string `json:"donation_type"`
	Notes        string `json:"notes"`
}

// DonorUpdateRequest edits a donor. Nil fields are left unchanged.
type DonorUpdateRequest struct {
	Name         *string `json:"name,omitempty"`
	DateOfBirth  *string `json:"date_of_birth,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	BloodGroup   *string `json:"blood_group,omitempty"`
	City         *string `json:"city,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	MedicalNotes *string `json:"medical_notes,omitempty"`
	Eligible     *bool   `json:"eligible,omitempty"`
}

// DonorRegistration is the result of a registration.
type DonorRegistration struct {
	Donor    *DbDonor    `json:"donor"`
	Donation *DbDonation `json:"donation,omitempty"`
}

// DonorDetail is a donor with its donation history, newest first.
type DonorDetail struct {
	Donor     *DbDonor     `json:"donor"`
	Donations []DbDonation `json:"donations"`
}

type DonorListResponse struct {
	Donors []DbDonor `json:"donors"`
	Meta   *Meta     `json:"meta"`
}
