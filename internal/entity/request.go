package entity

import (
	"strings"
	"time"
)

const (
	UrgencyEmergency = "Emergency"
	UrgencyUrgent    = "Urgent"
	UrgencyNormal    = "Normal"
)

const (
	RequestStatusPending   = "Pending"
	RequestStatusApproved  = "Approved"
	RequestStatusRejected  = "Rejected"
	RequestStatusFulfilled = "Fulfilled"
	RequestStatusCancelled = "Cancelled"
)

// NormalizeUrgency maps free-form input to an urgency. Empty means Normal.
func NormalizeUrgency(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return UrgencyNormal
	case "urgent":
		return UrgencyUrgent
	case "emergency":
		return UrgencyEmergency
	default:
		return ""
	}
}

// NormalizeRequestStatus returns the canonical status or "".
func NormalizeRequestStatus(value string) string {
	for _, s := range []string{RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusFulfilled, RequestStatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(value), s) {
			return s
		}
	}
	return ""
}

// requestTransitions lists the statuses reachable from each status.
var requestTransitions = map[string][]string{
	RequestStatusPending:  {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled},
	RequestStatusApproved: {RequestStatusFulfilled, RequestStatusCancelled},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DbBloodRequest is a hospital request for units of one blood group.
type DbBloodRequest struct {
	ID              uint       `gorm:"primarykey" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	RequestID       string     `gorm:"column:request_id;type:varchar(20);uniqueIndex;not null" json:"request_id"`
	PatientName     string     `gorm:"column:patient_name;type:varchar(255);not null" json:"patient_name"`
	HospitalName    string     `gorm:"column:hospital_name;type:varchar(255);not null" json:"hospital_name"`
	HospitalAddress string     `gorm:"column:hospital_address;type:text" json:"hospital_address"`
	DoctorName      string     `gorm:"column:doctor_name;type:varchar(255)" json:"doctor_name"`
	BloodGroup      string     `gorm:"column:blood_group;type:varchar(3);index;not null" json:"blood_group"`
	UnitsRequired   int        `gorm:"column:units_required;not null" json:"units_required"`
	Urgency         string     `gorm:"column:urgency;type:varchar(10);not null" json:"urgency"`
	RequestDate     time.Time  `gorm:"column:request_date;type:date;not null" json:"request_date"`
	RequiredDate    time.Time  `gorm:"column:required_date;type:date;not null" json:"required_date"`
	Status          string     `gorm:"column:request_status;type:varchar(10);index;not null" json:"status"`
	FulfilledUnits  int        `gorm:"column:fulfilled_units;not null;default:0" json:"fulfilled_units"`
	FulfilledDate   *time.Time `gorm:"column:fulfilled_date;type:date" json:"fulfilled_date,omitempty"`
	RequestedBy     uint       `gorm:"column:requested_by" json:"requested_by"`
	ApprovedBy      *uint      `gorm:"column:approved_by" json:"approved_by,omitempty"`
	Notes           string     `gorm:"column:notes;type:text" json:"notes"`
}

func (DbBloodRequest) TableName() string {
	return "blood_requests"
}

type BloodRequestCreateRequest struct {
	PatientName     string `json:"patient_name"`
	HospitalName    string `json:"hospital_name"`
	HospitalAddress string `json:"hospital_address"`
	DoctorName      string `json:"doctor_name"`
	BloodGroup      string `json:"blood_group"`
	UnitsRequired   int    `json:"units_required"`
	Urgency         string `json:"urgency"`
	RequiredDate    string `json:"required_date"`
	Notes           string `json:"notes"`
}

// BloodRequestDecision carries optional notes for a status change.
type BloodRequestDecision struct {
	Notes string `json:"notes"`
}

type BloodRequestQuery struct {
	BaseParams
	Status     string `json:"status" form:"status"`
	BloodGroup string `json:"blood_group" form:"blood_group"`
	Urgency    string `json:"urgency" form:"urgency"`
}

type BloodRequestListResponse struct {
	Requests []DbBloodRequest `json:"requests"`
	Meta     *Meta            `json:"meta"`
}
