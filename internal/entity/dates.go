package entity

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for every calendar date.
	DateLayout = "2006-01-02"

	// ShelfLifeDays is how long a collected unit stays usable.
	ShelfLifeDays = 42

	MinDonorAge = 18
	MaxDonorAge = 65

	// ExpiringWindowDays bounds the "expiring soon" report.
	ExpiringWindowDays = 7

	// DonationIntervalDays is the minimum gap between whole blood donations
	// used by the health report.
	DonationIntervalDays = 56
)

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD value into a UTC date.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", trimmed)
	}
	return parsed, nil
}

// AgeOn returns the number of full years between dob and now. A birthday
// later in the year than now has not been reached yet.
func AgeOn(dob, now time.Time) int {
	dob = DateOnly(dob)
	now = DateOnly(now)
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// EligibleAge reports whether age lies within the donor age range.
func EligibleAge(age int) bool {
	return age >= MinDonorAge && age <= MaxDonorAge
}

// ExpiryFor returns the expiry date of a unit collected on donationDate.
func ExpiryFor(donationDate time.Time) time.Time {
	return DateOnly(donationDate).AddDate(0, 0, ShelfLifeDays)
}
