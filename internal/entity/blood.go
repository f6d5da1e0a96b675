package entity

import "strings"

// Blood groups (ABO/Rh).
const (
	BloodGroupAPos  = "A+"
	BloodGroupANeg  = "A-"
	BloodGroupBPos  = "B+"
	BloodGroupBNeg  = "B-"
	BloodGroupOPos  = "O+"
	BloodGroupONeg  = "O-"
	BloodGroupABPos = "AB+"
	BloodGroupABNeg = "AB-"
)

// BloodGroups lists the eight groups in clinical display order, universal
// donor first.
var BloodGroups = []string{
	BloodGroupONeg, BloodGroupOPos,
	BloodGroupANeg, BloodGroupAPos,
	BloodGroupBNeg, BloodGroupBPos,
	BloodGroupABNeg, BloodGroupABPos,
}

// NormalizeBloodGroup returns the canonical spelling of a blood group or ""
// when the value is not one of the eight groups.
func NormalizeBloodGroup(value string) string {
	candidate := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	for _, group := range BloodGroups {
		if group == candidate {
			return group
		}
	}
	return ""
}

// BloodGroupRank returns the position of a group in BloodGroups, or
// len(BloodGroups) when unknown.
func BloodGroupRank(group string) int {
	for idx, g := range BloodGroups {
		if g == group {
			return idx
		}
	}
	return len(BloodGroups)
}

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// NormalizeGender maps free-form input onto Male/Female/Other.
func NormalizeGender(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	case "other", "o":
		return GenderOther
	default:
		return ""
	}
}

const (
	TestResultPending = "Pending"
	TestResultPassed  = "Passed"
	TestResultFailed  = "Failed"
)

// NormalizeTestResult returns the canonical test result or "".
func NormalizeTestResult(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pending":
		return TestResultPending
	case "passed":
		return TestResultPassed
	case "failed":
		return TestResultFailed
	default:
		return ""
	}
}

const (
	DonationTypeWholeBlood       = "Whole Blood"
	DonationTypePlasma           = "Plasma"
	DonationTypePlatelets        = "Platelets"
	DonationTypeDoubleRedCells   = "Double Red Cells"
	defaultDonationTypeForRecord = DonationTypeWholeBlood
)

// NormalizeDonationType returns the canonical donation type. Empty input maps
// to whole blood.
func NormalizeDonationType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return defaultDonationTypeForRecord
	case "whole blood":
		return DonationTypeWholeBlood
	case "plasma":
		return DonationTypePlasma
	case "platelets":
		return DonationTypePlatelets
	case "double red cells":
		return DonationTypeDoubleRedCells
	default:
		return ""
	}
}
