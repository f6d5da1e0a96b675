package entity

import (
	"math"
	"testing"
	"time"
)

func TestInventoryThresholdsStatusFor(t *testing.T) {
	th := DefaultInventoryThresholds
	tests := []struct {
		units int
		want  string
	}{
		{0, InventoryStatusCritical},
		{4, InventoryStatusCritical},
		{5, InventoryStatusLow},
		{9, InventoryStatusLow},
		{10, InventoryStatusNormal},
		{25, InventoryStatusNormal},
		{26, InventoryStatusAdequate},
		{40, InventoryStatusAdequate},
		{41, InventoryStatusFull},
		{500, InventoryStatusFull},
		{math.MaxInt, InventoryStatusFull},
	}
	for _, tt := range tests {
		if got := th.StatusFor(tt.units); got != tt.want {
			t.Errorf("StatusFor(%d) = %q, want %q", tt.units, got, tt.want)
		}
	}
}

func TestAgeOn(t *testing.T) {
	day := func(s string) time.Time {
		v, err := ParseDate(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return v
	}
	tests := []struct {
		name string
		dob  string
		now  string
		want int
	}{
		{"birthday passed", "2000-01-01", "2024-06-01", 24},
		{"birthday today", "2000-06-01", "2024-06-01", 24},
		{"day before birthday", "2000-06-02", "2024-06-01", 23},
		{"later month", "2000-07-01", "2024-06-01", 23},
		{"future dob", "2030-01-01", "2024-06-01", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeOn(day(tt.dob), day(tt.now)); got != tt.want {
				t.Fatalf("AgeOn = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEligibleAge(t *testing.T) {
	for age, want := range map[int]bool{17: false, 18: true, 40: true, 65: true, 66: false, 0: false} {
		if got := EligibleAge(age); got != want {
			t.Errorf("EligibleAge(%d) = %v, want %v", age, got, want)
		}
	}
}

func TestExpiryFor(t *testing.T) {
	donated := time.Date(2024, 2, 20, 15, 30, 0, 0, time.UTC)
	want := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	if got := ExpiryFor(donated); !got.Equal(want) {
		t.Fatalf("ExpiryFor = %s, want %s", got, want)
	}
	if days := int(ExpiryFor(donated).Sub(DateOnly(donated)).Hours() / 24); days != ShelfLifeDays {
		t.Fatalf("shelf life = %d days", days)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, v := range []string{"", "  ", "01/02/2000", "2000-13-01"} {
		if _, err := ParseDate(v); err == nil {
			t.Errorf("ParseDate(%q) expected error", v)
		}
	}
}

func TestNormalizers(t *testing.T) {
	if got := NormalizeBloodGroup(" ab+ "); got != BloodGroupABPos {
		t.Errorf("NormalizeBloodGroup = %q", got)
	}
	if got := NormalizeBloodGroup("C+"); got != "" {
		t.Errorf("NormalizeBloodGroup(C+) = %q", got)
	}
	if got := NormalizeGender("F"); got != GenderFemale {
		t.Errorf("NormalizeGender = %q", got)
	}
	if got := NormalizeDonationType(""); got != DonationTypeWholeBlood {
		t.Errorf("NormalizeDonationType empty = %q", got)
	}
	if got := NormalizeTestResult("PASSED"); got != TestResultPassed {
		t.Errorf("NormalizeTestResult = %q", got)
	}
	if got := NormalizeStockAction("Remove"); got != StockActionRemove {
		t.Errorf("NormalizeStockAction = %q", got)
	}
	if got := NormalizeUrgency(""); got != UrgencyNormal {
		t.Errorf("NormalizeUrgency empty = %q", got)
	}
	if BloodGroupRank(BloodGroupONeg) != 0 || BloodGroupRank("X") != len(BloodGroups) {
		t.Errorf("unexpected BloodGroupRank")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{RequestStatusPending, RequestStatusApproved, true},
		{RequestStatusPending, RequestStatusFulfilled, false},
		{RequestStatusApproved, RequestStatusFulfilled, true},
		{RequestStatusApproved, RequestStatusRejected, false},
		{RequestStatusFulfilled, RequestStatusCancelled, false},
		{RequestStatusRejected, RequestStatusApproved, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s,%s) = %v", tt.from, tt.to, got)
		}
	}
}

func TestDonorUpdatesToMap(t *testing.T) {
	name := "Asha"
	u := DonorUpdates{Name: &name, ClearEmail: true}
	m := u.ToMap()
	if m["name"] != "Asha" {
		t.Fatalf("name not mapped: %v", m)
	}
	if v, ok := m["email"]; !ok || v != nil {
		t.Fatalf("email should be cleared: %v", m)
	}
	if !u.TouchesSnapshot() {
		t.Fatalf("name change must touch snapshot")
	}
	if !(DonorUpdates{}).IsEmpty() {
		t.Fatalf("zero updates should be empty")
	}
}
