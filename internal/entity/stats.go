package entity

import "time"

// ExpiringGroup counts units of one blood group expiring within the window.
type ExpiringGroup struct {
	BloodGroup     string    `json:"blood_group"`
	Donations      int64     `json:"donations"`
	Units          int64     `json:"units"`
	EarliestExpiry time.Time `json:"earliest_expiry"`
}

// MonthlyUnits is the sum of passed units collected in one month (YYYY-MM).
type MonthlyUnits struct {
	Month     string `json:"month"`
	Donations int64  `json:"donations"`
	Units     int64  `json:"units"`
}

// GroupCount is a per blood group donor count.
type GroupCount struct {
	BloodGroup string `json:"blood_group"`
	Count      int64  `json:"count"`
}

// Statistics is the dashboard payload.
type Statistics struct {
	TotalDonors       int64           `json:"total_donors"`
	EligibleDonors    int64           `json:"eligible_donors"`
	TotalUnitsInStock int64           `json:"total_units_in_stock"`
	TotalUnitsDonated int64           `json:"total_units_donated"`
	LowStockGroups    int64           `json:"low_stock_groups"`
	PendingRequests   int64           `json:"pending_requests"`
	RecentDonations   []DbDonation    `json:"recent_donations"`
	ExpiringSoon      []ExpiringGroup `json:"expiring_soon"`
	MonthlyDonations  []MonthlyUnits  `json:"monthly_donations"`
	GroupDistribution []GroupCount    `json:"group_distribution"`
	Inventory         []DbInventory   `json:"inventory"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// StatusMismatch is an inventory line whose stored label disagrees with its
// unit count.
type StatusMismatch struct {
	BloodGroup     string `json:"blood_group"`
	UnitsAvailable int    `json:"units_available"`
	StoredStatus   string `json:"stored_status"`
	ExpectedStatus string `json:"expected_status"`
}

// HealthReport lists data integrity findings.
type HealthReport struct {
	OrphanDonations    []string         `json:"orphan_donations"`
	InvalidBloodGroups []string         `json:"invalid_blood_groups"`
	TooSoonButEligible []string         `json:"too_soon_but_eligible"`
	StatusMismatches   []StatusMismatch `json:"status_mismatches"`
	Healthy            bool             `json:"healthy"`
	CheckedAt          time.Time        `json:"checked_at"`
}

// Snapshot is the backup document.
type Snapshot struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	CreatedBy string           `json:"created_by"`
	Donors    []DbDonor        `json:"donors"`
	Donations []DbDonation     `json:"donations"`
	Inventory []DbInventory    `json:"inventory"`
	Requests  []DbBloodRequest `json:"requests"`
}

// BackupResult reports where a snapshot was written.
type BackupResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url,omitempty"`
	Donors    int       `json:"donors"`
	Donations int       `json:"donations"`
	CreatedAt time.Time `json:"created_at"`
}
