package entity

import (
	"strings"
	"time"
)

const (
	InventoryStatusCritical = "Critical"
	InventoryStatusLow      = "Low Stock"
	InventoryStatusNormal   = "Normal"
	InventoryStatusAdequate = "Adequate"
	InventoryStatusFull     = "Full"
)

// InventoryThresholds is the single source of truth for the status label of
// an inventory line.
type InventoryThresholds struct {
	CriticalBelow int
	Minimum       int
	Capacity      int
}

// DefaultInventoryThresholds mirrors the configuration defaults.
var DefaultInventoryThresholds = InventoryThresholds{CriticalBelow: 5, Minimum: 10, Capacity: 50}

// StatusFor derives the status label from a unit count:
//
//	units < CriticalBelow       Critical
//	units < Minimum             Low Stock
//	units > 80% of Capacity     Full
//	units > 50% of Capacity     Adequate
//	otherwise                   Normal
func (t InventoryThresholds) StatusFor(units int) string {
	switch {
	case units < t.CriticalBelow:
		return InventoryStatusCritical
	case units < t.Minimum:
		return InventoryStatusLow
	case units > t.Capacity*8/10:
		return InventoryStatusFull
	case units > t.Capacity*5/10:
		return InventoryStatusAdequate
	default:
		return InventoryStatusNormal
	}
}

// DbInventory is one stock line per blood group.
type DbInventory struct {
	ID             uint      `gorm:"primarykey" json:"-"`
	BloodGroup     string    `gorm:"column:blood_group;type:varchar(3);uniqueIndex;not null" json:"blood_group"`
	UnitsAvailable int       `gorm:"column:units_available;not null;default:0" json:"units_available"`
	Status         string    `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (DbInventory) TableName() string {
	return "inventory"
}

const (
	StockActionAdd    = "add"
	StockActionRemove = "remove"
)

// NormalizeStockAction returns add/remove or "".
func NormalizeStockAction(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case StockActionAdd:
		return StockActionAdd
	case StockActionRemove:
		return StockActionRemove
	default:
		return ""
	}
}

// MaxStockAdjustment bounds a single admin correction.
const MaxStockAdjustment = 1000

// StockUpdateRequest is the admin stock correction payload.
type StockUpdateRequest struct {
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	Action     string `json:"action"`
}

// StockUpdateResponse reports the line after a correction.
type StockUpdateResponse struct {
	Success        bool   `json:"success"`
	BloodGroup     string `json:"blood_group"`
	UnitsAvailable int    `json:"units_available"`
	Status         string `json:"status"`
}

// InventoryView is the inventory page payload.
type InventoryView struct {
	Lines        []DbInventory   `json:"lines"`
	ExpiringSoon []ExpiringGroup `json:"expiring_soon"`
}
