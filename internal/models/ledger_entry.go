package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is an immutable income or expenditure record in a building's
// financial ledger. Entries are created as a side effect of payment
// recording or expense capture and are never updated afterwards.
type LedgerEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BuildingID   uint            `gorm:"not null;index" json:"building_id"`
	DemandID     *uint           `gorm:"index" json:"demand_id,omitempty"`
	EntryType    string          `gorm:"not null;index" json:"entry_type"` // income, expenditure
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category     string          `gorm:"not null;index" json:"category"`
	Description  string          `gorm:"type:text" json:"description"`
	EntryDate    time.Time       `gorm:"type:date;not null;index" json:"entry_date"`
	RecordedByID uint            `gorm:"index" json:"recorded_by"`
	CreatedAt    time.Time       `json:"recorded_at"`

	// Associations
	Building *Building     `gorm:"foreignKey:BuildingID" json:"-"`
	Demand   *ChargeDemand `gorm:"foreignKey:DemandID" json:"-"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Entry type constants
const (
	EntryTypeIncome      = "income"
	EntryTypeExpenditure = "expenditure"
)

// Ledger category constants
const (
	CategoryServiceCharge = "service_charge"
	CategoryGroundRent    = "ground_rent"
	CategoryPenalty       = "penalty"
	CategoryMaintenance   = "maintenance"
	CategoryUtilities     = "utilities"
	CategoryInsurance     = "insurance"
	CategoryOther         = "other"
)

// LedgerEntryResponse is the JSON response format for ledger entries
type LedgerEntryResponse struct {
	ID          uint            `json:"id"`
	BuildingID  uint            `json:"building_id"`
	DemandID    *uint           `json:"demand_id,omitempty"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	EntryDate   time.Time       `json:"entry_date"`
	RecordedBy  uint            `json:"recorded_by"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// ToResponse converts LedgerEntry to LedgerEntryResponse
func (e *LedgerEntry) ToResponse() LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          e.ID,
		BuildingID:  e.BuildingID,
		DemandID:    e.DemandID,
		EntryType:   e.EntryType,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		EntryDate:   e.EntryDate,
		RecordedBy:  e.RecordedByID,
		RecordedAt:  e.CreatedAt,
	}
}
