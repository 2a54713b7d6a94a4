package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Building represents a managed property. Its billing fields supply the
// defaults snapshotted onto each demand at issue time.
type Building struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Name              string          `gorm:"not null" json:"name"`
	Address           string          `gorm:"not null" json:"address"`
	ServiceChargeRate decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"service_charge_rate"` // per sq ft per period
	GroundRentAmount  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"ground_rent_amount"`
	PenaltyFlatAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"penalty_flat_amount"`
	GracePeriodDays   int             `gorm:"default:7" json:"grace_period_days"`
	ReminderDays      IntList         `gorm:"serializer:json" json:"reminder_days"`
	MaxReminders      int             `gorm:"default:3" json:"max_reminders"`
	ManagerID         *uint           `gorm:"index" json:"manager_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// Associations
	Manager *User  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Flats   []Flat `gorm:"foreignKey:BuildingID" json:"flats,omitempty"`
}

// TableName specifies the table name for Building
func (Building) TableName() string {
	return "buildings"
}

// DemandPenaltyConfig builds the penalty config snapshot to stamp onto a
// newly issued demand
func (b *Building) DemandPenaltyConfig() PenaltyConfig {
	return PenaltyConfig{
		Type:            PenaltyTypeFlatFee,
		FlatAmount:      b.PenaltyFlatAmount,
		GracePeriodDays: b.GracePeriodDays,
	}
}

// DemandRemindersConfig builds the reminders config snapshot to stamp onto a
// newly issued demand
func (b *Building) DemandRemindersConfig() RemindersConfig {
	return RemindersConfig{
		ReminderDays: b.ReminderDays,
		MaxReminders: b.MaxReminders,
	}
}

// BuildingResponse is the JSON response format for buildings
type BuildingResponse struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	Address           string          `json:"address"`
	ServiceChargeRate decimal.Decimal `json:"service_charge_rate"`
	GroundRentAmount  decimal.Decimal `json:"ground_rent_amount"`
	PenaltyFlatAmount decimal.Decimal `json:"penalty_flat_amount"`
	GracePeriodDays   int             `json:"grace_period_days"`
	ReminderDays      IntList         `json:"reminder_days"`
	MaxReminders      int             `json:"max_reminders"`
	FlatCount         int             `json:"flat_count"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToResponse converts Building to BuildingResponse
func (b *Building) ToResponse() BuildingResponse {
	return BuildingResponse{
		ID:                b.ID,
		Name:              b.Name,
		Address:           b.Address,
		ServiceChargeRate: b.ServiceChargeRate,
		GroundRentAmount:  b.GroundRentAmount,
		PenaltyFlatAmount: b.PenaltyFlatAmount,
		GracePeriodDays:   b.GracePeriodDays,
		ReminderDays:      b.ReminderDays,
		MaxReminders:      b.MaxReminders,
		FlatCount:         len(b.Flats),
		CreatedAt:         b.CreatedAt,
	}
}
