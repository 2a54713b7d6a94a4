package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Flat represents a billable unit within a building
type Flat struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BuildingID   uint            `gorm:"not null;index" json:"building_id"`
	Number       string          `gorm:"not null" json:"number"`
	Floor        *int            `json:"floor"`
	AreaSqFt     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"area_sq_ft"`
	GroundRent   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"ground_rent"` // flat fee per period, may be zero
	ResidentID   *uint           `gorm:"index" json:"resident_id"`
	ResidentName string          `json:"resident_name"`
	Occupied     bool            `gorm:"default:true;index" json:"occupied"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	// Associations
	Building Building `gorm:"foreignKey:BuildingID" json:"building,omitempty"`
	Resident *User    `gorm:"foreignKey:ResidentID" json:"resident,omitempty"`
}

// TableName specifies the table name for Flat
func (Flat) TableName() string {
	return "flats"
}

// FlatResponse is the JSON response format for flats
type FlatResponse struct {
	ID           uint            `json:"id"`
	BuildingID   uint            `json:"building_id"`
	BuildingName string          `json:"building_name,omitempty"`
	Number       string          `json:"number"`
	Floor        *int            `json:"floor"`
	AreaSqFt     decimal.Decimal `json:"area_sq_ft"`
	GroundRent   decimal.Decimal `json:"ground_rent"`
	ResidentID   *uint           `json:"resident_id"`
	ResidentName string          `json:"resident_name"`
	Occupied     bool            `json:"occupied"`
}

// ToResponse converts Flat to FlatResponse
func (f *Flat) ToResponse() FlatResponse {
	resp := FlatResponse{
		ID:           f.ID,
		BuildingID:   f.BuildingID,
		Number:       f.Number,
		Floor:        f.Floor,
		AreaSqFt:     f.AreaSqFt,
		GroundRent:   f.GroundRent,
		ResidentID:   f.ResidentID,
		ResidentName: f.ResidentName,
		Occupied:     f.Occupied,
	}
	if f.Building.ID != 0 {
		resp.BuildingName = f.Building.Name
	}
	return resp
}
