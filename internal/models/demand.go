package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChargeDemand is a service charge issued to a flat for a billing period.
// JSON field names follow the schema the web client already depends on
// (camelCase), so responses stay drop-in compatible.
type ChargeDemand struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	GUID         string `gorm:"type:uuid;uniqueIndex" json:"guid"`
	BuildingID   uint   `gorm:"not null;index;uniqueIndex:idx_demands_building_flat_period" json:"buildingId"`
	FlatID       uint   `gorm:"not null;index;uniqueIndex:idx_demands_building_flat_period" json:"flatId"`
	FlatNumber   string `gorm:"not null" json:"flatNumber"`
	ResidentID   *uint  `gorm:"index" json:"residentId"`
	ResidentName string `json:"residentName"`

	// Period is a display string like "Q1 2024". One demand per
	// (building, flat, period); the composite unique index enforces it.
	Period     string    `gorm:"not null;index;uniqueIndex:idx_demands_building_flat_period" json:"period"`
	DueDate    time.Time `gorm:"type:date;not null;index" json:"dueDate"`
	IssuedDate time.Time `gorm:"not null" json:"issuedDate"`

	AreaSqFt             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"areaSqFt"`
	RateApplied          decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"rateApplied"`
	BaseAmount           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"baseAmount"`
	GroundRentAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"groundRentAmount"`
	PenaltyAmountApplied decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"penaltyAmountApplied"`
	TotalAmountDue       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"totalAmountDue"`
	AmountPaid           decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amountPaid"`
	OutstandingAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"outstandingAmount"`

	Status string `gorm:"default:issued;not null;index" json:"status"`

	PenaltyConfig   PenaltyConfig   `gorm:"embedded" json:"penaltyConfig"`
	RemindersConfig RemindersConfig `gorm:"embedded" json:"remindersConfig"`

	RemindersSent int `gorm:"default:0;not null" json:"remindersSent"`

	// PenaltyAppliedAt is the idempotence guard for the penalty sweep:
	// once set, penalty logic for this demand is a no-op forever.
	PenaltyAppliedAt *time.Time `gorm:"index" json:"penaltyAppliedAt"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Building       Building        `gorm:"foreignKey:BuildingID" json:"-"`
	Flat           Flat            `gorm:"foreignKey:FlatID" json:"-"`
	PaymentHistory []PaymentRecord `gorm:"foreignKey:DemandID" json:"paymentHistory,omitempty"`
}

// TableName specifies the table name for ChargeDemand
func (ChargeDemand) TableName() string {
	return "charge_demands"
}

// Demand status constants
const (
	DemandStatusIssued        = "issued"
	DemandStatusPartiallyPaid = "partially_paid"
	DemandStatusPaid          = "paid"
	DemandStatusOverdue       = "overdue"
)

// PenaltyConfig describes how a late-payment penalty applies to a demand.
// Flat fee is the only supported kind.
type PenaltyConfig struct {
	Type            string          `gorm:"column:penalty_type;default:flat_fee" json:"type"`
	FlatAmount      decimal.Decimal `gorm:"column:penalty_flat_amount;type:decimal(15,2);not null" json:"flatAmount"`
	GracePeriodDays int             `gorm:"column:grace_period_days;default:0" json:"gracePeriodDays"`
}

// Penalty type constants
const (
	PenaltyTypeFlatFee = "flat_fee"
)

// RemindersConfig caps how many reminders a demand may receive and at which
// day-offsets from the due date a reminder is eligible (negative = before).
type RemindersConfig struct {
	ReminderDays IntList `gorm:"column:reminder_days;serializer:json" json:"reminderDays"`
	MaxReminders int     `gorm:"column:max_reminders;default:3" json:"maxReminders"`
}

// IntList is a JSON-serialized list of day offsets
type IntList []int

// Contains reports whether v is present in the list
func (l IntList) Contains(v int) bool {
	for _, d := range l {
		if d == v {
			return true
		}
	}
	return false
}

// MayAcceptPayment returns true if the demand can still receive payments.
// Paid is terminal.
func (d *ChargeDemand) MayAcceptPayment() bool {
	return d.Status != DemandStatusPaid
}

// MaySettle returns true if the demand can transition to paid
func (d *ChargeDemand) MaySettle() bool {
	return d.Status == DemandStatusIssued ||
		d.Status == DemandStatusPartiallyPaid ||
		d.Status == DemandStatusOverdue
}

// MayMarkOverdue returns true if the demand can transition to overdue
func (d *ChargeDemand) MayMarkOverdue() bool {
	return d.Status == DemandStatusIssued || d.Status == DemandStatusPartiallyPaid
}

// MayApplyPenalty returns true if the one-time penalty may fire at the given
// instant: unpaid, past the grace date, and never penalized before.
func (d *ChargeDemand) MayApplyPenalty(now time.Time) bool {
	if d.PenaltyAppliedAt != nil {
		return false
	}
	if !d.MayMarkOverdue() {
		return false
	}
	return now.After(d.GraceDate())
}

// MayRemind returns true if the reminder counter is below the configured cap
func (d *ChargeDemand) MayRemind() bool {
	return d.RemindersSent < d.RemindersConfig.MaxReminders
}

// GraceDate returns the due date plus the configured grace period
func (d *ChargeDemand) GraceDate() time.Time {
	return d.DueDate.AddDate(0, 0, d.PenaltyConfig.GracePeriodDays)
}

// IsSettled returns true if cumulative payments cover the total due
func (d *ChargeDemand) IsSettled() bool {
	return d.AmountPaid.GreaterThanOrEqual(d.TotalAmountDue)
}

// RecalculateTotals re-derives totalAmountDue and outstandingAmount from the
// component amounts. Outstanding is floored at zero; amountPaid is never
// clamped, so an overpayment leaves the excess visible in amountPaid.
func (d *ChargeDemand) RecalculateTotals() {
	d.TotalAmountDue = d.BaseAmount.Add(d.GroundRentAmount).Add(d.PenaltyAmountApplied)
	outstanding := d.TotalAmountDue.Sub(d.AmountPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	d.OutstandingAmount = outstanding
}

// DaysFromDue returns the signed whole-day distance from the due date
// (negative while the demand is not yet due).
func (d *ChargeDemand) DaysFromDue(now time.Time) int {
	return int(now.Sub(d.DueDate).Hours() / 24)
}

// PaymentRecord is one immutable entry in a demand's payment history.
// Records are append-only: never mutated or reordered after creation.
type PaymentRecord struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	DemandID     uint            `gorm:"not null;index" json:"demandId"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Date         time.Time       `gorm:"type:date;not null" json:"date"`
	Method       string          `json:"method"`
	Reference    string          `gorm:"index" json:"reference"`
	RecordedByID uint            `gorm:"index" json:"recordedBy"`
	RecordedAt   time.Time       `gorm:"not null" json:"recordedAt"`
	CreatedAt    time.Time       `json:"-"`
}

// TableName specifies the table name for PaymentRecord
func (PaymentRecord) TableName() string {
	return "payment_records"
}

// Payment method constants
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCheque       = "cheque"
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
)

// ChargeDemandResponse is the JSON response format for demands
type ChargeDemandResponse struct {
	ID                   uint            `json:"id"`
	GUID                 string          `json:"guid"`
	BuildingID           uint            `json:"buildingId"`
	FlatID               uint            `json:"flatId"`
	FlatNumber           string          `json:"flatNumber"`
	ResidentID           *uint           `json:"residentId"`
	ResidentName         string          `json:"residentName"`
	Period               string          `json:"period"`
	DueDate              time.Time       `json:"dueDate"`
	IssuedDate           time.Time       `json:"issuedDate"`
	AreaSqFt             decimal.Decimal `json:"areaSqFt"`
	RateApplied          decimal.Decimal `json:"rateApplied"`
	BaseAmount           decimal.Decimal `json:"baseAmount"`
	GroundRentAmount     decimal.Decimal `json:"groundRentAmount"`
	PenaltyAmountApplied decimal.Decimal `json:"penaltyAmountApplied"`
	TotalAmountDue       decimal.Decimal `json:"totalAmountDue"`
	AmountPaid           decimal.Decimal `json:"amountPaid"`
	OutstandingAmount    decimal.Decimal `json:"outstandingAmount"`
	Status               string          `json:"status"`
	PenaltyConfig        PenaltyConfig   `json:"penaltyConfig"`
	RemindersConfig      RemindersConfig `json:"remindersConfig"`
	RemindersSent        int             `json:"remindersSent"`
	PenaltyAppliedAt     *time.Time      `json:"penaltyAppliedAt"`
	DaysOverdue          int             `json:"daysOverdue"`
	PaymentHistory       []PaymentRecord `json:"paymentHistory,omitempty"`
	BuildingName         string          `json:"buildingName,omitempty"`
}

// ToResponse converts ChargeDemand to ChargeDemandResponse
func (d *ChargeDemand) ToResponse() ChargeDemandResponse {
	resp := ChargeDemandResponse{
		ID:                   d.ID,
		GUID:                 d.GUID,
		BuildingID:           d.BuildingID,
		FlatID:               d.FlatID,
		FlatNumber:           d.FlatNumber,
		ResidentID:           d.ResidentID,
		ResidentName:         d.ResidentName,
		Period:               d.Period,
		DueDate:              d.DueDate,
		IssuedDate:           d.IssuedDate,
		AreaSqFt:             d.AreaSqFt,
		RateApplied:          d.RateApplied,
		BaseAmount:           d.BaseAmount,
		GroundRentAmount:     d.GroundRentAmount,
		PenaltyAmountApplied: d.PenaltyAmountApplied,
		TotalAmountDue:       d.TotalAmountDue,
		AmountPaid:           d.AmountPaid,
		OutstandingAmount:    d.OutstandingAmount,
		Status:               d.Status,
		PenaltyConfig:        d.PenaltyConfig,
		RemindersConfig:      d.RemindersConfig,
		RemindersSent:        d.RemindersSent,
		PenaltyAppliedAt:     d.PenaltyAppliedAt,
		PaymentHistory:       d.PaymentHistory,
	}

	if d.Status != DemandStatusPaid {
		if days := d.DaysFromDue(time.Now()); days > 0 {
			resp.DaysOverdue = days
		}
	}

	if d.Building.ID != 0 {
		resp.BuildingName = d.Building.Name
	}

	return resp
}
