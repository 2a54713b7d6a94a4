package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRecalculateTotals(t *testing.T) {
	d := &ChargeDemand{
		BaseAmount:           decimal.NewFromInt(2125),
		GroundRentAmount:     decimal.NewFromInt(120),
		PenaltyAmountApplied: decimal.NewFromInt(50),
		AmountPaid:           decimal.NewFromInt(400),
	}
	d.RecalculateTotals()

	assert.True(t, d.TotalAmountDue.Equal(decimal.NewFromInt(2295)))
	assert.True(t, d.OutstandingAmount.Equal(decimal.NewFromInt(1895)))
}

func TestRecalculateTotals_OutstandingFloorsAtZero(t *testing.T) {
	d := &ChargeDemand{
		BaseAmount: decimal.NewFromInt(1000),
		AmountPaid: decimal.NewFromInt(1200),
	}
	d.RecalculateTotals()

	assert.True(t, d.OutstandingAmount.IsZero())
	assert.True(t, d.AmountPaid.Equal(decimal.NewFromInt(1200)), "the overpaid excess stays visible")
}

func TestStatusGuards(t *testing.T) {
	issued := &ChargeDemand{Status: DemandStatusIssued}
	partial := &ChargeDemand{Status: DemandStatusPartiallyPaid}
	overdue := &ChargeDemand{Status: DemandStatusOverdue}
	paid := &ChargeDemand{Status: DemandStatusPaid}

	assert.True(t, issued.MayAcceptPayment())
	assert.True(t, partial.MayAcceptPayment())
	assert.True(t, overdue.MayAcceptPayment())
	assert.False(t, paid.MayAcceptPayment())

	assert.True(t, issued.MaySettle())
	assert.True(t, partial.MaySettle())
	assert.True(t, overdue.MaySettle())
	assert.False(t, paid.MaySettle())

	assert.True(t, issued.MayMarkOverdue())
	assert.True(t, partial.MayMarkOverdue())
	assert.False(t, overdue.MayMarkOverdue())
	assert.False(t, paid.MayMarkOverdue())
}

func TestMayApplyPenalty(t *testing.T) {
	due := time.Date(2030, time.March, 31, 0, 0, 0, 0, time.UTC)
	d := &ChargeDemand{
		Status:        DemandStatusIssued,
		DueDate:       due,
		PenaltyConfig: PenaltyConfig{Type: PenaltyTypeFlatFee, GracePeriodDays: 7},
	}

	assert.False(t, d.MayApplyPenalty(due), "not on the due date itself")
	assert.False(t, d.MayApplyPenalty(due.AddDate(0, 0, 7)), "not on the grace date")
	assert.True(t, d.MayApplyPenalty(due.AddDate(0, 0, 8)))

	applied := due.AddDate(0, 0, 8)
	d.PenaltyAppliedAt = &applied
	assert.False(t, d.MayApplyPenalty(due.AddDate(0, 0, 30)), "penalty fires at most once")

	d.PenaltyAppliedAt = nil
	d.Status = DemandStatusPaid
	assert.False(t, d.MayApplyPenalty(due.AddDate(0, 0, 30)))
}

func TestGraceDate(t *testing.T) {
	d := &ChargeDemand{
		DueDate:       time.Date(2030, time.March, 31, 0, 0, 0, 0, time.UTC),
		PenaltyConfig: PenaltyConfig{GracePeriodDays: 7},
	}
	assert.Equal(t, time.Date(2030, time.April, 7, 0, 0, 0, 0, time.UTC), d.GraceDate())
}

func TestDaysFromDue(t *testing.T) {
	due := time.Date(2030, time.March, 31, 0, 0, 0, 0, time.UTC)
	d := &ChargeDemand{DueDate: due}

	assert.Equal(t, -3, d.DaysFromDue(due.AddDate(0, 0, -3)))
	assert.Equal(t, 0, d.DaysFromDue(due))
	assert.Equal(t, 1, d.DaysFromDue(due.AddDate(0, 0, 1)))
	assert.Equal(t, 14, d.DaysFromDue(due.AddDate(0, 0, 14)))
}

func TestIsSettled(t *testing.T) {
	d := &ChargeDemand{
		TotalAmountDue: decimal.NewFromInt(1000),
		AmountPaid:     decimal.NewFromInt(999),
	}
	assert.False(t, d.IsSettled())

	d.AmountPaid = decimal.NewFromInt(1000)
	assert.True(t, d.IsSettled())

	d.AmountPaid = decimal.NewFromInt(1200)
	assert.True(t, d.IsSettled())
}

func TestMayRemind(t *testing.T) {
	d := &ChargeDemand{
		RemindersConfig: RemindersConfig{MaxReminders: 3},
		RemindersSent:   2,
	}
	assert.True(t, d.MayRemind())

	d.RemindersSent = 3
	assert.False(t, d.MayRemind())
}

func TestIntListContains(t *testing.T) {
	days := IntList{-3, 1, 7}

	assert.True(t, days.Contains(-3))
	assert.True(t, days.Contains(1))
	assert.True(t, days.Contains(7))
	assert.False(t, days.Contains(0))
	assert.False(t, days.Contains(3))
	assert.False(t, IntList(nil).Contains(1))
}

func TestToResponse_DaysOverdue(t *testing.T) {
	d := &ChargeDemand{
		Status:  DemandStatusOverdue,
		DueDate: time.Now().AddDate(0, 0, -10),
	}
	resp := d.ToResponse()
	assert.Equal(t, 10, resp.DaysOverdue)

	d.Status = DemandStatusPaid
	resp = d.ToResponse()
	assert.Equal(t, 0, resp.DaysOverdue, "paid demands report no overdue days")
}
