package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/pkg/logger"
)

func issuedDemand(id uint, total int64) models.ChargeDemand {
	d := models.ChargeDemand{
		ID:                   id,
		GUID:                 "test-guid",
		BuildingID:           1,
		FlatID:               10,
		FlatNumber:           "A-101",
		Period:               "Q1 2030",
		DueDate:              time.Date(2030, time.March, 31, 0, 0, 0, 0, time.UTC),
		Status:               models.DemandStatusIssued,
		BaseAmount:           decimal.NewFromInt(total),
		GroundRentAmount:     decimal.Zero,
		PenaltyAmountApplied: decimal.Zero,
		AmountPaid:           decimal.Zero,
		PenaltyConfig: models.PenaltyConfig{
			Type:            models.PenaltyTypeFlatFee,
			FlatAmount:      decimal.NewFromInt(50),
			GracePeriodDays: 7,
		},
		RemindersConfig: models.RemindersConfig{
			ReminderDays: models.IntList{-3, 1, 7},
			MaxReminders: 3,
		},
	}
	d.RecalculateTotals()
	return d
}

func newPaymentServiceForTest(t *testing.T, repo *memDemandRepo) (*PaymentService, *mockLedgerRepository) {
	t.Helper()
	logger.Setup("test")

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	ledger := &mockLedgerRepository{}
	notifSvc := NewNotificationService(&mockNotificationRepository{}, &mockUserRepository{})

	svc := NewPaymentService(repo, ledger, notifSvc, NewAuditService(nil), newDemandLocks(), worker)
	return svc, ledger
}

func TestRecordPayment_PartialThenSettle(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	demand, err := svc.RecordPayment(ctx, 1, decimal.NewFromInt(400), time.Time{}, "bank_transfer", "REF-1", 7, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPartiallyPaid, demand.Status)
	assert.True(t, demand.AmountPaid.Equal(decimal.NewFromInt(400)))
	assert.True(t, demand.OutstandingAmount.Equal(decimal.NewFromInt(600)))
	assert.Len(t, demand.PaymentHistory, 1)

	demand, err = svc.RecordPayment(ctx, 1, decimal.NewFromInt(600), time.Time{}, "bank_transfer", "REF-2", 7, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPaid, demand.Status)
	assert.True(t, demand.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.True(t, demand.OutstandingAmount.IsZero())
	assert.Len(t, demand.PaymentHistory, 2)

	// amountPaid always equals the sum of the history
	sum := decimal.Zero
	for _, rec := range demand.PaymentHistory {
		sum = sum.Add(rec.Amount)
	}
	assert.True(t, demand.AmountPaid.Equal(sum))
}

func TestRecordPayment_OverpaymentKeptInAmountPaid(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)

	demand, err := svc.RecordPayment(context.Background(), 1, decimal.NewFromInt(1200), time.Time{}, "cash", "REF-OVER", 7, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPaid, demand.Status)
	assert.True(t, demand.AmountPaid.Equal(decimal.NewFromInt(1200)), "overpayment is not clamped")
	assert.True(t, demand.OutstandingAmount.IsZero(), "outstanding floors at zero")
}

func TestRecordPayment_NonPositiveAmountRejected(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, 1, decimal.Zero, time.Time{}, "cash", "", 7, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordPayment(ctx, 1, decimal.NewFromInt(-50), time.Time{}, "cash", "", 7, "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, stored.AmountPaid.IsZero(), "rejected payments leave the demand untouched")
	assert.Empty(t, stored.PaymentHistory)
}

func TestRecordPayment_PaidIsTerminal(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, 1, decimal.NewFromInt(1000), time.Time{}, "cash", "REF-FULL", 7, "", "")
	assert.NoError(t, err)

	_, err = svc.RecordPayment(ctx, 1, decimal.NewFromInt(10), time.Time{}, "cash", "REF-LATE", 7, "", "")
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPaid, stored.Status)
	assert.True(t, stored.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.Len(t, stored.PaymentHistory, 1)
}

func TestRecordPayment_OverduePathBacksToPaid(t *testing.T) {
	overdue := issuedDemand(1, 1000)
	overdue.Status = models.DemandStatusOverdue
	overdue.PenaltyAmountApplied = decimal.NewFromInt(50)
	overdue.RecalculateTotals()

	repo := newMemDemandRepo(overdue)
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	demand, err := svc.RecordPayment(ctx, 1, decimal.NewFromInt(300), time.Time{}, "cash", "", 7, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPartiallyPaid, demand.Status)
	assert.True(t, demand.PenaltyAmountApplied.Equal(decimal.NewFromInt(50)), "penalty survives the status change")
	assert.True(t, demand.TotalAmountDue.Equal(decimal.NewFromInt(1050)))

	demand, err = svc.RecordPayment(ctx, 1, decimal.NewFromInt(750), time.Time{}, "cash", "", 7, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPaid, demand.Status)
}

func TestRecordPayment_GeneratesReferenceAndDate(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)

	before := time.Now()
	demand, err := svc.RecordPayment(context.Background(), 1, decimal.NewFromInt(100), time.Time{}, "cash", "  ", 7, "", "")
	assert.NoError(t, err)
	assert.Len(t, demand.PaymentHistory, 1)

	rec := demand.PaymentHistory[0]
	assert.True(t, strings.HasPrefix(rec.Reference, "PAY-"), "blank reference gets generated, got %q", rec.Reference)
	assert.False(t, rec.Date.Before(before), "zero date defaults to now")
}

func TestRecordPayment_WritesIncomeLedgerEntry(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, ledger := newPaymentServiceForTest(t, repo)

	_, err := svc.RecordPayment(context.Background(), 1, decimal.NewFromInt(250), time.Time{}, "bank_transfer", "REF-L", 7, "", "")
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(ledger.all()) == 1
	}, 2*time.Second, 10*time.Millisecond, "income entry is written off the request path")

	entry := ledger.all()[0]
	assert.Equal(t, models.EntryTypeIncome, entry.EntryType)
	assert.Equal(t, models.CategoryServiceCharge, entry.Category)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, uint(1), entry.BuildingID)
	assert.NotNil(t, entry.DemandID)
}

func TestRecordPayment_ConcurrentPaymentsAllLand(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, 1, decimal.NewFromInt(100), time.Time{}, "cash",
				"REF-"+strconv.Itoa(n), 7, "", "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(decimal.NewFromInt(1000)), "no payment is lost under contention, got %s", stored.AmountPaid)
	assert.Equal(t, models.DemandStatusPaid, stored.Status)
	assert.Len(t, stored.PaymentHistory, 10)
}

func TestRecordPayment_UnknownDemand(t *testing.T) {
	svc, _ := newPaymentServiceForTest(t, newMemDemandRepo())

	_, err := svc.RecordPayment(context.Background(), 42, decimal.NewFromInt(100), time.Time{}, "cash", "", 7, "", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentHistory_OrderedRecords(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPaymentServiceForTest(t, repo)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, 1, decimal.NewFromInt(100), time.Time{}, "cash", "FIRST", 7, "", "")
	assert.NoError(t, err)
	_, err = svc.RecordPayment(ctx, 1, decimal.NewFromInt(200), time.Time{}, "cash", "SECOND", 7, "", "")
	assert.NoError(t, err)

	history, err := svc.PaymentHistory(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "FIRST", history[0].Reference)
	assert.Equal(t, "SECOND", history[1].Reference)
}
