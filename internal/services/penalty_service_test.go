package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/pkg/logger"
)

func newPenaltyServiceForTest(t *testing.T, repo *memDemandRepo) (*PenaltyService, *mockNotificationRepository) {
	t.Helper()
	logger.Setup("test")

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	notifRepo := &mockNotificationRepository{}
	notifSvc := NewNotificationService(notifRepo, &mockUserRepository{})
	buildingRepo := &mockBuildingRepository{}

	svc := NewPenaltyService(repo, buildingRepo, notifSvc, newDemandLocks(), worker)
	return svc, notifRepo
}

// Due date Mar 31 2030, grace 7 days: grace date is Apr 7.
var afterGrace = time.Date(2030, time.April, 8, 0, 0, 0, 0, time.UTC)

func TestApplyPenalties_PastGrace(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	count, err := svc.ApplyPenalties(ctx, 1, afterGrace)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusOverdue, stored.Status)
	assert.True(t, stored.PenaltyAmountApplied.Equal(decimal.NewFromInt(50)))
	assert.True(t, stored.TotalAmountDue.Equal(decimal.NewFromInt(1050)))
	assert.True(t, stored.OutstandingAmount.Equal(decimal.NewFromInt(1050)))
	if assert.NotNil(t, stored.PenaltyAppliedAt) {
		assert.True(t, stored.PenaltyAppliedAt.Equal(afterGrace))
	}
}

func TestApplyPenalties_OneShot(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	count, err := svc.ApplyPenalties(ctx, 1, afterGrace)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	// A later sweep must not penalize the same demand again
	later := afterGrace.AddDate(0, 0, 30)
	count, err = svc.ApplyPenalties(ctx, 1, later)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, stored.PenaltyAmountApplied.Equal(decimal.NewFromInt(50)), "penalty is applied exactly once")
	assert.True(t, stored.PenaltyAppliedAt.Equal(afterGrace), "first application timestamp is kept")
}

func TestApplyPenalties_WithinGraceIsNoop(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	withinGrace := time.Date(2030, time.April, 5, 0, 0, 0, 0, time.UTC)
	count, err := svc.ApplyPenalties(ctx, 1, withinGrace)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusIssued, stored.Status)
	assert.True(t, stored.PenaltyAmountApplied.IsZero())
	assert.Nil(t, stored.PenaltyAppliedAt)
}

func TestApplyPenalties_PaidDemandExcluded(t *testing.T) {
	paid := issuedDemand(1, 1000)
	paid.Status = models.DemandStatusPaid
	paid.AmountPaid = decimal.NewFromInt(1000)
	paid.RecalculateTotals()

	repo := newMemDemandRepo(paid)
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	count, err := svc.ApplyPenalties(ctx, 1, afterGrace)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusPaid, stored.Status)
	assert.True(t, stored.PenaltyAmountApplied.IsZero(), "a demand settled late accrues no penalty")
}

func TestApplyPenalties_PartiallyPaidKeepsCredit(t *testing.T) {
	partial := issuedDemand(1, 1000)
	partial.Status = models.DemandStatusPartiallyPaid
	partial.AmountPaid = decimal.NewFromInt(400)
	partial.RecalculateTotals()

	repo := newMemDemandRepo(partial)
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	count, err := svc.ApplyPenalties(ctx, 1, afterGrace)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusOverdue, stored.Status)
	assert.True(t, stored.TotalAmountDue.Equal(decimal.NewFromInt(1050)))
	assert.True(t, stored.AmountPaid.Equal(decimal.NewFromInt(400)))
	assert.True(t, stored.OutstandingAmount.Equal(decimal.NewFromInt(650)))
}

func TestApplyPenalties_UnsupportedTypeSkipped(t *testing.T) {
	d := issuedDemand(1, 1000)
	d.PenaltyConfig.Type = "percentage"

	repo := newMemDemandRepo(d)
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	count, err := svc.ApplyPenalties(ctx, 1, afterGrace)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusIssued, stored.Status)
	assert.Nil(t, stored.PenaltyAppliedAt)
}

func TestSendReminder_CappedAtMaxReminders(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	// Five attempts against a cap of three: the extras are silent no-ops
	for i := 0; i < 5; i++ {
		assert.NoError(t, svc.SendReminder(ctx, 1))
	}

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, stored.RemindersSent)
}

func TestSendDueReminders_MatchesConfiguredOffsets(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	svc, _ := newPenaltyServiceForTest(t, repo)
	ctx := context.Background()

	// ReminderDays is {-3, 1, 7} around the Mar 31 due date
	threeDaysBefore := time.Date(2030, time.March, 28, 0, 0, 0, 0, time.UTC)
	count, err := svc.SendDueReminders(ctx, 1, threeDaysBefore)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	oneDayBefore := time.Date(2030, time.March, 30, 0, 0, 0, 0, time.UTC)
	count, err = svc.SendDueReminders(ctx, 1, oneDayBefore)
	assert.NoError(t, err)
	assert.Equal(t, 0, count, "-1 is not a configured offset")

	oneDayAfter := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	count, err = svc.SendDueReminders(ctx, 1, oneDayAfter)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := repo.FindByID(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, stored.RemindersSent)
}

func TestSendDueReminders_RespectsCap(t *testing.T) {
	d := issuedDemand(1, 1000)
	d.RemindersSent = 3

	repo := newMemDemandRepo(d)
	svc, _ := newPenaltyServiceForTest(t, repo)

	dueOffsetDay := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	count, err := svc.SendDueReminders(context.Background(), 1, dueOffsetDay)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSendDueReminders_SkipsPaidDemands(t *testing.T) {
	paid := issuedDemand(1, 1000)
	paid.Status = models.DemandStatusPaid
	paid.AmountPaid = decimal.NewFromInt(1000)
	paid.RecalculateTotals()

	repo := newMemDemandRepo(paid)
	svc, _ := newPenaltyServiceForTest(t, repo)

	dueOffsetDay := time.Date(2030, time.April, 1, 0, 0, 0, 0, time.UTC)
	count, err := svc.SendDueReminders(context.Background(), 1, dueOffsetDay)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestApplyPenaltiesAllBuildings(t *testing.T) {
	repo := newMemDemandRepo(issuedDemand(1, 1000))
	logger.Setup("test")

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	notifSvc := NewNotificationService(&mockNotificationRepository{}, &mockUserRepository{})
	buildingRepo := &mockBuildingRepository{
		mockFindAll: func(ctx context.Context) ([]models.Building, error) {
			return []models.Building{{ID: 1, Name: "Harbour Court"}}, nil
		},
	}
	svc := NewPenaltyService(repo, buildingRepo, notifSvc, newDemandLocks(), worker)

	// The sweep uses the real clock; the 2030 due date keeps the demand
	// inside its grace period, so nothing is penalized yet.
	err := svc.ApplyPenaltiesAllBuildings(context.Background())
	assert.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, models.DemandStatusIssued, stored.Status)
}
