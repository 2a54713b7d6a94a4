package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/pkg/logger"
)

func testBuilding() *models.Building {
	return &models.Building{
		ID:                1,
		Name:              "Harbour Court",
		ServiceChargeRate: decimal.NewFromFloat(2.5),
		GroundRentAmount:  decimal.NewFromInt(120),
		PenaltyFlatAmount: decimal.NewFromInt(50),
		GracePeriodDays:   7,
		ReminderDays:      models.IntList{-3, 1, 7},
		MaxReminders:      3,
	}
}

func newDemandServiceForTest(t *testing.T, repo *memDemandRepo, building *models.Building, flats []models.Flat) *DemandService {
	t.Helper()
	logger.Setup("test")

	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)

	buildingRepo := &mockBuildingRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Building, error) {
			return building, nil
		},
	}
	flatRepo := &mockFlatRepository{
		mockFindByBuilding: func(ctx context.Context, buildingID uint) ([]models.Flat, error) {
			return flats, nil
		},
	}
	notifSvc := NewNotificationService(&mockNotificationRepository{}, &mockUserRepository{})

	return NewDemandService(repo, buildingRepo, flatRepo, notifSvc, NewAuditService(nil), worker)
}

func TestGenerateDemands_ComputesAmounts(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(850), Occupied: true},
	}
	repo := newMemDemandRepo()
	svc := newDemandServiceForTest(t, repo, building, flats)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.NewFromFloat(2.5), 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, demands, 1)

	d := demands[0]
	assert.Equal(t, models.DemandStatusIssued, d.Status)
	assert.True(t, d.BaseAmount.Equal(decimal.NewFromFloat(2125)), "base = 850 x 2.5, got %s", d.BaseAmount)
	assert.True(t, d.GroundRentAmount.Equal(decimal.NewFromInt(120)), "flat has no ground rent, building default applies")
	assert.True(t, d.TotalAmountDue.Equal(decimal.NewFromInt(2245)))
	assert.True(t, d.OutstandingAmount.Equal(d.TotalAmountDue))
	assert.True(t, d.AmountPaid.IsZero())
	assert.Equal(t, "2030-03-31", d.DueDate.Format("2006-01-02"))
	assert.NotEmpty(t, d.GUID)

	// Penalty and reminder policy is snapshotted onto the demand
	assert.Equal(t, models.PenaltyTypeFlatFee, d.PenaltyConfig.Type)
	assert.True(t, d.PenaltyConfig.FlatAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 7, d.PenaltyConfig.GracePeriodDays)
	assert.Equal(t, 3, d.RemindersConfig.MaxReminders)
	assert.Equal(t, models.IntList{-3, 1, 7}, d.RemindersConfig.ReminderDays)

	stored, err := repo.FindByID(context.Background(), d.ID)
	assert.NoError(t, err)
	assert.True(t, stored.TotalAmountDue.Equal(d.TotalAmountDue))
}

func TestGenerateDemands_RoundsBaseAmountHalfUp(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(1), Occupied: true},
	}
	svc := newDemandServiceForTest(t, newMemDemandRepo(), building, flats)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.NewFromFloat(2.345), 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, demands, 1)
	assert.True(t, demands[0].BaseAmount.Equal(decimal.NewFromFloat(2.35)), "2.345 rounds half-up to 2.35, got %s", demands[0].BaseAmount)
}

func TestGenerateDemands_SkipsBilledAndVacantFlats(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(500), Occupied: true},
		{ID: 11, BuildingID: 1, Number: "A-102", AreaSqFt: decimal.NewFromInt(500), Occupied: false},
		{ID: 12, BuildingID: 1, Number: "A-103", AreaSqFt: decimal.NewFromInt(500), Occupied: true},
	}
	// Flat 10 was already billed for the period
	repo := newMemDemandRepo(models.ChargeDemand{
		ID: 1, BuildingID: 1, FlatID: 10, Period: "Q1 2030", Status: models.DemandStatusIssued,
	})
	svc := newDemandServiceForTest(t, repo, building, flats)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, demands, 1)
	assert.Equal(t, uint(12), demands[0].FlatID)
}

func TestGenerateDemands_RerunIsIdempotent(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(500), Occupied: true},
		{ID: 12, BuildingID: 1, Number: "A-103", AreaSqFt: decimal.NewFromInt(500), Occupied: true},
	}
	repo := newMemDemandRepo()
	svc := newDemandServiceForTest(t, repo, building, flats)

	first, err := svc.GenerateDemands(context.Background(), 1, "Q2 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := svc.GenerateDemands(context.Background(), 1, "Q2 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Empty(t, second, "re-running generation for the same period issues nothing")
}

func TestGenerateDemands_EmptyFlatList(t *testing.T) {
	svc := newDemandServiceForTest(t, newMemDemandRepo(), testBuilding(), nil)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Empty(t, demands)
}

func TestGenerateDemands_NegativeRateRejected(t *testing.T) {
	svc := newDemandServiceForTest(t, newMemDemandRepo(), testBuilding(), nil)

	_, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.NewFromInt(-1), 99, "", "")
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestGenerateDemands_ZeroRateUsesBuildingDefault(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(100), Occupied: true},
	}
	svc := newDemandServiceForTest(t, newMemDemandRepo(), building, flats)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, demands, 1)
	assert.True(t, demands[0].RateApplied.Equal(building.ServiceChargeRate))
	assert.True(t, demands[0].BaseAmount.Equal(decimal.NewFromInt(250)))
}

func TestGenerateDemands_FlatGroundRentOverridesBuildingDefault(t *testing.T) {
	building := testBuilding()
	flats := []models.Flat{
		{ID: 10, BuildingID: 1, Number: "A-101", AreaSqFt: decimal.NewFromInt(100),
			GroundRent: decimal.NewFromInt(75), Occupied: true},
	}
	svc := newDemandServiceForTest(t, newMemDemandRepo(), building, flats)

	demands, err := svc.GenerateDemands(context.Background(), 1, "Q1 2030", decimal.Zero, 99, "", "")
	assert.NoError(t, err)
	assert.Len(t, demands, 1)
	assert.True(t, demands[0].GroundRentAmount.Equal(decimal.NewFromInt(75)))
}
