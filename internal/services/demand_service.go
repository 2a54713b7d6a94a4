package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/pkg/logger"
)

type DemandService struct {
	repo            repository.DemandRepository
	buildingRepo    repository.BuildingRepository
	flatRepo        repository.FlatRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

func NewDemandService(
	repo repository.DemandRepository,
	buildingRepo repository.BuildingRepository,
	flatRepo repository.FlatRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *DemandService {
	return &DemandService{
		repo:            repo,
		buildingRepo:    buildingRepo,
		flatRepo:        flatRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

func (s *DemandService) FindByID(ctx context.Context, id uint) (*models.ChargeDemand, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DemandService) FindByBuilding(ctx context.Context, buildingID uint) ([]models.ChargeDemand, error) {
	return s.repo.FindByBuilding(ctx, buildingID)
}

func (s *DemandService) FindByFlat(ctx context.Context, flatID uint) ([]models.ChargeDemand, error) {
	return s.repo.FindByFlat(ctx, flatID)
}

func (s *DemandService) List(ctx context.Context, query *repository.ListQuery) ([]models.ChargeDemand, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *DemandService) GetStats(ctx context.Context, buildingID uint) (*repository.DemandStats, error) {
	return s.repo.GetStats(ctx, buildingID)
}

// GenerateDemands issues one charge demand per occupied flat of the building
// for the billing period. Flats that already have a demand for the period are
// skipped, so re-running generation is safe; the composite unique index on
// (building_id, flat_id, period) backs this up at the database level.
//
// ratePerArea overrides the building's configured service charge rate when
// positive; pass decimal.Zero to use the building default. An empty flat list
// succeeds with zero demands.
func (s *DemandService) GenerateDemands(ctx context.Context, buildingID uint, period string, ratePerArea decimal.Decimal, actorID uint, ip, userAgent string) ([]models.ChargeDemand, error) {
	if ratePerArea.IsNegative() {
		return nil, ErrInvalidRate
	}

	building, err := s.buildingRepo.FindByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	rate := ratePerArea
	if rate.IsZero() {
		rate = building.ServiceChargeRate
	}

	flats, err := s.flatRepo.FindByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	billed, err := s.repo.BilledFlatIDs(ctx, buildingID, period)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dueDate := PeriodDueDate(period, now)

	var demands []*models.ChargeDemand
	for i := range flats {
		flat := &flats[i]
		if !flat.Occupied {
			continue
		}
		if billed[flat.ID] {
			logger.Info("demand already exists, skipping flat",
				"building_id", buildingID, "flat_id", flat.ID, "period", period)
			continue
		}
		demands = append(demands, s.buildDemand(building, flat, period, rate, dueDate, now))
	}

	if len(demands) == 0 {
		return []models.ChargeDemand{}, nil
	}

	if err := s.repo.InsertBatch(ctx, demands); err != nil {
		return nil, fmt.Errorf("failed to insert demands: %w", err)
	}

	// Resident notifications go through the queued pool: a generation run
	// can touch hundreds of flats
	s.worker.Enqueue(func(ctx context.Context) error {
		for _, d := range demands {
			if d.ResidentID == nil {
				continue
			}
			s.notificationSvc.NotifyUser(ctx, *d.ResidentID,
				"Service charge issued",
				fmt.Sprintf("A service charge of %s is due by %s for flat %s (%s)",
					d.TotalAmountDue.StringFixed(2), d.DueDate.Format("02 Jan 2006"), d.FlatNumber, d.Period),
				models.NotificationTypeDemandIssued)
		}
		return nil
	})

	s.auditSvc.Log(ctx, actorID, "GENERATE", "ChargeDemand", buildingID,
		fmt.Sprintf("Generated %d demands for building #%d period %s", len(demands), buildingID, period), ip, userAgent)

	created := make([]models.ChargeDemand, len(demands))
	for i, d := range demands {
		created[i] = *d
	}
	return created, nil
}

// buildDemand computes a single demand from flat data: base amount is
// area x rate rounded half-up to two decimals; a flat's zero area yields a
// zero base amount rather than an error.
func (s *DemandService) buildDemand(building *models.Building, flat *models.Flat, period string, rate decimal.Decimal, dueDate, now time.Time) *models.ChargeDemand {
	baseAmount := flat.AreaSqFt.Mul(rate).Round(2)

	groundRent := flat.GroundRent
	if groundRent.IsZero() {
		groundRent = building.GroundRentAmount
	}

	residentName := flat.ResidentName
	if residentName == "" && flat.Resident != nil {
		residentName = flat.Resident.FullName
	}

	demand := &models.ChargeDemand{
		GUID:                 uuid.NewString(),
		BuildingID:           building.ID,
		FlatID:               flat.ID,
		FlatNumber:           flat.Number,
		ResidentID:           flat.ResidentID,
		ResidentName:         residentName,
		Period:               period,
		DueDate:              dueDate,
		IssuedDate:           now,
		AreaSqFt:             flat.AreaSqFt,
		RateApplied:          rate,
		BaseAmount:           baseAmount,
		GroundRentAmount:     groundRent,
		PenaltyAmountApplied: decimal.Zero,
		AmountPaid:           decimal.Zero,
		Status:               models.DemandStatusIssued,
		PenaltyConfig:        building.DemandPenaltyConfig(),
		RemindersConfig:      building.DemandRemindersConfig(),
	}
	demand.RecalculateTotals()
	return demand
}
