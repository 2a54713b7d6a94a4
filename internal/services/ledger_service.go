package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
)

// CollectionSummary combines demand aggregates with the building ledger
type CollectionSummary struct {
	BuildingID       uint            `json:"building_id"`
	TotalDemanded    decimal.Decimal `json:"total_demanded"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OverdueCount     int64           `json:"overdue_count"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenditure decimal.Decimal `json:"total_expenditure"`
	Net              decimal.Decimal `json:"net"`
}

type LedgerService struct {
	repo       repository.LedgerRepository
	demandRepo repository.DemandRepository
	auditSvc   *AuditService
}

func NewLedgerService(repo repository.LedgerRepository, demandRepo repository.DemandRepository, auditSvc *AuditService) *LedgerService {
	return &LedgerService{repo: repo, demandRepo: demandRepo, auditSvc: auditSvc}
}

func (s *LedgerService) FindByBuilding(ctx context.Context, buildingID uint, query *repository.ListQuery) ([]models.LedgerEntry, int64, error) {
	return s.repo.FindByBuilding(ctx, buildingID, query)
}

func (s *LedgerService) FindByDemand(ctx context.Context, demandID uint) ([]models.LedgerEntry, error) {
	return s.repo.FindByDemand(ctx, demandID)
}

// RecordExpenditure appends an expenditure entry to the building ledger.
// Entries are immutable once written.
func (s *LedgerService) RecordExpenditure(ctx context.Context, buildingID uint, amount decimal.Decimal, category, description string, entryDate time.Time, recordedBy uint, ip, userAgent string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if entryDate.IsZero() {
		entryDate = time.Now()
	}
	if category == "" {
		category = models.CategoryOther
	}

	entry := &models.LedgerEntry{
		BuildingID:   buildingID,
		EntryType:    models.EntryTypeExpenditure,
		Amount:       amount,
		Category:     category,
		Description:  description,
		EntryDate:    entryDate,
		RecordedByID: recordedBy,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, recordedBy, "RECORD_EXPENDITURE", "LedgerEntry", entry.ID,
		"Expenditure of "+amount.StringFixed(2)+" recorded ("+category+")", ip, userAgent)

	return entry, nil
}

// Summary returns the building's collection totals alongside its ledger
// income/expenditure aggregate
func (s *LedgerService) Summary(ctx context.Context, buildingID uint) (*CollectionSummary, error) {
	stats, err := s.demandRepo.GetStats(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	return &CollectionSummary{
		BuildingID:       buildingID,
		TotalDemanded:    stats.TotalDemanded,
		TotalCollected:   stats.TotalCollected,
		TotalOutstanding: stats.TotalOutstanding,
		OverdueCount:     stats.OverdueCount,
		TotalIncome:      totals.TotalIncome,
		TotalExpenditure: totals.TotalExpenditure,
		Net:              totals.Net,
	}, nil
}
