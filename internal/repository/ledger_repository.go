package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/models"
	"gorm.io/gorm"
)

// LedgerTotals holds the income/expenditure aggregate for a building
type LedgerTotals struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenditure decimal.Decimal `json:"total_expenditure"`
	Net              decimal.Decimal `json:"net"`
}

// LedgerRepository defines the interface for building ledger data access.
// Entries are append-only; there is deliberately no update or delete.
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByBuilding(ctx context.Context, buildingID uint, query *ListQuery) ([]models.LedgerEntry, int64, error)
	FindByDemand(ctx context.Context, demandID uint) ([]models.LedgerEntry, error)
	Totals(ctx context.Context, buildingID uint) (*LedgerTotals, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindByBuilding(ctx context.Context, buildingID uint, query *ListQuery) ([]models.LedgerEntry, int64, error) {
	var entries []models.LedgerEntry
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("building_id = ?", buildingID)

	if val, ok := query.Filters["entry_type"]; ok && val != "" {
		db = db.Where("entry_type = ?", val)
	}
	if val, ok := query.Filters["category"]; ok && val != "" {
		db = db.Where("category = ?", val)
	}
	if val, ok := query.Filters["start_date"]; ok && val != "" {
		db = db.Where("entry_date >= ?", val)
	}
	if val, ok := query.Filters["end_date"]; ok && val != "" {
		db = db.Where("entry_date <= ?", val)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("entry_date DESC, id DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&entries).Error
	return entries, total, err
}

func (r *ledgerRepository) FindByDemand(ctx context.Context, demandID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("demand_id = ?", demandID).
		Order("entry_date ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) Totals(ctx context.Context, buildingID uint) (*LedgerTotals, error) {
	var result struct {
		Income      decimal.Decimal
		Expenditure decimal.Decimal
	}

	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END), 0) as income, "+
			"COALESCE(SUM(CASE WHEN entry_type = ? THEN amount ELSE 0 END), 0) as expenditure",
			models.EntryTypeIncome, models.EntryTypeExpenditure).
		Where("building_id = ?", buildingID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &LedgerTotals{
		TotalIncome:      result.Income,
		TotalExpenditure: result.Expenditure,
		Net:              result.Income.Sub(result.Expenditure),
	}, nil
}
