package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/models"
	"gorm.io/gorm"
)

// DemandStats holds aggregate figures for a building's demands
type DemandStats struct {
	TotalDemanded    decimal.Decimal `json:"total_demanded"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OverdueCount     int64           `json:"overdue_count"`
}

// DemandRepository defines the interface for charge demand data access
type DemandRepository interface {
	FindByID(ctx context.Context, id uint) (*models.ChargeDemand, error)
	FindByBuilding(ctx context.Context, buildingID uint) ([]models.ChargeDemand, error)
	FindByBuildingAndStatus(ctx context.Context, buildingID uint, statuses []string) ([]models.ChargeDemand, error)
	FindByFlat(ctx context.Context, flatID uint) ([]models.ChargeDemand, error)
	InsertBatch(ctx context.Context, demands []*models.ChargeDemand) error
	Update(ctx context.Context, demand *models.ChargeDemand) error
	// ApplyPayment persists the mutated demand and appends the payment
	// record in a single transaction, so amountPaid can never drift from
	// the sum of the history.
	ApplyPayment(ctx context.Context, demand *models.ChargeDemand, record *models.PaymentRecord) error
	BilledFlatIDs(ctx context.Context, buildingID uint, period string) (map[uint]bool, error)
	List(ctx context.Context, query *ListQuery) ([]models.ChargeDemand, int64, error)
	GetStats(ctx context.Context, buildingID uint) (*DemandStats, error)
}

type demandRepository struct {
	db *gorm.DB
}

// NewDemandRepository creates a new demand repository
func NewDemandRepository(db *gorm.DB) DemandRepository {
	return &demandRepository{db: db}
}

func (r *demandRepository) FindByID(ctx context.Context, id uint) (*models.ChargeDemand, error) {
	var demand models.ChargeDemand
	err := r.db.WithContext(ctx).
		Preload("PaymentHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC, id ASC")
		}).
		Preload("Building").
		First(&demand, id).Error
	if err != nil {
		return nil, err
	}
	return &demand, nil
}

func (r *demandRepository) FindByBuilding(ctx context.Context, buildingID uint) ([]models.ChargeDemand, error) {
	var demands []models.ChargeDemand
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("due_date ASC, flat_number ASC").
		Find(&demands).Error
	return demands, err
}

func (r *demandRepository) FindByBuildingAndStatus(ctx context.Context, buildingID uint, statuses []string) ([]models.ChargeDemand, error) {
	var demands []models.ChargeDemand
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND status IN ?", buildingID, statuses).
		Order("due_date ASC").
		Find(&demands).Error
	return demands, err
}

func (r *demandRepository) FindByFlat(ctx context.Context, flatID uint) ([]models.ChargeDemand, error) {
	var demands []models.ChargeDemand
	err := r.db.WithContext(ctx).
		Preload("PaymentHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("recorded_at ASC, id ASC")
		}).
		Where("flat_id = ?", flatID).
		Order("due_date DESC").
		Find(&demands).Error
	return demands, err
}

func (r *demandRepository) InsertBatch(ctx context.Context, demands []*models.ChargeDemand) error {
	if len(demands) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(demands).Error
}

func (r *demandRepository) Update(ctx context.Context, demand *models.ChargeDemand) error {
	return r.db.WithContext(ctx).Omit("PaymentHistory", "Building", "Flat").Save(demand).Error
}

func (r *demandRepository) ApplyPayment(ctx context.Context, demand *models.ChargeDemand, record *models.PaymentRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("PaymentHistory", "Building", "Flat").Save(demand).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// BilledFlatIDs returns the set of flat ids that already have a demand for
// the given building and period. Used to keep generation idempotent.
func (r *demandRepository) BilledFlatIDs(ctx context.Context, buildingID uint, period string) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ChargeDemand{}).
		Where("building_id = ? AND period = ?", buildingID, period).
		Pluck("flat_id", &ids).Error
	if err != nil {
		return nil, err
	}
	billed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		billed[id] = true
	}
	return billed, nil
}

func (r *demandRepository) List(ctx context.Context, query *ListQuery) ([]models.ChargeDemand, int64, error) {
	var demands []models.ChargeDemand
	var total int64

	db := r.db.WithContext(ctx).Model(&models.ChargeDemand{})

	if val, ok := query.Filters["building_id"]; ok && val != "" {
		db = db.Where("charge_demands.building_id = ?", val)
	}
	if val, ok := query.Filters["period"]; ok && val != "" {
		db = db.Where("charge_demands.period = ?", val)
	}

	// Status filter: single value, comma list, or the virtual "unpaid"
	statusFilter := query.Filters["status"]
	if statusFilter != "" {
		if strings.Contains(statusFilter, ",") {
			statuses := strings.Split(statusFilter, ",")
			for i, s := range statuses {
				statuses[i] = strings.TrimSpace(s)
			}
			db = db.Where("charge_demands.status IN ?", statuses)
		} else if statusFilter == "unpaid" {
			db = db.Where("charge_demands.status <> ?", models.DemandStatusPaid)
		} else {
			db = db.Where("charge_demands.status = ?", statusFilter)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("charge_demands.flat_number ILIKE ? OR charge_demands.resident_name ILIKE ? OR charge_demands.period ILIKE ?",
			search, search, search)
	}

	// Count using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		switch order {
		case "due_date", "issued_date", "flat_number", "status", "outstanding_amount", "created_at":
			order = "charge_demands." + order
		default:
			order = "charge_demands.due_date"
		}
		if strings.ToLower(query.SortDir) == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("charge_demands.due_date ASC, charge_demands.flat_number ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Building").
		Find(&demands).Error
	if err != nil {
		return nil, 0, err
	}

	return demands, total, nil
}

func (r *demandRepository) GetStats(ctx context.Context, buildingID uint) (*DemandStats, error) {
	stats := &DemandStats{
		TotalDemanded:    decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}

	var result struct {
		Demanded    decimal.Decimal
		Collected   decimal.Decimal
		Outstanding decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.ChargeDemand{}).
		Select("COALESCE(SUM(total_amount_due), 0) as demanded, COALESCE(SUM(amount_paid), 0) as collected, COALESCE(SUM(outstanding_amount), 0) as outstanding").
		Where("building_id = ?", buildingID).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	stats.TotalDemanded = result.Demanded
	stats.TotalCollected = result.Collected
	stats.TotalOutstanding = result.Outstanding

	err = r.db.WithContext(ctx).
		Model(&models.ChargeDemand{}).
		Where("building_id = ? AND status = ?", buildingID, models.DemandStatusOverdue).
		Count(&stats.OverdueCount).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
