package repository

import (
	"context"
	"strings"

	"github.com/strataops/strata-api/internal/models"
	"gorm.io/gorm"
)

// BuildingRepository defines the interface for building data access
type BuildingRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Building, error)
	FindAll(ctx context.Context) ([]models.Building, error)
	Create(ctx context.Context, building *models.Building) error
	Update(ctx context.Context, building *models.Building) error
	List(ctx context.Context, query *ListQuery) ([]models.Building, int64, error)
}

type buildingRepository struct {
	db *gorm.DB
}

// NewBuildingRepository creates a new building repository
func NewBuildingRepository(db *gorm.DB) BuildingRepository {
	return &buildingRepository{db: db}
}

func (r *buildingRepository) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	var building models.Building
	err := r.db.WithContext(ctx).First(&building, id).Error
	if err != nil {
		return nil, err
	}
	return &building, nil
}

func (r *buildingRepository) FindAll(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	err := r.db.WithContext(ctx).Order("name ASC").Find(&buildings).Error
	return buildings, err
}

func (r *buildingRepository) Create(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Create(building).Error
}

func (r *buildingRepository) Update(ctx context.Context, building *models.Building) error {
	return r.db.WithContext(ctx).Save(building).Error
}

func (r *buildingRepository) List(ctx context.Context, query *ListQuery) ([]models.Building, int64, error) {
	var buildings []models.Building
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Building{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("buildings.name ILIKE ? OR buildings.address ILIKE ?", search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if strings.ToLower(query.SortDir) == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("buildings.name ASC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Flats").Find(&buildings).Error
	return buildings, total, err
}

// FlatRepository defines the interface for flat data access
type FlatRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Flat, error)
	FindByBuilding(ctx context.Context, buildingID uint) ([]models.Flat, error)
	FindByResident(ctx context.Context, residentID uint) ([]models.Flat, error)
	Create(ctx context.Context, flat *models.Flat) error
	Update(ctx context.Context, flat *models.Flat) error
}

type flatRepository struct {
	db *gorm.DB
}

// NewFlatRepository creates a new flat repository
func NewFlatRepository(db *gorm.DB) FlatRepository {
	return &flatRepository{db: db}
}

func (r *flatRepository) FindByID(ctx context.Context, id uint) (*models.Flat, error) {
	var flat models.Flat
	err := r.db.WithContext(ctx).
		Preload("Building").
		Preload("Resident").
		First(&flat, id).Error
	if err != nil {
		return nil, err
	}
	return &flat, nil
}

func (r *flatRepository) FindByBuilding(ctx context.Context, buildingID uint) ([]models.Flat, error) {
	var flats []models.Flat
	err := r.db.WithContext(ctx).
		Preload("Resident").
		Where("building_id = ?", buildingID).
		Order("number ASC").
		Find(&flats).Error
	return flats, err
}

func (r *flatRepository) FindByResident(ctx context.Context, residentID uint) ([]models.Flat, error) {
	var flats []models.Flat
	err := r.db.WithContext(ctx).
		Preload("Building").
		Where("resident_id = ?", residentID).
		Find(&flats).Error
	return flats, err
}

func (r *flatRepository) Create(ctx context.Context, flat *models.Flat) error {
	return r.db.WithContext(ctx).Create(flat).Error
}

func (r *flatRepository) Update(ctx context.Context, flat *models.Flat) error {
	return r.db.WithContext(ctx).Save(flat).Error
}
