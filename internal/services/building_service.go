package services

import (
	"context"

	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
)

// BuildingService exposes the building and flat records the billing
// lifecycle hangs off. Full property CRUD lives in the management app; this
// service carries only what demand generation and reporting need.
type BuildingService struct {
	repo     repository.BuildingRepository
	flatRepo repository.FlatRepository
}

func NewBuildingService(repo repository.BuildingRepository, flatRepo repository.FlatRepository) *BuildingService {
	return &BuildingService{repo: repo, flatRepo: flatRepo}
}

func (s *BuildingService) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *BuildingService) List(ctx context.Context, query *repository.ListQuery) ([]models.Building, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *BuildingService) Flats(ctx context.Context, buildingID uint) ([]models.Flat, error) {
	return s.flatRepo.FindByBuilding(ctx, buildingID)
}

func (s *BuildingService) FlatsByResident(ctx context.Context, residentID uint) ([]models.Flat, error) {
	return s.flatRepo.FindByResident(ctx, residentID)
}
