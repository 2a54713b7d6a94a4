package services

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
)

// memDemandRepo is an in-memory DemandRepository. FindByID returns a copy, so
// mutations only become visible after Update/ApplyPayment, mirroring how the
// GORM-backed repository behaves.
type memDemandRepo struct {
	mu      sync.Mutex
	demands map[uint]models.ChargeDemand
	records map[uint][]models.PaymentRecord
	nextID  uint
}

func newMemDemandRepo(demands ...models.ChargeDemand) *memDemandRepo {
	r := &memDemandRepo{
		demands: make(map[uint]models.ChargeDemand),
		records: make(map[uint][]models.PaymentRecord),
	}
	for _, d := range demands {
		if d.ID > r.nextID {
			r.nextID = d.ID
		}
		d.PaymentHistory = nil
		r.demands[d.ID] = d
	}
	return r
}

func (r *memDemandRepo) FindByID(ctx context.Context, id uint) (*models.ChargeDemand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.demands[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	d.PaymentHistory = append([]models.PaymentRecord(nil), r.records[id]...)
	return &d, nil
}

func (r *memDemandRepo) FindByBuilding(ctx context.Context, buildingID uint) ([]models.ChargeDemand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChargeDemand
	for _, d := range r.demands {
		if d.BuildingID == buildingID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDemandRepo) FindByBuildingAndStatus(ctx context.Context, buildingID uint, statuses []string) ([]models.ChargeDemand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChargeDemand
	for _, d := range r.demands {
		if d.BuildingID != buildingID {
			continue
		}
		for _, s := range statuses {
			if d.Status == s {
				out = append(out, d)
				break
			}
		}
	}
	return out, nil
}

func (r *memDemandRepo) FindByFlat(ctx context.Context, flatID uint) ([]models.ChargeDemand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChargeDemand
	for _, d := range r.demands {
		if d.FlatID == flatID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDemandRepo) InsertBatch(ctx context.Context, demands []*models.ChargeDemand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range demands {
		r.nextID++
		d.ID = r.nextID
		stored := *d
		stored.PaymentHistory = nil
		r.demands[d.ID] = stored
	}
	return nil
}

func (r *memDemandRepo) Update(ctx context.Context, demand *models.ChargeDemand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *demand
	stored.PaymentHistory = nil
	r.demands[demand.ID] = stored
	return nil
}

func (r *memDemandRepo) ApplyPayment(ctx context.Context, demand *models.ChargeDemand, record *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *demand
	stored.PaymentHistory = nil
	r.demands[demand.ID] = stored
	record.ID = uint(len(r.records[demand.ID]) + 1)
	r.records[demand.ID] = append(r.records[demand.ID], *record)
	return nil
}

func (r *memDemandRepo) BilledFlatIDs(ctx context.Context, buildingID uint, period string) (map[uint]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	billed := make(map[uint]bool)
	for _, d := range r.demands {
		if d.BuildingID == buildingID && d.Period == period {
			billed[d.FlatID] = true
		}
	}
	return billed, nil
}

func (r *memDemandRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.ChargeDemand, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChargeDemand
	for _, d := range r.demands {
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

func (r *memDemandRepo) GetStats(ctx context.Context, buildingID uint) (*repository.DemandStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.DemandStats{}
	for _, d := range r.demands {
		if d.BuildingID != buildingID {
			continue
		}
		stats.TotalDemanded = stats.TotalDemanded.Add(d.TotalAmountDue)
		stats.TotalCollected = stats.TotalCollected.Add(d.AmountPaid)
		stats.TotalOutstanding = stats.TotalOutstanding.Add(d.OutstandingAmount)
		if d.Status == models.DemandStatusOverdue {
			stats.OverdueCount++
		}
	}
	return stats, nil
}

type mockBuildingRepository struct {
	repository.BuildingRepository
	mockFindByID func(ctx context.Context, id uint) (*models.Building, error)
	mockFindAll  func(ctx context.Context) ([]models.Building, error)
}

func (m *mockBuildingRepository) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBuildingRepository) FindAll(ctx context.Context) ([]models.Building, error) {
	if m.mockFindAll != nil {
		return m.mockFindAll(ctx)
	}
	return nil, nil
}

type mockFlatRepository struct {
	repository.FlatRepository
	mockFindByBuilding func(ctx context.Context, buildingID uint) ([]models.Flat, error)
}

func (m *mockFlatRepository) FindByBuilding(ctx context.Context, buildingID uint) ([]models.Flat, error) {
	if m.mockFindByBuilding != nil {
		return m.mockFindByBuilding(ctx, buildingID)
	}
	return nil, nil
}

// mockNotificationRepository records created notifications; everything else
// is a no-op. Create is called from worker goroutines, hence the mutex.
type mockNotificationRepository struct {
	repository.NotificationRepository
	mu      sync.Mutex
	created []models.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *notification)
	return nil
}

func (m *mockNotificationRepository) all() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.created...)
}

type mockUserRepository struct {
	repository.UserRepository
}

// mockLedgerRepository records created entries; reads are unused in the
// service tests.
type mockLedgerRepository struct {
	repository.LedgerRepository
	mu         sync.Mutex
	entries    []models.LedgerEntry
	mockTotals func(ctx context.Context, buildingID uint) (*repository.LedgerTotals, error)
}

func (m *mockLedgerRepository) Totals(ctx context.Context, buildingID uint) (*repository.LedgerTotals, error) {
	if m.mockTotals != nil {
		return m.mockTotals(ctx, buildingID)
	}
	return &repository.LedgerTotals{}, nil
}

func (m *mockLedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedgerRepository) all() []models.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LedgerEntry(nil), m.entries...)
}
