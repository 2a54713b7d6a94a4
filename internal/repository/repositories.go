package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Building     BuildingRepository
	Flat         FlatRepository
	Demand       DemandRepository
	Ledger       LedgerRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Building:     NewBuildingRepository(db),
		Flat:         NewFlatRepository(db),
		Demand:       NewDemandRepository(db),
		Ledger:       NewLedgerRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
