package services

import (
	"github.com/strataops/strata-api/internal/config"
	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Building     *BuildingService
	Demand       *DemandService
	Payment      *PaymentService
	Penalty      *PenaltyService
	Ledger       *LedgerService
	Notification *NotificationService
	Report       *ReportService
	Audit        *AuditService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	auditSvc := NewAuditService(db)

	// One lock table shared by every demand mutator, so payments, penalties
	// and reminders serialize against each other per demand.
	locks := newDemandLocks()

	return &Services{
		Building:     NewBuildingService(repos.Building, repos.Flat),
		Demand:       NewDemandService(repos.Demand, repos.Building, repos.Flat, notificationSvc, auditSvc, worker),
		Payment:      NewPaymentService(repos.Demand, repos.Ledger, notificationSvc, auditSvc, locks, worker),
		Penalty:      NewPenaltyService(repos.Demand, repos.Building, notificationSvc, locks, worker),
		Ledger:       NewLedgerService(repos.Ledger, repos.Demand, auditSvc),
		Notification: notificationSvc,
		Report:       NewReportService(repos.Demand, repos.Building, repos.Ledger),
		Audit:        auditSvc,
		Job:          NewJobService(worker),
	}
}
