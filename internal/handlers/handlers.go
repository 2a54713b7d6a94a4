package handlers

import (
	"github.com/strataops/strata-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Building     *BuildingHandler
	Demand       *DemandHandler
	Ledger       *LedgerHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Building:     NewBuildingHandler(svcs.Building),
		Demand:       NewDemandHandler(svcs.Demand, svcs.Payment, svcs.Penalty),
		Ledger:       NewLedgerHandler(svcs.Ledger),
		Notification: NewNotificationHandler(svcs.Notification),
		Report:       NewReportHandler(svcs.Report),
		Job:          NewJobHandler(svcs.Job),
	}
}
