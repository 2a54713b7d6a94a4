package services

import (
	"context"
	"fmt"
	"time"

	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/statemachine"
	"github.com/strataops/strata-api/pkg/logger"
)

// PenaltyService runs the late-payment penalty sweep and the reminder
// machinery. Both are batch operations triggered by the scheduler or an
// admin endpoint; neither polls the clock on its own.
type PenaltyService struct {
	repo            repository.DemandRepository
	buildingRepo    repository.BuildingRepository
	notificationSvc *NotificationService
	locks           *demandLocks
	worker          *jobs.Worker
}

func NewPenaltyService(
	repo repository.DemandRepository,
	buildingRepo repository.BuildingRepository,
	notificationSvc *NotificationService,
	locks *demandLocks,
	worker *jobs.Worker,
) *PenaltyService {
	return &PenaltyService{
		repo:            repo,
		buildingRepo:    buildingRepo,
		notificationSvc: notificationSvc,
		locks:           locks,
		worker:          worker,
	}
}

// ApplyPenalties applies the one-time flat penalty to every unpaid demand of
// the building whose grace period has elapsed at the given instant. Returns
// how many demands were penalized. Idempotent per demand: once
// penaltyAppliedAt is set the demand is skipped on every later run. Paid
// demands are never scanned, so a demand settled late accrues no penalty.
func (s *PenaltyService) ApplyPenalties(ctx context.Context, buildingID uint, now time.Time) (int, error) {
	demands, err := s.repo.FindByBuildingAndStatus(ctx, buildingID,
		[]string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid})
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range demands {
		penalized, err := s.applyPenalty(ctx, demands[i].ID, now)
		if err != nil {
			logger.Error("penalty sweep failed for demand",
				"demand_id", demands[i].ID, "error", err)
			continue
		}
		if penalized {
			count++
		}
	}
	return count, nil
}

// applyPenalty re-reads the demand under its lock so the decision is made
// against current state, not the snapshot the sweep listed.
func (s *PenaltyService) applyPenalty(ctx context.Context, demandID uint, now time.Time) (bool, error) {
	unlock := s.locks.Lock(demandID)
	defer unlock()

	demand, err := s.repo.FindByID(ctx, demandID)
	if err != nil {
		return false, err
	}

	if !demand.MayApplyPenalty(now) {
		return false, nil
	}

	if demand.PenaltyConfig.Type != models.PenaltyTypeFlatFee {
		logger.Warn("unsupported penalty type, skipping demand",
			"demand_id", demand.ID, "penalty_type", demand.PenaltyConfig.Type)
		return false, nil
	}

	demand.PenaltyAmountApplied = demand.PenaltyConfig.FlatAmount
	demand.RecalculateTotals()
	demand.PenaltyAppliedAt = &now

	machine := statemachine.NewDemandFSM(demand)
	if err := machine.MarkOverdue(ctx); err != nil {
		return false, err
	}

	if err := s.repo.Update(ctx, demand); err != nil {
		return false, err
	}

	if demand.ResidentID != nil {
		residentID := *demand.ResidentID
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyUser(ctx, residentID,
				"Late payment penalty applied",
				fmt.Sprintf("A penalty of %s was added to the service charge for flat %s (%s); total due is now %s",
					demand.PenaltyAmountApplied.StringFixed(2), demand.FlatNumber, demand.Period, demand.TotalAmountDue.StringFixed(2)),
				models.NotificationTypePenaltyApplied)
		})
	}

	return true, nil
}

// ApplyPenaltiesAllBuildings runs the penalty sweep for every building.
// Scheduled nightly.
func (s *PenaltyService) ApplyPenaltiesAllBuildings(ctx context.Context) error {
	buildings, err := s.buildingRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, b := range buildings {
		count, err := s.ApplyPenalties(ctx, b.ID, now)
		if err != nil {
			logger.Error("penalty sweep failed for building", "building_id", b.ID, "error", err)
			continue
		}
		if count > 0 {
			logger.Info("penalty sweep applied penalties", "building_id", b.ID, "count", count)
		}
	}
	return nil
}

// SendReminder increments the demand's reminder counter unless the cap has
// been reached; at the cap it is a silent no-op, not an error. Whether a
// reminder is warranted right now is the caller's decision (see
// SendDueReminders for the scheduled eligibility sweep).
func (s *PenaltyService) SendReminder(ctx context.Context, demandID uint) error {
	unlock := s.locks.Lock(demandID)
	defer unlock()

	demand, err := s.repo.FindByID(ctx, demandID)
	if err != nil {
		return err
	}

	if !demand.MayRemind() {
		return nil
	}

	demand.RemindersSent++
	if err := s.repo.Update(ctx, demand); err != nil {
		return err
	}

	if demand.ResidentID != nil {
		residentID := *demand.ResidentID
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyUser(ctx, residentID,
				"Payment reminder",
				fmt.Sprintf("Reminder: %s is outstanding on the service charge for flat %s (%s), due %s",
					demand.OutstandingAmount.StringFixed(2), demand.FlatNumber, demand.Period, demand.DueDate.Format("02 Jan 2006")),
				models.NotificationTypePaymentReminder)
		})
	}

	return nil
}

// SendDueReminders sends reminders for every unpaid demand of the building
// whose signed day-distance from its due date matches one of its configured
// reminder offsets (negative offsets fire before the due date). Returns how
// many reminders went out. The per-demand cap still governs through
// SendReminder.
func (s *PenaltyService) SendDueReminders(ctx context.Context, buildingID uint, now time.Time) (int, error) {
	demands, err := s.repo.FindByBuildingAndStatus(ctx, buildingID,
		[]string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid, models.DemandStatusOverdue})
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range demands {
		d := &demands[i]
		if !d.RemindersConfig.ReminderDays.Contains(d.DaysFromDue(now)) {
			continue
		}
		if !d.MayRemind() {
			continue
		}
		if err := s.SendReminder(ctx, d.ID); err != nil {
			logger.Error("failed to send reminder", "demand_id", d.ID, "error", err)
			continue
		}
		count++
	}
	return count, nil
}

// SendDueRemindersAllBuildings runs the reminder sweep for every building.
// Scheduled daily.
func (s *PenaltyService) SendDueRemindersAllBuildings(ctx context.Context) error {
	buildings, err := s.buildingRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, b := range buildings {
		count, err := s.SendDueReminders(ctx, b.ID, now)
		if err != nil {
			logger.Error("reminder sweep failed for building", "building_id", b.ID, "error", err)
			continue
		}
		if count > 0 {
			logger.Info("reminder sweep sent reminders", "building_id", b.ID, "count", count)
		}
	}
	return nil
}
