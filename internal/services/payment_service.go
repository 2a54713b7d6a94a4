package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/models"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/statemachine"
	"github.com/strataops/strata-api/pkg/logger"
)

type PaymentService struct {
	repo            repository.DemandRepository
	ledgerRepo      repository.LedgerRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
	locks           *demandLocks
	worker          *jobs.Worker
}

func NewPaymentService(
	repo repository.DemandRepository,
	ledgerRepo repository.LedgerRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	locks *demandLocks,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		repo:            repo,
		ledgerRepo:      ledgerRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		locks:           locks,
		worker:          worker,
	}
}

// RecordPayment applies a payment to a demand and appends the immutable
// payment-history entry in the same transaction. Overpayment is allowed:
// amountPaid keeps the full cumulative figure while outstanding floors at
// zero. The per-demand lock serializes this against concurrent payments and
// the penalty sweep, so no update is lost.
func (s *PaymentService) RecordPayment(ctx context.Context, demandID uint, amount decimal.Decimal, date time.Time, method, reference string, recordedBy uint, ip, userAgent string) (*models.ChargeDemand, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	unlock := s.locks.Lock(demandID)
	defer unlock()

	demand, err := s.repo.FindByID(ctx, demandID)
	if err != nil {
		return nil, err
	}

	if !demand.MayAcceptPayment() {
		return nil, ErrInvalidState
	}

	now := time.Now()
	if date.IsZero() {
		date = now
	}
	if strings.TrimSpace(reference) == "" {
		reference = "PAY-" + strings.ToUpper(uuid.NewString()[:8])
	}

	record := &models.PaymentRecord{
		DemandID:     demand.ID,
		Amount:       amount,
		Date:         date,
		Method:       method,
		Reference:    reference,
		RecordedByID: recordedBy,
		RecordedAt:   now,
	}

	demand.AmountPaid = demand.AmountPaid.Add(amount)
	demand.RecalculateTotals()

	machine := statemachine.NewDemandFSM(demand)
	if demand.IsSettled() {
		if err := machine.Settle(ctx); err != nil {
			return nil, err
		}
	} else {
		if err := machine.PartialPayment(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.repo.ApplyPayment(ctx, demand, record); err != nil {
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}
	demand.PaymentHistory = append(demand.PaymentHistory, *record)

	// Income record for the building ledger: at-least-once, never rolls the
	// payment back. The payment history stays the source of truth.
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		entry := &models.LedgerEntry{
			BuildingID:   demand.BuildingID,
			DemandID:     &demand.ID,
			EntryType:    models.EntryTypeIncome,
			Amount:       amount,
			Category:     models.CategoryServiceCharge,
			Description:  fmt.Sprintf("Payment received for flat %s, %s (ref %s)", demand.FlatNumber, demand.Period, reference),
			EntryDate:    date,
			RecordedByID: recordedBy,
		}
		if err := s.ledgerRepo.Create(ctx, entry); err != nil {
			logger.Error("failed to write income record for payment",
				"demand_id", demand.ID, "reference", reference, "error", err)
			return err
		}
		return nil
	})

	// Notify the resident
	if demand.ResidentID != nil {
		residentID := *demand.ResidentID
		settled := demand.Status == models.DemandStatusPaid
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			if settled {
				return s.notificationSvc.NotifyUser(ctx, residentID,
					"Service charge settled",
					fmt.Sprintf("Your service charge for flat %s (%s) is now fully paid", demand.FlatNumber, demand.Period),
					models.NotificationTypeDemandSettled)
			}
			return s.notificationSvc.NotifyUser(ctx, residentID,
				"Payment recorded",
				fmt.Sprintf("A payment of %s was recorded against flat %s (%s); outstanding %s",
					amount.StringFixed(2), demand.FlatNumber, demand.Period, demand.OutstandingAmount.StringFixed(2)),
				models.NotificationTypePaymentRecorded)
		})
	}

	s.auditSvc.Log(ctx, recordedBy, "RECORD_PAYMENT", "ChargeDemand", demand.ID,
		fmt.Sprintf("Payment of %s recorded for demand #%d (ref %s)", amount.StringFixed(2), demand.ID, reference), ip, userAgent)

	return demand, nil
}

// PaymentHistory returns a demand's ordered payment records
func (s *PaymentService) PaymentHistory(ctx context.Context, demandID uint) ([]models.PaymentRecord, error) {
	demand, err := s.repo.FindByID(ctx, demandID)
	if err != nil {
		return nil, err
	}
	return demand.PaymentHistory, nil
}
