package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/strataops/strata-api/internal/models"
)

// DemandFSM wraps a charge demand with its status state machine.
// Paid is terminal: no event leaves it.
type DemandFSM struct {
	demand *models.ChargeDemand
	fsm    *fsm.FSM
}

// NewDemandFSM creates a new demand state machine seeded with the demand's
// stored status
func NewDemandFSM(demand *models.ChargeDemand) *DemandFSM {
	d := &DemandFSM{
		demand: demand,
	}

	d.fsm = fsm.NewFSM(
		demand.Status,
		fsm.Events{
			// issued/overdue → partially_paid (payment below total; a
			// penalized demand re-enters partially_paid but keeps its penalty)
			{Name: "partial_payment", Src: []string{models.DemandStatusIssued, models.DemandStatusOverdue}, Dst: models.DemandStatusPartiallyPaid},

			// any unpaid state → paid (payment covers total)
			{Name: "settle", Src: []string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid, models.DemandStatusOverdue}, Dst: models.DemandStatusPaid},

			// issued/partially_paid → overdue (grace period elapsed)
			{Name: "mark_overdue", Src: []string{models.DemandStatusIssued, models.DemandStatusPartiallyPaid}, Dst: models.DemandStatusOverdue},
		},
		fsm.Callbacks{},
	)

	return d
}

// PartialPayment transitions the demand to partially_paid
func (d *DemandFSM) PartialPayment(ctx context.Context) error {
	if !d.demand.MayAcceptPayment() {
		return fmt.Errorf("demand cannot accept payments in current state: %s", d.demand.Status)
	}

	// Repeated partial payments keep the demand in partially_paid
	if d.fsm.Current() == models.DemandStatusPartiallyPaid {
		return nil
	}

	if err := d.fsm.Event(ctx, "partial_payment"); err != nil {
		return fmt.Errorf("failed to record partial payment: %w", err)
	}

	d.demand.Status = d.fsm.Current()
	return nil
}

// Settle transitions the demand to paid
func (d *DemandFSM) Settle(ctx context.Context) error {
	if !d.demand.MaySettle() {
		return fmt.Errorf("demand cannot be settled in current state: %s", d.demand.Status)
	}

	if err := d.fsm.Event(ctx, "settle"); err != nil {
		return fmt.Errorf("failed to settle demand: %w", err)
	}

	d.demand.Status = d.fsm.Current()
	return nil
}

// MarkOverdue transitions the demand to overdue
func (d *DemandFSM) MarkOverdue(ctx context.Context) error {
	if !d.demand.MayMarkOverdue() {
		return fmt.Errorf("demand cannot be marked overdue in current state: %s", d.demand.Status)
	}

	if err := d.fsm.Event(ctx, "mark_overdue"); err != nil {
		return fmt.Errorf("failed to mark demand overdue: %w", err)
	}

	d.demand.Status = d.fsm.Current()
	return nil
}

// Current returns the current state
func (d *DemandFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DemandFSM) Can(event string) bool {
	return d.fsm.Can(event)
}
