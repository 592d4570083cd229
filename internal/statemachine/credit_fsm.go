package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// Credit event names
const (
	EventMature   = "mature"
	EventWithdraw = "withdraw"
)

// CreditFSM wraps a credit with its state machine
type CreditFSM struct {
	credit *models.Credit
	fsm    *fsm.FSM
}

// NewCreditFSM creates a new credit state machine
func NewCreditFSM(credit *models.Credit) *CreditFSM {
	cfsm := &CreditFSM{
		credit: credit,
	}

	cfsm.fsm = fsm.NewFSM(
		credit.Status,
		fsm.Events{
			// active → matured (tenure elapsed)
			{Name: EventMature, Src: []string{models.CreditStatusActive}, Dst: models.CreditStatusMatured},

			// active/matured → withdrawn (nothing remaining)
			{Name: EventWithdraw, Src: []string{models.CreditStatusActive, models.CreditStatusMatured}, Dst: models.CreditStatusWithdrawn},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Mature transitions credit to matured state once its end date is reached
func (c *CreditFSM) Mature(ctx context.Context, asOf time.Time) error {
	if !c.credit.MayMature(asOf) {
		return fmt.Errorf("%w: credit cannot mature before %s in state %s",
			ErrTransitionNotAllowed, datemath.FormatISODate(c.credit.EndDate), c.credit.Status)
	}

	if err := c.fsm.Event(ctx, EventMature); err != nil {
		return fmt.Errorf("%w: failed to mature credit: %v", ErrTransitionNotAllowed, err)
	}

	c.credit.Status = c.fsm.Current()
	return nil
}

// Withdraw transitions credit to withdrawn state on withdrawnAt
func (c *CreditFSM) Withdraw(ctx context.Context, withdrawnAt time.Time) error {
	if !c.credit.MayWithdraw() {
		return fmt.Errorf("%w: credit cannot be withdrawn: remaining principal must be zero", ErrTransitionNotAllowed)
	}

	if err := c.fsm.Event(ctx, EventWithdraw); err != nil {
		return fmt.Errorf("%w: failed to withdraw credit: %v", ErrTransitionNotAllowed, err)
	}

	c.credit.Status = c.fsm.Current()
	if c.credit.WithdrawnAt == nil {
		at := datemath.Date(withdrawnAt)
		c.credit.WithdrawnAt = &at
	}
	return nil
}

// Current returns the current state
func (c *CreditFSM) Current() string {
	return c.fsm.Current()
}
