package statemachine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/fintera-lending/internal/finance/datemath"
	"github.com/sjperalta/fintera-lending/internal/models"
)

// ErrTransitionNotAllowed is returned when an event does not apply to the
// contract's current state
var ErrTransitionNotAllowed = errors.New("transition not allowed")

// Loan event names
const (
	EventFlagNonPerforming = "flag_non_performing"
	EventProvision         = "provision"
	EventCure              = "cure"
	EventPreliquidate      = "preliquidate"
)

// LoanFSM wraps a loan with its state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine. Legacy statuses start from
// their canonical state.
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.CanonicalStatus(),
		fsm.Events{
			// performing → non_performing
			{Name: EventFlagNonPerforming, Src: []string{models.LoanStatusPerforming}, Dst: models.LoanStatusNonPerforming},

			// non_performing → full_provision
			{Name: EventProvision, Src: []string{models.LoanStatusNonPerforming}, Dst: models.LoanStatusFullProvision},

			// non_performing → performing
			{Name: EventCure, Src: []string{models.LoanStatusNonPerforming}, Dst: models.LoanStatusPerforming},

			// performing/non_performing → preliquidated (requires full repayment)
			{Name: EventPreliquidate, Src: []string{models.LoanStatusPerforming, models.LoanStatusNonPerforming}, Dst: models.LoanStatusPreliquidated},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// FlagNonPerforming transitions loan to non_performing state
func (l *LoanFSM) FlagNonPerforming(ctx context.Context) error {
	if !l.loan.MayFlagNonPerforming() {
		return fmt.Errorf("%w: loan cannot be flagged non performing in current state: %s", ErrTransitionNotAllowed, l.loan.Status)
	}
	return l.fire(ctx, EventFlagNonPerforming)
}

// Provision transitions loan to full_provision state
func (l *LoanFSM) Provision(ctx context.Context) error {
	if !l.loan.MayProvision() {
		return fmt.Errorf("%w: loan cannot be provisioned in current state: %s", ErrTransitionNotAllowed, l.loan.Status)
	}
	return l.fire(ctx, EventProvision)
}

// Cure transitions loan from non_performing back to performing
func (l *LoanFSM) Cure(ctx context.Context) error {
	if !l.loan.MayCure() {
		return fmt.Errorf("%w: loan cannot be cured in current state: %s", ErrTransitionNotAllowed, l.loan.Status)
	}
	return l.fire(ctx, EventCure)
}

// Preliquidate closes a fully repaid loan on closedAt
func (l *LoanFSM) Preliquidate(ctx context.Context, closedAt time.Time) error {
	if !l.loan.MayPreliquidate() {
		return fmt.Errorf("%w: loan cannot be preliquidated: principal must be fully repaid", ErrTransitionNotAllowed)
	}
	if err := l.fire(ctx, EventPreliquidate); err != nil {
		return err
	}
	closed := datemath.Date(closedAt)
	l.loan.ClosedAt = &closed
	return nil
}

// Fire dispatches a named event
func (l *LoanFSM) Fire(ctx context.Context, event string, at time.Time) error {
	switch event {
	case EventFlagNonPerforming:
		return l.FlagNonPerforming(ctx)
	case EventProvision:
		return l.Provision(ctx)
	case EventCure:
		return l.Cure(ctx)
	case EventPreliquidate:
		return l.Preliquidate(ctx, at)
	default:
		return fmt.Errorf("%w: unknown event %q", ErrTransitionNotAllowed, event)
	}
}

// EscalateTo walks the loan forward through the delinquency states until it
// reaches target
func (l *LoanFSM) EscalateTo(ctx context.Context, target string) error {
	for l.Current() != target {
		var err error
		switch l.Current() {
		case models.LoanStatusPerforming:
			err = l.FlagNonPerforming(ctx)
		case models.LoanStatusNonPerforming:
			err = l.Provision(ctx)
		default:
			return fmt.Errorf("%w: cannot escalate %s to %s", ErrTransitionNotAllowed, l.Current(), target)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *LoanFSM) fire(ctx context.Context, event string) error {
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: failed to %s loan: %v", ErrTransitionNotAllowed, event, err)
	}
	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}

// AvailableEvents lists the events staff can fire on the loan right now.
// Archived loans accept none.
func (l *LoanFSM) AvailableEvents() []string {
	events := []string{}
	if l.loan.Archived {
		return events
	}
	guarded := []struct {
		event   string
		allowed bool
	}{
		{EventFlagNonPerforming, l.loan.MayFlagNonPerforming()},
		{EventProvision, l.loan.MayProvision()},
		{EventCure, l.loan.MayCure()},
		{EventPreliquidate, l.loan.MayPreliquidate()},
	}
	for _, g := range guarded {
		if g.allowed && l.Can(g.event) {
			events = append(events, g.event)
		}
	}
	return events
}
