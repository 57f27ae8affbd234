package statemachine

import (
	"context"
	"fmt"

	"github.com/lendana/lendana-api/internal/models"
	"github.com/looplab/fsm"
)

// LoanFSM wraps a loan with its lifecycle state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine.
// Rejected and paid are terminal: no event leaves them.
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// pending → approved
			{Name: "approve", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusApproved},

			// pending → rejected
			{Name: "reject", Src: []string{models.LoanStatusPending}, Dst: models.LoanStatusRejected},

			// approved → paid, side effect of the final repayment only
			{Name: "settle", Src: []string{models.LoanStatusApproved}, Dst: models.LoanStatusPaid},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Approve transitions the loan to approved state
func (l *LoanFSM) Approve(ctx context.Context) error {
	if !l.loan.MayApprove() {
		return fmt.Errorf("loan application is not in %s status: %s", models.LoanStatusPending, l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "approve"); err != nil {
		return fmt.Errorf("failed to approve loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Reject transitions the loan to rejected state
func (l *LoanFSM) Reject(ctx context.Context) error {
	if !l.loan.MayReject() {
		return fmt.Errorf("loan application is not in %s status: %s", models.LoanStatusPending, l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "reject"); err != nil {
		return fmt.Errorf("failed to reject loan: %w", err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Settle transitions the loan to paid state once no installments remain
func (l *LoanFSM) Settle(ctx context.Context) error {
	if !l.loan.MaySettle() {
		return fmt.Errorf("loan cannot be settled: %d installments remaining in status %s",
			l.loan.InstallmentsRemaining, l.loan.Status)
	}

	if err := l.fsm.Event(ctx, "settle"); err != nil {
		return fmt.Errorf("failed to settle loan: %w", err)
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
