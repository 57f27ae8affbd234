package statemachine

import (
	"context"
	"testing"

	"github.com/lendana/lendana-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestLoanFSM_ApprovePending(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusPending}
	fsm := NewLoanFSM(loan)

	err := fsm.Approve(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)
	assert.Equal(t, models.LoanStatusApproved, fsm.Current())
}

func TestLoanFSM_RejectPending(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusPending}
	fsm := NewLoanFSM(loan)

	err := fsm.Reject(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusRejected, loan.Status)
}

func TestLoanFSM_ApproveNonPending(t *testing.T) {
	for _, status := range []string{models.LoanStatusApproved, models.LoanStatusRejected, models.LoanStatusPaid} {
		loan := &models.Loan{Status: status}
		fsm := NewLoanFSM(loan)

		err := fsm.Approve(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "pending")
		assert.Equal(t, status, loan.Status)
	}
}

func TestLoanFSM_RejectNonPending(t *testing.T) {
	for _, status := range []string{models.LoanStatusApproved, models.LoanStatusRejected, models.LoanStatusPaid} {
		loan := &models.Loan{Status: status}
		fsm := NewLoanFSM(loan)

		err := fsm.Reject(context.Background())
		assert.Error(t, err)
		assert.Equal(t, status, loan.Status)
	}
}

func TestLoanFSM_SettleApprovedWithZeroRemaining(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusApproved, InstallmentsRemaining: 0}
	fsm := NewLoanFSM(loan)

	err := fsm.Settle(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPaid, loan.Status)
}

func TestLoanFSM_SettleWithInstallmentsRemaining(t *testing.T) {
	loan := &models.Loan{Status: models.LoanStatusApproved, InstallmentsRemaining: 3}
	fsm := NewLoanFSM(loan)

	err := fsm.Settle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)
}

func TestLoanFSM_SettleNonApproved(t *testing.T) {
	for _, status := range []string{models.LoanStatusPending, models.LoanStatusRejected, models.LoanStatusPaid} {
		loan := &models.Loan{Status: status, InstallmentsRemaining: 0}
		fsm := NewLoanFSM(loan)

		err := fsm.Settle(context.Background())
		assert.Error(t, err)
		assert.Equal(t, status, loan.Status)
	}
}

func TestLoanFSM_TerminalStatesHaveNoTransitions(t *testing.T) {
	for _, status := range []string{models.LoanStatusRejected, models.LoanStatusPaid} {
		loan := &models.Loan{Status: status}
		fsm := NewLoanFSM(loan)

		assert.False(t, fsm.Can("approve"))
		assert.False(t, fsm.Can("reject"))
		assert.False(t, fsm.Can("settle"))
	}
}
