package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lendana/lendana-api/internal/config"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoanService_Submit(t *testing.T) {
	f := newServiceFixture()

	loan, err := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	assert.NoError(t, err)
	assert.NotZero(t, loan.ID)
	assert.NotEmpty(t, loan.Reference)
	assert.Equal(t, uint(7), loan.BorrowerID)
	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.Equal(t, 10, loan.InstallmentsRemaining)
	assert.True(t, loan.InstallmentAmount.Equal(decimal.NewFromInt(500)),
		"weekly installment should be principal divided by term, got %s", loan.InstallmentAmount)
}

func TestLoanService_SubmitFixesInstallmentAtSubmission(t *testing.T) {
	f := newServiceFixture()

	loan, err := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(1000), 3)

	assert.NoError(t, err)
	assert.True(t, loan.InstallmentAmount.Equal(decimal.NewFromInt(1000).Div(decimal.NewFromInt(3))))
}

func TestLoanService_SubmitInvalidTerm(t *testing.T) {
	f := newServiceFixture()

	for _, term := range []int{0, -4} {
		_, err := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), term)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestLoanService_SubmitInvalidAmount(t *testing.T) {
	f := newServiceFixture()

	_, err := f.loanSvc.Submit(context.Background(), 7, decimal.Zero, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(-100), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoanService_SubmitTermCheckedBeforeAmount(t *testing.T) {
	f := newServiceFixture()

	_, err := f.loanSvc.Submit(context.Background(), 7, decimal.Zero, 0)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "term")
}

func TestLoanService_Approve(t *testing.T) {
	f := newServiceFixture()
	submitted, err := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)
	assert.NoError(t, err)

	loan, err := f.loanSvc.Approve(context.Background(), submitted.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)
	assert.NotNil(t, loan.ApprovedAt)

	schedule, err := f.installments.FindByLoan(context.Background(), loan.ID)
	assert.NoError(t, err)
	assert.Len(t, schedule, 10)
	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.WeekNumber)
		assert.True(t, inst.AmountDue.Equal(decimal.NewFromInt(500)))
		assert.False(t, inst.Paid)
	}
}

func TestLoanService_ApproveNotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.loanSvc.Approve(context.Background(), 999)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_ApproveNonPending(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)
	_, err := f.loanSvc.Approve(context.Background(), submitted.ID)
	assert.NoError(t, err)

	_, err = f.loanSvc.Approve(context.Background(), submitted.ID)

	assert.ErrorIs(t, err, ErrInvalidState)

	// No second schedule materialized
	schedule, _ := f.installments.FindByLoan(context.Background(), submitted.ID)
	assert.Len(t, schedule, 10)
}

func TestLoanService_Reject(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	loan, err := f.loanSvc.Reject(context.Background(), submitted.ID, "insufficient income")

	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusRejected, loan.Status)
	assert.NotNil(t, loan.RejectionReason)
	assert.Equal(t, "insufficient income", *loan.RejectionReason)

	// No schedule for a rejected loan
	schedule, _ := f.installments.FindByLoan(context.Background(), submitted.ID)
	assert.Empty(t, schedule)
}

func TestLoanService_RejectWithoutReason(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	loan, err := f.loanSvc.Reject(context.Background(), submitted.ID, "")

	assert.NoError(t, err)
	assert.Nil(t, loan.RejectionReason)
}

func TestLoanService_RejectNotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.loanSvc.Reject(context.Background(), 999, "")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_RejectNonPending(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)
	_, err := f.loanSvc.Approve(context.Background(), submitted.ID)
	assert.NoError(t, err)

	_, err = f.loanSvc.Reject(context.Background(), submitted.ID, "changed our mind")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoanService_FindForUserOwner(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	loan, err := f.loanSvc.FindForUser(context.Background(), submitted.ID, 7, false)

	assert.NoError(t, err)
	assert.Equal(t, submitted.ID, loan.ID)
}

func TestLoanService_FindForUserOtherBorrower(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	_, err := f.loanSvc.FindForUser(context.Background(), submitted.ID, 8, false)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_FindForUserAdmin(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	loan, err := f.loanSvc.FindForUser(context.Background(), submitted.ID, 99, true)

	assert.NoError(t, err)
	assert.Equal(t, submitted.ID, loan.ID)
}

func TestLoanService_ScheduleOwnership(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)
	_, err := f.loanSvc.Approve(context.Background(), submitted.ID)
	assert.NoError(t, err)

	schedule, err := f.loanSvc.Schedule(context.Background(), submitted.ID, 7, false)
	assert.NoError(t, err)
	assert.Len(t, schedule, 10)

	_, err = f.loanSvc.Schedule(context.Background(), submitted.ID, 8, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_ScheduleDueDatesWeekly(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(900), 3)
	approved, err := f.loanSvc.Approve(context.Background(), submitted.ID)
	assert.NoError(t, err)

	schedule, err := f.loanSvc.Schedule(context.Background(), approved.ID, 7, false)
	assert.NoError(t, err)
	assert.Len(t, schedule, 3)
	for i := 1; i < len(schedule); i++ {
		gap := schedule[i].DueDate.Sub(schedule[i-1].DueDate)
		assert.Equal(t, 7*24*time.Hour, gap)
	}
}

func TestLoanService_ConcurrentApprovalsGenerateOneSchedule(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.loanSvc.Approve(context.Background(), submitted.ID)
		}(i)
	}
	close(start)
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidState)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "exactly one of two concurrent approvals must fail")

	schedule, err := f.installments.FindByLoan(context.Background(), submitted.ID)
	assert.NoError(t, err)
	assert.Len(t, schedule, 10)

	stored, _ := f.loans.FindByID(context.Background(), submitted.ID)
	assert.Equal(t, models.LoanStatusApproved, stored.Status)
}

func TestLoanService_ConcurrentApproveAndReject(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	start := make(chan struct{})
	var approveErr, rejectErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, approveErr = f.loanSvc.Approve(context.Background(), submitted.ID)
	}()
	go func() {
		defer wg.Done()
		<-start
		_, rejectErr = f.loanSvc.Reject(context.Background(), submitted.ID, "race")
	}()
	close(start)
	wg.Wait()

	stored, _ := f.loans.FindByID(context.Background(), submitted.ID)
	schedule, _ := f.installments.FindByLoan(context.Background(), submitted.ID)

	switch stored.Status {
	case models.LoanStatusApproved:
		assert.NoError(t, approveErr)
		assert.ErrorIs(t, rejectErr, ErrInvalidState)
		assert.Len(t, schedule, 10)
	case models.LoanStatusRejected:
		assert.NoError(t, rejectErr)
		assert.ErrorIs(t, approveErr, ErrInvalidState)
		assert.Empty(t, schedule, "a rejected loan must not carry a schedule")
	default:
		t.Fatalf("loan ended in unexpected status %q", stored.Status)
	}
}

func TestLoanService_ApproveAtomicity(t *testing.T) {
	f := newServiceFixture()
	submitted, _ := f.loanSvc.Submit(context.Background(), 7, decimal.NewFromInt(5000), 10)

	// A failing unit of work must leave the loan pending
	failing := &failingUnitOfWork{}
	svc := NewLoanService(f.loans, f.installments, f.users, failing,
		NewNotificationService(f.notifications, f.users), NewEmailService(&config.Config{}), NewAuditService(nil), f.worker)

	_, err := svc.Approve(context.Background(), submitted.ID)
	assert.Error(t, err)

	stored, err := f.loans.FindByID(context.Background(), submitted.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPending, stored.Status)
}

type failingUnitOfWork struct{}

func (f *failingUnitOfWork) Do(ctx context.Context, fn func(r *repository.Repositories) error) error {
	return errors.New("transaction rolled back")
}
