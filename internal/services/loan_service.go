package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lendana/lendana-api/internal/jobs"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/lendana/lendana-api/internal/statemachine"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanService owns the loan lifecycle: submission, approval, rejection and
// the read paths scoped by ownership.
type LoanService struct {
	repo            repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	userRepo        repository.UserRepository
	uow             repository.UnitOfWork
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
	schedule        *ScheduleService
}

// NewLoanService creates a new loan service
func NewLoanService(
	repo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	userRepo repository.UserRepository,
	uow repository.UnitOfWork,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *LoanService {
	return &LoanService{
		repo:            repo,
		installmentRepo: installmentRepo,
		userRepo:        userRepo,
		uow:             uow,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		schedule:        NewScheduleService(),
	}
}

// Submit creates a new pending loan application. The weekly installment
// amount is fixed here, at submission time, and never recomputed.
func (s *LoanService) Submit(ctx context.Context, borrowerID uint, principal decimal.Decimal, termWeeks int) (*models.Loan, error) {
	if termWeeks <= 0 {
		return nil, fmt.Errorf("%w: loan term must be a positive number of weeks", ErrInvalidInput)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: loan amount must be positive", ErrInvalidInput)
	}

	loan := &models.Loan{
		Reference:             uuid.NewString(),
		BorrowerID:            borrowerID,
		Principal:             principal,
		TermWeeks:             termWeeks,
		Status:                models.LoanStatusPending,
		InstallmentAmount:     principal.Div(decimal.NewFromInt(int64(termWeeks))),
		InstallmentsRemaining: termWeeks,
	}

	if err := s.repo.Create(ctx, loan); err != nil {
		return nil, err
	}

	// Notify admins asynchronously
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx,
			"New loan application",
			fmt.Sprintf("A loan application for %s over %d weeks was submitted", principal, termWeeks),
			models.NotificationTypeLoanSubmitted)
	})

	s.auditSvc.Log(ctx, borrowerID, "SUBMIT", "Loan", loan.ID,
		fmt.Sprintf("Loan application submitted. Principal: %s, term: %d weeks, weekly installment: %s",
			loan.Principal, loan.TermWeeks, loan.InstallmentAmount), "", "")

	return loan, nil
}

// Approve approves a pending loan and materializes its repayment schedule.
// The whole read-check-write sequence runs in one transaction with the loan
// row locked: the Pending check, schedule creation and the status flip
// commit together, so concurrent approvals serialize and exactly one
// generates the schedule. A loan is never left approved without
// installments, nor pending with installments.
func (s *LoanService) Approve(ctx context.Context, id uint) (*models.Loan, error) {
	var loan *models.Loan

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		loan, err = r.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		fsm := statemachine.NewLoanFSM(loan)
		if err := fsm.Approve(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		installments, err := s.schedule.GenerateSchedule(ctx, loan)
		if err != nil {
			return fmt.Errorf("failed to generate repayment schedule: %w", err)
		}

		now := time.Now()
		loan.ApprovedAt = &now

		if err := r.Installment.CreateBatch(ctx, installments); err != nil {
			return fmt.Errorf("failed to create repayment schedule: %w", err)
		}
		return r.Loan.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	// Notify borrower asynchronously
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, loan.BorrowerID,
			"Loan approved",
			fmt.Sprintf("Your loan application %s has been approved", loan.Reference),
			models.NotificationTypeLoanApproved)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		borrower, err := s.userRepo.FindByID(ctx, loan.BorrowerID)
		if err != nil {
			return err
		}
		return s.emailSvc.SendLoanApproved(ctx, borrower, loan)
	})

	s.auditSvc.Log(ctx, loan.BorrowerID, "APPROVE", "Loan", loan.ID,
		fmt.Sprintf("Loan approved. %d weekly installments of %s generated", loan.TermWeeks, loan.InstallmentAmount), "", "")

	return loan, nil
}

// Reject rejects a pending loan. Rejected is terminal. The Pending check
// and the status write run under the same row lock as Approve, so a reject
// racing an approve cannot overwrite a committed approval.
func (s *LoanService) Reject(ctx context.Context, id uint, reason string) (*models.Loan, error) {
	var loan *models.Loan

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		var err error
		loan, err = r.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		fsm := statemachine.NewLoanFSM(loan)
		if err := fsm.Reject(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		if reason != "" {
			loan.RejectionReason = &reason
		}

		return r.Loan.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, loan.BorrowerID,
			"Loan rejected",
			fmt.Sprintf("Your loan application %s has been rejected", loan.Reference),
			models.NotificationTypeLoanRejected)
	})
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		borrower, err := s.userRepo.FindByID(ctx, loan.BorrowerID)
		if err != nil {
			return err
		}
		return s.emailSvc.SendLoanRejected(ctx, borrower, loan, reason)
	})

	s.auditSvc.Log(ctx, loan.BorrowerID, "REJECT", "Loan", loan.ID,
		fmt.Sprintf("Loan rejected. Reason: %s", reason), "", "")

	return loan, nil
}

// List returns loans visible to the caller: every loan for administrators,
// the borrower's own loans for everyone else.
func (s *LoanService) List(ctx context.Context, query *repository.LoanQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

// FindForUser returns the loan when the caller owns it or is an admin.
// Absent and inaccessible both come back as ErrNotFound.
func (s *LoanService) FindForUser(ctx context.Context, id, userID uint, isAdmin bool) (*models.Loan, error) {
	loan, err := s.repo.FindByIDWithSchedule(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && loan.BorrowerID != userID {
		return nil, ErrNotFound
	}
	return loan, nil
}

// Schedule returns the loan's installments ordered by due date.
func (s *LoanService) Schedule(ctx context.Context, loanID, userID uint, isAdmin bool) ([]models.Installment, error) {
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && loan.BorrowerID != userID {
		return nil, ErrNotFound
	}
	return s.installmentRepo.FindByLoan(ctx, loanID)
}

// GetStats returns loan counts by status.
func (s *LoanService) GetStats(ctx context.Context) (*repository.LoanStats, error) {
	return s.repo.GetStats(ctx)
}
