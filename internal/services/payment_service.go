package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lendana/lendana-api/internal/jobs"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/lendana/lendana-api/internal/statemachine"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentService applies repayments to a loan's installment schedule
type PaymentService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	userRepo        repository.UserRepository
	uow             repository.UnitOfWork
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	worker          *jobs.Worker
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	userRepo repository.UserRepository,
	uow repository.UnitOfWork,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	worker *jobs.Worker,
) *PaymentService {
	return &PaymentService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		userRepo:        userRepo,
		uow:             uow,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		worker:          worker,
	}
}

// RecordPayment applies one repayment to the borrower's loan.
//
// Preconditions are checked in order; the first failure decides the error:
// ownership, already paid, rejected, not yet approved, amount at least the
// weekly installment, an unpaid installment left to settle. The whole
// read-check-write sequence runs in one transaction with the loan row
// locked, so two concurrent payments against the same loan cannot settle
// the same installment or double-decrement the remaining count.
//
// The earliest-due unpaid installment is settled and the tendered amount is
// recorded on it verbatim; an overpayment is neither capped nor spread.
func (s *PaymentService) RecordPayment(ctx context.Context, loanID, borrowerID uint, amountPaid decimal.Decimal) (*models.Installment, error) {
	var settled *models.Installment
	var loanPaid *models.Loan

	err := s.uow.Do(ctx, func(r *repository.Repositories) error {
		loan, err := r.Loan.FindByIDForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if loan.BorrowerID != borrowerID {
			return ErrNotFound
		}

		switch loan.Status {
		case models.LoanStatusPaid:
			return ErrAlreadyPaid
		case models.LoanStatusRejected:
			return ErrRejected
		case models.LoanStatusPending:
			return ErrNotApproved
		case models.LoanStatusApproved:
			// accepts payments
		default:
			return fmt.Errorf("%w: unknown loan status %q", ErrInvalidState, loan.Status)
		}

		if amountPaid.LessThan(loan.InstallmentAmount) {
			return ErrInsufficientAmount
		}

		installment, err := r.Installment.FindNextUnpaidForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoScheduleFound
			}
			return err
		}

		now := time.Now()
		installment.Paid = true
		installment.PaidOn = &now
		installment.AmountPaid = &amountPaid
		if err := r.Installment.Update(ctx, installment); err != nil {
			return err
		}

		loan.InstallmentsRemaining--
		if loan.InstallmentsRemaining == 0 {
			fsm := statemachine.NewLoanFSM(loan)
			if err := fsm.Settle(ctx); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			loan.PaidAt = &now
			loanPaid = loan
		}
		if err := r.Loan.Update(ctx, loan); err != nil {
			return err
		}

		settled = installment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyUser(ctx, borrowerID,
			"Payment received",
			fmt.Sprintf("Installment due %s settled with %s", settled.DueDate.Format("2006-01-02"), amountPaid),
			models.NotificationTypePaymentRecorded)
	})

	if loanPaid != nil {
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			return s.notificationSvc.NotifyUser(ctx, borrowerID,
				"Loan fully repaid",
				fmt.Sprintf("Your loan %s is fully repaid", loanPaid.Reference),
				models.NotificationTypeLoanPaid)
		})
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			borrower, err := s.userRepo.FindByID(ctx, borrowerID)
			if err != nil {
				return err
			}
			return s.emailSvc.SendLoanSettled(ctx, borrower, loanPaid)
		})
	}

	s.auditSvc.Log(ctx, borrowerID, "PAYMENT", "Installment", settled.ID,
		fmt.Sprintf("Installment due %s paid. Amount: %s", settled.DueDate.Format("2006-01-02"), amountPaid), "", "")

	return settled, nil
}

// CheckOverdueInstallments notifies borrowers about unpaid installments past
// their due date. Each installment is reminded at most once.
func (s *PaymentService) CheckOverdueInstallments(ctx context.Context) error {
	overdue, err := s.installmentRepo.FindOverdueUnnotified(ctx)
	if err != nil {
		return err
	}

	var notified []uint
	byBorrower := make(map[uint][]models.Installment)
	for i := range overdue {
		installment := overdue[i]
		if err := s.notificationSvc.NotifyUser(ctx, installment.Loan.BorrowerID,
			"Installment overdue",
			fmt.Sprintf("Installment of %s due %s is overdue by %d day(s)",
				installment.AmountDue, installment.DueDate.Format("2006-01-02"), installment.OverdueDays()),
			models.NotificationTypeInstallmentOverdue); err != nil {
			continue
		}
		notified = append(notified, installment.ID)
		byBorrower[installment.Loan.BorrowerID] = append(byBorrower[installment.Loan.BorrowerID], installment)
	}

	// One summary email per borrower
	for borrowerID, installments := range byBorrower {
		borrowerID, installments := borrowerID, installments
		s.worker.EnqueueAsync(func(ctx context.Context) error {
			borrower, err := s.userRepo.FindByID(ctx, borrowerID)
			if err != nil {
				return err
			}
			return s.emailSvc.SendOverdueInstallments(ctx, borrower, installments)
		})
	}

	return s.installmentRepo.MarkOverdueReminderSent(ctx, notified)
}
