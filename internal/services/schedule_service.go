package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lendana/lendana-api/internal/models"
)

// ScheduleService generates weekly repayment schedules
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// GenerateSchedule builds the full repayment schedule for a loan: one
// installment per week of the term, due dates at weekly increments starting
// one week from now, every amount equal to the loan's installment amount.
// Pure construction; nothing is persisted and no idempotence check is made —
// the caller invokes this exactly once per loan, at approval time.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, loan *models.Loan) ([]models.Installment, error) {
	if loan.TermWeeks <= 0 {
		return nil, fmt.Errorf("loan term must be positive, got %d", loan.TermWeeks)
	}
	if !loan.InstallmentAmount.IsPositive() {
		return nil, fmt.Errorf("installment amount must be positive, got %s", loan.InstallmentAmount)
	}

	installments := make([]models.Installment, 0, loan.TermWeeks)
	dueDate := time.Now()

	for week := 1; week <= loan.TermWeeks; week++ {
		dueDate = dueDate.AddDate(0, 0, 7)

		installments = append(installments, models.Installment{
			LoanID:     loan.ID,
			WeekNumber: week,
			DueDate:    dueDate,
			AmountDue:  loan.InstallmentAmount,
			Paid:       false,
		})
	}

	return installments, nil
}
