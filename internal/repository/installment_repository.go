package repository

import (
	"context"
	"time"

	"github.com/lendana/lendana-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstallmentRepository defines the interface for repayment schedule data access
type InstallmentRepository interface {
	FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	FindNextUnpaid(ctx context.Context, loanID uint) (*models.Installment, error)
	FindNextUnpaidForUpdate(ctx context.Context, loanID uint) (*models.Installment, error)
	CreateBatch(ctx context.Context, installments []models.Installment) error
	Update(ctx context.Context, installment *models.Installment) error
	CountByLoan(ctx context.Context, loanID uint) (int64, error)
	CountUnpaidByLoan(ctx context.Context, loanID uint) (int64, error)
	FindOverdueUnnotified(ctx context.Context) ([]models.Installment, error)
	MarkOverdueReminderSent(ctx context.Context, installmentIDs []uint) error
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("due_date ASC, id ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindNextUnpaid(ctx context.Context, loanID uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND paid = ?", loanID, false).
		Order("due_date ASC, id ASC").
		First(&installment).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

// FindNextUnpaidForUpdate selects the earliest-due unpaid installment under
// SELECT ... FOR UPDATE. The id tie-break keeps the selection deterministic
// when due dates collide. Must be called inside a transaction.
func (r *installmentRepository) FindNextUnpaidForUpdate(ctx context.Context, loanID uint) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ? AND paid = ?", loanID, false).
		Order("due_date ASC, id ASC").
		First(&installment).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&installments).Error
}

func (r *installmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

func (r *installmentRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("loan_id = ?", loanID).
		Count(&count).Error
	return count, err
}

func (r *installmentRepository) CountUnpaidByLoan(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("loan_id = ? AND paid = ?", loanID, false).
		Count(&count).Error
	return count, err
}

// FindOverdueUnnotified returns unpaid installments past their due date on
// approved loans that have not had an overdue reminder sent yet.
func (r *installmentRepository) FindOverdueUnnotified(ctx context.Context) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Joins("JOIN loans ON loans.id = installments.loan_id").
		Where("installments.paid = ? AND installments.due_date < ?", false, time.Now()).
		Where("installments.overdue_reminder_sent_at IS NULL").
		Where("loans.status = ?", models.LoanStatusApproved).
		Preload("Loan").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) MarkOverdueReminderSent(ctx context.Context, installmentIDs []uint) error {
	if len(installmentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id IN ?", installmentIDs).
		Update("overdue_reminder_sent_at", time.Now()).Error
}
