package repository

import (
	"context"

	"github.com/lendana/lendana-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDWithSchedule(ctx context.Context, id uint) (*models.Loan, error)
	FindByBorrower(ctx context.Context, borrowerID uint) ([]models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error)
	GetStats(ctx context.Context) (*LoanStats, error)
}

// LoanQuery extends ListQuery with loan-specific filters.
// When IsAdmin is false results are scoped to the borrower's own loans.
type LoanQuery struct {
	*ListQuery
	BorrowerID uint
	IsAdmin    bool
	Status     string
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindByIDForUpdate loads the loan row under SELECT ... FOR UPDATE so that
// concurrent repayments against the same loan serialize on the row lock.
// Must be called inside a transaction.
func (r *loanRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithSchedule(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Joins("Borrower").
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_date ASC, id ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByBorrower(ctx context.Context, borrowerID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error
}

func (r *loanRepository) List(ctx context.Context, query *LoanQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	// Administrators see every loan, borrowers only their own
	if !query.IsAdmin && query.BorrowerID > 0 {
		db = db.Where("borrower_id = ?", query.BorrowerID)
	}

	if query.Status != "" {
		db = db.Where("loans.status = ?", query.Status)
	}

	if query.Filters != nil {
		if val, ok := query.Filters["reference"]; ok && val != "" {
			db = db.Where("loans.reference = ?", val)
		}
		if val, ok := query.Filters["start_date"]; ok && val != "" {
			db = db.Where("loans.created_at >= ?", val)
		}
		if val, ok := query.Filters["end_date"]; ok && val != "" {
			// Include the full day if only a date is provided
			if len(val) == 10 { // YYYY-MM-DD
				val += " 23:59:59"
			}
			db = db.Where("loans.created_at <= ?", val)
		}
	}

	// Search by borrower name or email
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN users ON users.id = loans.borrower_id").
			Where("users.full_name ILIKE ? OR users.email ILIKE ? OR loans.reference ILIKE ?",
				search, search, search)
	}

	// Count using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply sorting
	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("loans.created_at DESC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Borrower").Find(&loans).Error
	if err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// LoanStats holds the count of loans by status
type LoanStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Paid     int64 `json:"paid"`
}

func (r *loanRepository) GetStats(ctx context.Context) (*LoanStats, error) {
	stats := &LoanStats{}

	rows, err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("status, count(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		total += count
		switch status {
		case models.LoanStatusPending:
			stats.Pending = count
		case models.LoanStatusApproved:
			stats.Approved = count
		case models.LoanStatusRejected:
			stats.Rejected = count
		case models.LoanStatusPaid:
			stats.Paid = count
		}
	}
	stats.Total = total

	return stats, nil
}
