package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment represents one week's due obligation in a loan's repayment schedule
type Installment struct {
	ID                    uint             `gorm:"primaryKey" json:"id"`
	LoanID                uint             `gorm:"not null;index" json:"loan_id"`
	WeekNumber            int              `gorm:"not null" json:"week_number"`
	DueDate               time.Time        `gorm:"type:date;not null;index" json:"due_date"`
	AmountDue             decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"amount_due"`
	Paid                  bool             `gorm:"default:false;index" json:"paid"`
	PaidOn                *time.Time       `json:"paid_on"`
	AmountPaid            *decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount_paid"`
	OverdueReminderSentAt *time.Time       `gorm:"column:overdue_reminder_sent_at" json:"-"`
	CreatedAt             time.Time        `json:"created_at"`

	// Associations
	Loan Loan `gorm:"foreignKey:LoanID" json:"-"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// IsOverdue returns true if the installment is unpaid and past its due date
func (i *Installment) IsOverdue() bool {
	return !i.Paid && time.Now().After(i.DueDate)
}

// OverdueDays returns the number of days past the due date
func (i *Installment) OverdueDays() int {
	if !i.IsOverdue() {
		return 0
	}
	return int(time.Since(i.DueDate).Hours() / 24)
}

// IsOverpaid returns true if more than the due amount was recorded.
// Overpayments are kept verbatim, never capped or split.
func (i *Installment) IsOverpaid() bool {
	return i.AmountPaid != nil && i.AmountPaid.GreaterThan(i.AmountDue)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID          uint             `json:"id"`
	LoanID      uint             `json:"loan_id"`
	WeekNumber  int              `json:"week_number"`
	DueDate     time.Time        `json:"due_date"`
	AmountDue   decimal.Decimal  `json:"amount_due"`
	Paid        bool             `json:"paid"`
	PaidOn      *time.Time       `json:"paid_on"`
	AmountPaid  *decimal.Decimal `json:"amount_paid"`
	OverdueDays int              `json:"overdue_days"`
	Overpaid    bool             `json:"overpaid"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	return InstallmentResponse{
		ID:          i.ID,
		LoanID:      i.LoanID,
		WeekNumber:  i.WeekNumber,
		DueDate:     i.DueDate,
		AmountDue:   i.AmountDue,
		Paid:        i.Paid,
		PaidOn:      i.PaidOn,
		AmountPaid:  i.AmountPaid,
		OverdueDays: i.OverdueDays(),
		Overpaid:    i.IsOverpaid(),
	}
}
