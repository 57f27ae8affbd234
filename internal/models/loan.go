package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a loan application submitted by a borrower
type Loan struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	Reference             string          `gorm:"uniqueIndex;not null" json:"reference"`
	BorrowerID            uint            `gorm:"not null;index" json:"borrower_id"`
	Principal             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal"`
	TermWeeks             int             `gorm:"not null" json:"term_weeks"`
	Status                string          `gorm:"default:pending;index" json:"status"`
	InstallmentAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"installment_amount"`
	InstallmentsRemaining int             `gorm:"not null" json:"installments_remaining"`
	RejectionReason       *string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedAt            *time.Time      `gorm:"index" json:"approved_at"`
	PaidAt                *time.Time      `json:"paid_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	// Associations
	Borrower     User          `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty"`
	Installments []Installment `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"installments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusPending  = "pending"
	LoanStatusApproved = "approved"
	LoanStatusRejected = "rejected"
	LoanStatusPaid     = "paid"
)

// MayApprove returns true if the loan can be approved
func (l *Loan) MayApprove() bool {
	return l.Status == LoanStatusPending
}

// MayReject returns true if the loan can be rejected
func (l *Loan) MayReject() bool {
	return l.Status == LoanStatusPending
}

// MaySettle returns true if the loan can transition to paid.
// Settlement only happens as the side effect of the final repayment.
func (l *Loan) MaySettle() bool {
	return l.Status == LoanStatusApproved && l.InstallmentsRemaining == 0
}

// AcceptsPayments returns true if repayments can be applied to the loan
func (l *Loan) AcceptsPayments() bool {
	return l.Status == LoanStatusApproved
}

// IsTerminal returns true if no transition leaves the current status
func (l *Loan) IsTerminal() bool {
	return l.Status == LoanStatusRejected || l.Status == LoanStatusPaid
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                    uint            `json:"id"`
	Reference             string          `json:"reference"`
	BorrowerID            uint            `json:"borrower_id"`
	BorrowerName          string          `json:"borrower_name,omitempty"`
	Principal             decimal.Decimal `json:"principal"`
	TermWeeks             int             `json:"term_weeks"`
	Status                string          `json:"status"`
	InstallmentAmount     decimal.Decimal `json:"installment_amount"`
	InstallmentsRemaining int             `json:"installments_remaining"`
	RejectionReason       *string         `json:"rejection_reason,omitempty"`
	ApprovedAt            *time.Time      `json:"approved_at"`
	PaidAt                *time.Time      `json:"paid_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`

	Schedule []InstallmentResponse `json:"schedule,omitempty"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:                    l.ID,
		Reference:             l.Reference,
		BorrowerID:            l.BorrowerID,
		Principal:             l.Principal,
		TermWeeks:             l.TermWeeks,
		Status:                l.Status,
		InstallmentAmount:     l.InstallmentAmount,
		InstallmentsRemaining: l.InstallmentsRemaining,
		RejectionReason:       l.RejectionReason,
		ApprovedAt:            l.ApprovedAt,
		PaidAt:                l.PaidAt,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}

	if l.Borrower.ID != 0 {
		resp.BorrowerName = l.Borrower.FullName
	}

	for _, installment := range l.Installments {
		resp.Schedule = append(resp.Schedule, installment.ToResponse())
	}

	return resp
}

// LoanStatusResponse is the minimal status-only representation
type LoanStatusResponse struct {
	LoanID uint   `json:"loan_id"`
	Status string `json:"status"`
}

// ToStatusResponse converts Loan to LoanStatusResponse
func (l *Loan) ToStatusResponse() LoanStatusResponse {
	return LoanStatusResponse{LoanID: l.ID, Status: l.Status}
}
