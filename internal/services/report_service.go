package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type ReportService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	userRepo        repository.UserRepository
}

func NewReportService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	userRepo repository.UserRepository,
) *ReportService {
	return &ReportService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		userRepo:        userRepo,
	}
}

// GeneratePortfolioCSV generates a CSV report of the loan portfolio,
// optionally filtered by status and submission date range.
func (s *ReportService) GeneratePortfolioCSV(ctx context.Context, status, startDate, endDate string) ([]byte, string, error) {
	loans, err := s.portfolioLoans(ctx, status, startDate, endDate)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	_ = w.Write([]string{"Loan Portfolio Report", time.Now().Format("2006-01-02 15:04")})
	_ = w.Write([]string{""})
	_ = w.Write([]string{"Reference", "Borrower", "Principal", "Term (weeks)", "Weekly Installment", "Remaining", "Status", "Submitted"})

	for _, loan := range loans {
		borrowerName := "N/A"
		if loan.Borrower.ID != 0 {
			borrowerName = loan.Borrower.FullName
		}

		record := []string{
			loan.Reference,
			borrowerName,
			loan.Principal.StringFixed(2),
			fmt.Sprintf("%d", loan.TermWeeks),
			loan.InstallmentAmount.StringFixed(2),
			fmt.Sprintf("%d", loan.InstallmentsRemaining),
			loan.Status,
			loan.CreatedAt.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_portfolio_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// GeneratePortfolioXLSX generates an Excel workbook of the loan portfolio
// with a summary sheet of counts by status.
func (s *ReportService) GeneratePortfolioXLSX(ctx context.Context, status, startDate, endDate string) ([]byte, string, error) {
	loans, err := s.portfolioLoans(ctx, status, startDate, endDate)
	if err != nil {
		return nil, "", err
	}

	stats, err := s.loanRepo.GetStats(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Portfolio"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Loan Portfolio Report")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "B1", time.Now().Format("2006-01-02 15:04"))

	headers := []string{"Reference", "Borrower", "Principal", "Term (weeks)", "Weekly Installment", "Remaining", "Status", "Submitted"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, loan := range loans {
		borrowerName := "N/A"
		if loan.Borrower.ID != 0 {
			borrowerName = loan.Borrower.FullName
		}

		principal, _ := loan.Principal.Float64()
		installment, _ := loan.InstallmentAmount.Float64()

		values := []interface{}{
			loan.Reference,
			borrowerName,
			principal,
			loan.TermWeeks,
			installment,
			loan.InstallmentsRemaining,
			loan.Status,
			loan.CreatedAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+4)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	summary := "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, "", err
	}
	_ = f.SetCellValue(summary, "A1", "Loans by Status")
	_ = f.SetCellStyle(summary, "A1", "A1", headerStyle)
	_ = f.SetCellValue(summary, "A3", "Pending")
	_ = f.SetCellValue(summary, "B3", stats.Pending)
	_ = f.SetCellValue(summary, "A4", "Approved")
	_ = f.SetCellValue(summary, "B4", stats.Approved)
	_ = f.SetCellValue(summary, "A5", "Rejected")
	_ = f.SetCellValue(summary, "B5", stats.Rejected)
	_ = f.SetCellValue(summary, "A6", "Paid")
	_ = f.SetCellValue(summary, "B6", stats.Paid)
	_ = f.SetCellValue(summary, "A7", "Total")
	_ = f.SetCellValue(summary, "B7", stats.Total)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_portfolio_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// GenerateStatementPDF generates a repayment statement PDF for a single loan.
func (s *ReportService) GenerateStatementPDF(ctx context.Context, loanID uint) ([]byte, string, error) {
	loan, err := s.loanRepo.FindByIDWithSchedule(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Loan Repayment Statement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(50, 8, "Reference:")
	pdf.Cell(60, 8, loan.Reference)
	pdf.Ln(6)
	pdf.Cell(50, 8, "Borrower:")
	pdf.Cell(60, 8, loan.Borrower.FullName)
	pdf.Ln(6)
	pdf.Cell(50, 8, "Principal:")
	pdf.Cell(60, 8, loan.Principal.StringFixed(2))
	pdf.Ln(6)
	pdf.Cell(50, 8, "Term:")
	pdf.Cell(60, 8, fmt.Sprintf("%d weeks", loan.TermWeeks))
	pdf.Ln(6)
	pdf.Cell(50, 8, "Weekly installment:")
	pdf.Cell(60, 8, loan.InstallmentAmount.StringFixed(2))
	pdf.Ln(6)
	pdf.Cell(50, 8, "Status:")
	pdf.Cell(60, 8, loan.Status)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(20, 8, "Week")
	pdf.Cell(35, 8, "Due Date")
	pdf.Cell(35, 8, "Amount Due")
	pdf.Cell(35, 8, "Amount Paid")
	pdf.Cell(35, 8, "Paid On")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, inst := range loan.Installments {
		amountPaid := "-"
		if inst.AmountPaid != nil {
			amountPaid = inst.AmountPaid.StringFixed(2)
		}
		paidOn := "-"
		if inst.PaidOn != nil {
			paidOn = inst.PaidOn.Format("2006-01-02")
		}

		pdf.Cell(20, 7, fmt.Sprintf("%d", inst.WeekNumber))
		pdf.Cell(35, 7, inst.DueDate.Format("2006-01-02"))
		pdf.Cell(35, 7, inst.AmountDue.StringFixed(2))
		pdf.Cell(35, 7, amountPaid)
		pdf.Cell(35, 7, paidOn)
		pdf.Ln(7)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_statement_%s.pdf", loan.Reference)
	return buf.Bytes(), filename, nil
}

func (s *ReportService) portfolioLoans(ctx context.Context, status, startDate, endDate string) ([]models.Loan, error) {
	listQuery := repository.NewListQuery()
	listQuery.PerPage = 10000
	if startDate != "" {
		listQuery.Filters["start_date"] = startDate
	}
	if endDate != "" {
		listQuery.Filters["end_date"] = endDate
	}

	query := &repository.LoanQuery{
		ListQuery: listQuery,
		IsAdmin:   true,
		Status:    status,
	}

	loans, _, err := s.loanRepo.List(ctx, query)
	return loans, err
}
