package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lendana/lendana-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// @Summary Portfolio CSV
// @Description Download the loan portfolio report as CSV
// @Tags Reports
// @Produce text/csv
// @Param status query string false "Filter by loan status"
// @Param start_date query string false "Submitted from (YYYY-MM-DD)"
// @Param end_date query string false "Submitted until (YYYY-MM-DD)"
// @Success 200 {file} file "portfolio.csv"
// @Security BearerAuth
// @Router /reports/portfolio_csv [get]
func (h *ReportHandler) PortfolioCSV(c *gin.Context) {
	data, filename, err := h.reportService.GeneratePortfolioCSV(c.Request.Context(),
		c.Query("status"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// @Summary Portfolio XLSX
// @Description Download the loan portfolio report as an Excel workbook
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Filter by loan status"
// @Param start_date query string false "Submitted from (YYYY-MM-DD)"
// @Param end_date query string false "Submitted until (YYYY-MM-DD)"
// @Success 200 {file} file "portfolio.xlsx"
// @Security BearerAuth
// @Router /reports/portfolio_xlsx [get]
func (h *ReportHandler) PortfolioXLSX(c *gin.Context) {
	data, filename, err := h.reportService.GeneratePortfolioXLSX(c.Request.Context(),
		c.Query("status"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Loan Statement PDF
// @Description Download a repayment statement PDF for a loan
// @Tags Reports
// @Produce application/pdf
// @Param loan_id query int true "Loan ID"
// @Success 200 {file} file "statement.pdf"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /reports/loan_statement_pdf [get]
func (h *ReportHandler) LoanStatementPDF(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Query("loan_id"), 10, 32)
	if loanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "loan_id is required"})
		return
	}

	data, filename, err := h.reportService.GenerateStatementPDF(c.Request.Context(), uint(loanID))
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
