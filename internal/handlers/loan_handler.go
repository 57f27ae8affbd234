package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lendana/lendana-api/internal/middleware"
	"github.com/lendana/lendana-api/internal/models"
	"github.com/lendana/lendana-api/internal/repository"
	"github.com/lendana/lendana-api/internal/services"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// @Summary List Loans
// @Description Get a paginated list of loans. Admins see every loan, borrowers only their own.
// @Tags Loans
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param search_term query string false "Search by borrower or reference"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	listQuery := repository.NewListQuery()
	listQuery.Page, listQuery.PerPage = parsePagination(c, 20)
	listQuery.Search = c.Query("search_term")
	listQuery.Filters["reference"] = c.Query("reference")
	listQuery.Filters["start_date"] = c.Query("start_date")
	listQuery.Filters["end_date"] = c.Query("end_date")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		listQuery.SortBy = parts[0]
		if len(parts) > 1 {
			listQuery.SortDir = parts[1]
		}
	}

	query := &repository.LoanQuery{
		ListQuery:  listQuery,
		BorrowerID: middleware.GetUserID(c),
		IsAdmin:    middleware.IsAdmin(c),
		Status:     c.Query("status"),
	}

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.LoanResponse
	for _, l := range loans {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": totalPages(total, query.PerPage),
		},
	})
}

type CreateLoanRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	TermWeeks int             `json:"term_weeks" binding:"required"`
}

// @Summary Submit Loan Application
// @Description Submit a new loan application for the current user
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body CreateLoanRequest true "Loan Data"
// @Success 201 {object} models.LoanResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req CreateLoanRequest
	if err := bindWrappedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan payload"})
		return
	}

	borrowerID := middleware.GetUserID(c)
	loan, err := h.loanService.Submit(c.Request.Context(), borrowerID, req.Amount, req.TermWeeks)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan.ToResponse()})
}

// @Summary Get Loan
// @Description Get a loan with its repayment schedule
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindForUser(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse()})
}

// @Summary Get Loan Status
// @Description Get the current status of a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanStatusResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/status [get]
func (h *LoanHandler) Status(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindForUser(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, loan.ToStatusResponse())
}

// @Summary Get Repayment Schedule
// @Description Get the full repayment schedule for a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/schedule [get]
func (h *LoanHandler) Schedule(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	installments, err := h.loanService.Schedule(c.Request.Context(), uint(id), middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	var responses []models.InstallmentResponse
	for _, inst := range installments {
		responses = append(responses, inst.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"schedule": responses})
}

// @Summary Approve Loan
// @Description Approve a pending loan and generate its repayment schedule (admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} models.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/approve [post]
func (h *LoanHandler) Approve(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.Approve(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Loan approved"})
}

type RejectLoanRequest struct {
	Reason string `json:"reason"`
}

// @Summary Reject Loan
// @Description Reject a pending loan (admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body RejectLoanRequest false "Rejection Reason"
// @Success 200 {object} models.LoanResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/reject [post]
func (h *LoanHandler) Reject(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	var req RejectLoanRequest
	c.ShouldBindJSON(&req)

	loan, err := h.loanService.Reject(c.Request.Context(), uint(id), req.Reason)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loan": loan.ToResponse(), "message": "Loan rejected"})
}

// @Summary Loan Stats
// @Description Get loan counts by status (admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Success 200 {object} repository.LoanStats
// @Security BearerAuth
// @Router /loans/stats [get]
func (h *LoanHandler) Stats(c *gin.Context) {
	stats, err := h.loanService.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// loanErrorStatus maps service errors to HTTP status codes. Absent and
// inaccessible loans both map to 404 so responses do not leak existence.
func loanErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNoScheduleFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrRejected),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrInsufficientAmount),
		errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
