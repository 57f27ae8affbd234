package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lendana/lendana-api/internal/middleware"
	"github.com/lendana/lendana-api/internal/services"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// @Summary Record Repayment
// @Description Record a repayment against the earliest unpaid installment of the loan
// @Tags Payments
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body RecordPaymentRequest true "Payment Amount"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /loans/{loan_id}/repayments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	var req RecordPaymentRequest
	if err := bindWrappedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment payload"})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment amount must be positive"})
		return
	}

	borrowerID := middleware.GetUserID(c)
	installment, err := h.paymentService.RecordPayment(c.Request.Context(), uint(loanID), borrowerID, req.Amount)
	if err != nil {
		c.JSON(loanErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("Payment received for installment due %s", installment.DueDate.Format("2006-01-02")),
		"installment": installment.ToResponse(),
	})
}
