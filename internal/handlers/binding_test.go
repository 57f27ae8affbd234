package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBindWrappedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    CreateLoanRequest
		expectError bool
	}{
		{
			name:     "wrapped payload",
			key:      "loan",
			body:     `{"loan": {"amount": "5000", "term_weeks": 10}}`,
			expected: CreateLoanRequest{Amount: decimal.NewFromInt(5000), TermWeeks: 10},
		},
		{
			name:     "flat payload",
			key:      "loan",
			body:     `{"amount": "5000", "term_weeks": 10}`,
			expected: CreateLoanRequest{Amount: decimal.NewFromInt(5000), TermWeeks: 10},
		},
		{
			name:     "wrapper key absent falls back to flat",
			key:      "loan",
			body:     `{"request_id": "abc", "amount": "250.50", "term_weeks": 4}`,
			expected: CreateLoanRequest{Amount: decimal.RequireFromString("250.50"), TermWeeks: 4},
		},
		{
			name:        "wrapped payload with bad field type",
			key:         "loan",
			body:        `{"loan": {"amount": "5000", "term_weeks": "ten"}}`,
			expectError: true,
		},
		{
			name:        "wrapper key holds a scalar",
			key:         "loan",
			body:        `{"loan": "not an object"}`,
			expectError: true,
		},
		{
			name:        "not JSON at all",
			key:         "loan",
			body:        `amount=5000`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result CreateLoanRequest
			err := bindWrappedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, tt.expected.Amount.Equal(result.Amount))
			assert.Equal(t, tt.expected.TermWeeks, result.TermWeeks)
		})
	}
}
