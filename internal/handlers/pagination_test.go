package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		query           string
		expectedPage    int
		expectedPerPage int
	}{
		{"defaults", "", 1, 20},
		{"explicit values", "page=3&per_page=50", 3, 50},
		{"zero per_page", "per_page=0", 1, 20},
		{"negative per_page", "per_page=-5", 1, 20},
		{"non-numeric per_page", "per_page=abc", 1, 20},
		{"zero page", "page=0", 1, 20},
		{"non-numeric page", "page=first", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)

			page, perPage := parsePagination(c, 20)

			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedPerPage, perPage)
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), totalPages(0, 20))
	assert.Equal(t, int64(1), totalPages(1, 20))
	assert.Equal(t, int64(1), totalPages(20, 20))
	assert.Equal(t, int64(2), totalPages(21, 20))
}
