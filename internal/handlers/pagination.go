package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parsePagination reads the page and per_page query params. Both are clamped
// to at least 1 so zero or garbage values cannot break the page math.
func parsePagination(c *gin.Context, defaultPerPage int) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	return page, perPage
}

func totalPages(total int64, perPage int) int64 {
	return (total + int64(perPage) - 1) / int64(perPage)
}
