package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"productivity-backend/internal/constants"
)

// PaginationParams holds raw pagination parameters as supplied by the
// request, with defaults applied for absent values. Range validation
// happens in the service layer so out-of-range input is rejected rather
// than silently clamped.
type PaginationParams struct {
	Page  int
	Limit int
}

// GetPaginationParams extracts pagination parameters from the request.
// Non-numeric values come back as zero and fail validation downstream.
func GetPaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constants.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constants.DefaultPageSize)))

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}
