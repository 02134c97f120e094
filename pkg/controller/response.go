package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/query"
)

// SuccessResponse represents a successful response with data
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id,omitempty"`
}

// PageResponse is the list envelope: the page fields at top level plus the request ID.
type PageResponse[T any] struct {
	Data       []T    `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
	RequestID  string `json:"request_id,omitempty"`
}

// Success sends data with HTTP 200 OK.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}

// Created sends data with HTTP 201 Created.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}

// Paginated sends one page of a list with HTTP 200 OK.
func Paginated[T any](c *gin.Context, p query.Page[T]) {
	c.JSON(http.StatusOK, PageResponse[T]{
		Data:       p.Data,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		RequestID:  logger.RequestIDFromContext(c.Request.Context()),
	})
}

// NoContent sends HTTP 204 with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends the mapped error response and aborts the handler chain.
func Error(c *gin.Context, err error) {
	status, body := MapError(c.Request.Context(), err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
