// Package handler implements the HTTP endpoints for sites, posts, users and
// health.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/gleaner/models"
)

// parseIDParam parses the :id path parameter as a positive integer.
func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: code, Message: message},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, models.ErrCodeInvalidInput, message)
}

func notFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, models.ErrCodeNotFound, message)
}

func forbidden(c *gin.Context) {
	fail(c, http.StatusForbidden, models.ErrCodeForbidden, "resource belongs to another user")
}

func internal(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, models.ErrCodeInternal, message)
}
