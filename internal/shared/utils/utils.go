package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/pagination"
)

var (
	ErrInvalidID   = apperror.BadRequest("INVALID_ID", "invalid id format")
	ErrInvalidBody = apperror.BadRequest("INVALID_BODY", "invalid request body")
)

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, ErrInvalidID.WithMessage("invalid " + name + " format")
	}
	return id, nil
}

// BindJSON decodes the request body into req.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return ErrInvalidBody.Wrap(err)
	}
	return nil
}

// PageRequestFromQuery reads ?page=&size=&sort= (sort may repeat).
func PageRequestFromQuery(c *gin.Context) (pagination.PageRequest, error) {
	return pagination.Parse(c.Query("page"), c.Query("size"), c.QueryArray("sort"))
}
