// Package httpcommon holds the request binding and error rendering shared by
// the HTTP handlers.
package httpcommon

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orderledger/server/internal/model"
	apperrors "github.com/orderledger/server/internal/utils/errors"
	"github.com/orderledger/server/internal/utils/pagination"
)

// RespondError renders err as {"error": {...}}. Server errors are attached to
// the gin context so the logging middleware records the cause.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(appErr.StatusCode, appErr.ToResponse())
}

func badRequest(c *gin.Context, message string) {
	appErr := apperrors.BadRequest(message)
	c.AbortWithStatusJSON(http.StatusBadRequest, appErr.ToResponse())
}

// BindJSON decodes the body into dst or answers 400.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// BindQuery binds query parameters into dst or answers 400.
func BindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		badRequest(c, "invalid query: "+err.Error())
		return false
	}
	return true
}

// UUIDParam parses the named path parameter or answers 400.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// Pagination binds page and page_size.
func Pagination(c *gin.Context) (*pagination.Pagination, bool) {
	p := pagination.New()
	if !BindQuery(c, p) {
		return nil, false
	}
	p.Page, p.PageSize = pagination.Normalize(p.Page, p.PageSize)
	return p, true
}

// OptionalUUID parses s when set.
func OptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// TimeRange builds a range from optional RFC 3339 bounds.
func TimeRange(from, to *time.Time) *model.TimeRange {
	if from == nil && to == nil {
		return nil
	}
	return &model.TimeRange{From: from, To: to}
}
