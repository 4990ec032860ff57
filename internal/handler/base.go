package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/tenant"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/httputil"
)

// ContextRequestID is the gin context key holding the request id.
const ContextRequestID = "request_id"

// Scope returns the tenant scope set by the auth middleware.
func Scope(c *gin.Context) tenant.Scope {
	s, _ := tenant.FromContext(c.Request.Context())
	return s
}

func OrgID(c *gin.Context) uuid.UUID {
	return Scope(c).OrganizationID
}

func StaffID(c *gin.Context) uuid.UUID {
	return Scope(c).StaffID
}

// ParseID reads a uuid path parameter. On failure it has already answered 400.
func ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// Bind decodes the JSON body into req. On failure it has already answered 400.
func Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(bindMessage(err)))
		return false
	}
	return true
}

// BindQuery decodes query parameters into req.
func BindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(bindMessage(err)))
		return false
	}
	return true
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	msg := "field " + fe.Field() + " failed on " + fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return msg
}

// ListFilter reads the query parameters shared by every list endpoint.
func ListFilter(c *gin.Context) model.ListFilter {
	page, pageSize := httputil.PageParams(c)
	return model.ListFilter{
		Search:         c.Query("search"),
		IncludeDeleted: httputil.BoolQuery(c, "include_deleted"),
		Page:           page,
		PageSize:       pageSize,
	}
}

// Confirmed reports whether a permanent delete carries confirm=true.
func Confirmed(c *gin.Context) bool {
	return httputil.BoolQuery(c, "confirm")
}

// Error answers with the status of err's AppError code, or 500.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	if appErr, ok := apperrors.As(err); ok {
		status = appErr.StatusCode()
		if status != http.StatusInternalServerError {
			message = appErr.Message
		}
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).
		Str("request_id", c.GetString(ContextRequestID)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", status).
		Msg("Request failed")

	c.JSON(status, NewErrorResponse(message))
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

func Page(c *gin.Context, items interface{}, filter model.ListFilter, total int) {
	OK(c, httputil.NewPaginatedResponse(items, filter.Page, filter.PageSize, total))
}

// Message answers 200 with a message and no data.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, MessageResponse(message))
}
