package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/decoflow/production-service/pkg/errors"
)

// APIErrorResponse is the body of every non-2xx response
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func errorBody(c *gin.Context, appErr *errors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

// ErrorHandler renders errors attached with c.Error when the handler wrote
// nothing itself
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := errors.MapDomainError(c.Errors.Last().Err)
		logAPIError(logger, c, appErr)
		c.JSON(appErr.HTTPStatus, errorBody(c, appErr))
	}
}

// ErrorResponder writes error responses for a single request
type ErrorResponder struct {
	ctx    *gin.Context
	logger *slog.Logger
}

func NewErrorResponder(ctx *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{ctx: ctx, logger: logger}
}

// RespondWithError maps err onto its HTTP status and writes it
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(errors.MapDomainError(err))
}

func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	logAPIError(r.logger, r.ctx, appErr)
	r.ctx.JSON(appErr.HTTPStatus, errorBody(r.ctx, appErr))
}

// Rejected transitions and bad input are warnings; only 5xx is an error.
func logAPIError(logger *slog.Logger, c *gin.Context, appErr *errors.AppError) {
	level := slog.LevelWarn
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"message", appErr.Message,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"requestId", GetRequestID(c),
	}
	if jobID := c.Param("jobId"); jobID != "" {
		attrs = append(attrs, "jobId", jobID)
	}
	if appErr.Err != nil {
		attrs = append(attrs, "error", appErr.Err.Error())
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, "details", appErr.Details)
	}
	logger.Log(c.Request.Context(), level, "API error", attrs...)
}

// AbortWithAppError stops the handler chain with an error body
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, errorBody(c, appErr))
}
