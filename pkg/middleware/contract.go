package middleware

import (
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/decoflow/production-service/pkg/contracts/openapi"
	"github.com/decoflow/production-service/pkg/errors"
)

// ContractValidation rejects requests under pathPrefix that do not match the
// OpenAPI contract. Undocumented routes are left to the router.
func ContractValidation(v *openapi.Validator, pathPrefix string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, pathPrefix) {
			c.Next()
			return
		}

		err := v.ValidateRequest(c.Request.Context(), c.Request)
		if err == nil {
			c.Next()
			return
		}
		if stderrors.Is(err, openapi.ErrRouteNotFound) || stderrors.Is(err, openapi.ErrMethodNotAllowed) {
			c.Next()
			return
		}

		logger.Debug("Contract validation failed", "path", c.Request.URL.Path, "error", err)
		AbortWithAppError(c, errors.ErrValidation("request does not match the API contract").
			WithDetail("contract", err.Error()))
	}
}
