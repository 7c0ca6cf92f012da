// api/middleware/error_handler.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/Annany2002/nebula-dq/internal/catalogclient"
	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/logger"
	"github.com/Annany2002/nebula-dq/internal/storage"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error decides the response.
		err := c.Errors.Last().Err
		customLog.Debugf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		statusCode, body := mapError(err)

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, body)
		} else {
			customLog.Warn("[ErrorHandler] Response already written before handling error.")
		}
	}
}

// mapError turns a handler error into a status code and response body.
func mapError(err error) (int, gin.H) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			customLog.Debugf("Validation Error: Field %s failed on %s", fe.Namespace(), fe.Tag())
			fields = append(fields, fe.Field()+" failed on '"+fe.Tag()+"'")
		}
		return http.StatusBadRequest, gin.H{
			"error":  "Validation failed. Please check your input.",
			"fields": fields,
		}

	case errors.Is(err, testcase.ErrSessionNotFound),
		errors.Is(err, storage.ErrDefinitionNotFound),
		errors.Is(err, storage.ErrTestCaseNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}

	case errors.Is(err, testcase.ErrSessionClosed):
		return http.StatusGone, gin.H{"error": err.Error()}

	case errors.Is(err, storage.ErrTestCaseExists),
		errors.Is(err, storage.ErrDefinitionExists),
		errors.Is(err, catalogclient.ErrConflict):
		return http.StatusConflict, gin.H{"error": err.Error()}

	case errors.Is(err, core.ErrBadRequest),
		errors.Is(err, testcase.ErrParameterShape):
		return http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), core.ErrBadRequest.Error()+": ")}

	case errors.Is(err, catalogclient.ErrUnexpectedStatus),
		errors.Is(err, context.DeadlineExceeded):
		customLog.Warnf("Catalog unavailable: %v", err)
		return http.StatusBadGateway, gin.H{"error": "The catalog is currently unavailable."}

	default:
		customLog.Errorf("Unhandled error type: %T, Error: %v", err, err)
		return http.StatusInternalServerError, gin.H{"error": "An unexpected internal server error occurred."}
	}
}
