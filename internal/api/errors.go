package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
	"lyra-backend-go/internal/middleware"
)

// mapCoreErrorToStatus writes the HTTP response for an error returned by a core service.
func mapCoreErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var (
		statusCode  int
		errResponse ErrorResponse
		invalid     *core.InvalidInputError
		genFailed   *core.GenerationFailedError
		exportFail  *core.ExportFailedError
	)

	switch {
	case errors.Is(err, core.ErrAuthenticationRequired):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Error: "Authentication required", Details: err.Error()}
	case errors.As(err, &invalid):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid input", Details: invalidDetails(invalid)}
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrWebhookSignature):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Invalid input", Details: err.Error()}
	case errors.Is(err, core.ErrPrincipalNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User not found"}
	case errors.Is(err, core.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "Record not found"}
	case errors.As(err, &genFailed):
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "Failed to generate content", Details: genFailed.Message}
	case errors.Is(err, core.ErrBillingUnavailable):
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "Billing is unavailable", Details: err.Error()}
	case errors.As(err, &exportFail):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Error: "Export failed", Details: exportFail.Message}
	default:
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}

	fields := []zap.Field{
		zap.Int("status_code", statusCode),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
		zap.Error(err),
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}
	c.AbortWithStatusJSON(statusCode, errResponse)
}

func invalidDetails(e *core.InvalidInputError) string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Fields, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, "; ")
}

// bindingError converts a gin binding failure into an InvalidInputError that
// names the offending JSON fields.
func bindingError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &core.InvalidInputError{Reason: typeErr.Field + " is invalid"}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &core.InvalidInputError{Reason: "request body must be a JSON object: " + err.Error()}
	}
	out := &core.InvalidInputError{}
	var reasons []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			out.Fields = append(out.Fields, fe.Field())
			continue
		}
		reasons = append(reasons, fe.Field()+" is invalid")
	}
	out.Reason = strings.Join(reasons, ", ")
	return out
}
