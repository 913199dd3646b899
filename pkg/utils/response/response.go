package response

import (
	"net/http"
	"sync/atomic"

	"evdemo/pkg/errors"
	"evdemo/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response messages shared with the API documentation.
const (
	OkMessage           = "The simulation has been started"
	BadRequestMessage   = "Bad request"
	UnauthorizedMessage = "Unauthorized"
	InvalidMessage      = "Validation error"
	ServerErrorMessage  = "Internal server error"
)

// Generic error details used in production mode instead of diagnostic text.
const (
	genericParseDetail   = "Could not parse JSON contents"
	genericAuthDetail    = "Invalid private token"
	genericInvalidDetail = "Invalid simulation parameters"
	genericServerDetail  = "An error occurred while processing the request"
)

// productionMode controls whether error details are scrubbed from responses.
var productionMode atomic.Bool

// SetProductionMode toggles generic error details for all responses.
func SetProductionMode(enabled bool) {
	productionMode.Store(enabled)
}

// OkBody is the body of a successful simulation start.
type OkBody struct {
	Message      string `json:"message"`
	SimulationID string `json:"simulation_id"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SimulationStarted sends a 200 response carrying the simulation identifier.
func SimulationStarted(c *gin.Context, simulationID string) {
	c.JSON(http.StatusOK, OkBody{
		Message:      OkMessage,
		SimulationID: simulationID,
	})
}

// Error sends an error response derived from the error code
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	status := customErr.Code.HTTPStatus()

	logger.Error(c.Request.Context(), "request error",
		zap.Int("code", int(customErr.Code)),
		zap.Int("status", status),
		zap.String("message", customErr.Error()),
		zap.Any("details", customErr.Details),
	)

	c.JSON(status, ErrorBody{
		Message: statusMessage(status),
		Error:   errorDetail(status, customErr),
	})
}

// AbortWithError aborts the request and sends an error response
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return BadRequestMessage
	case http.StatusUnauthorized:
		return UnauthorizedMessage
	case http.StatusUnprocessableEntity:
		return InvalidMessage
	default:
		return ServerErrorMessage
	}
}

// errorDetail returns the diagnostic text for the error, or a generic
// replacement when running in production mode.
func errorDetail(status int, err *errors.Error) string {
	if !productionMode.Load() {
		return err.Error()
	}
	switch status {
	case http.StatusBadRequest:
		return genericParseDetail
	case http.StatusUnauthorized:
		return genericAuthDetail
	case http.StatusUnprocessableEntity:
		return genericInvalidDetail
	default:
		return genericServerDetail
	}
}
