package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"evdemo/internal/demo/model"
	"evdemo/internal/demo/service"
	appErr "evdemo/pkg/errors"
	"evdemo/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// maxBodySize bounds the accepted request body. The largest valid request
// (20 users, 20 stations) is far below this.
const maxBodySize = 1 << 20

// DemoController handles the simulation HTTP endpoints.
type DemoController struct {
	demoService *service.DemoService
}

// NewDemoController creates a new DemoController.
func NewDemoController(demoService *service.DemoService) *DemoController {
	return &DemoController{demoService: demoService}
}

// StartSimulation handles a simulation start request.
func (h *DemoController) StartSimulation(c *gin.Context) {
	req, err := decodeRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	run, err := h.demoService.StartSimulation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SimulationStarted(c, run.SimulationID)
}

// GetRun returns the recorded metadata for a started simulation.
func (h *DemoController) GetRun(c *gin.Context) {
	simulationID := c.Param("id")
	run, err := h.demoService.GetRun(c.Request.Context(), simulationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// Health reports service liveness.
func (h *DemoController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decodeRequest reads and parses the request body, distinguishing malformed
// JSON (bad request) from JSON of the wrong shape (validation error).
func decodeRequest(c *gin.Context) (*model.DemoRequest, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		return nil, appErr.ParseError(fmt.Sprintf("Could not read request body: %v", err))
	}
	if len(body) > maxBodySize {
		return nil, appErr.New(appErr.BodyTooLarge)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, appErr.New(appErr.EmptyBody)
	}

	var req model.DemoRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "request"
			}
			return nil, appErr.ValidationError(field,
				fmt.Sprintf("Invalid type for attribute: '%s'", field))
		}
		return nil, appErr.Newf(appErr.InvalidJSON, "Could not parse JSON contents: %v", err)
	}
	return &req, nil
}
