package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/service"
	"github.com/jengzang/moodtrail-backend-go/pkg/response"
)

// AnalysisRunHandler handles HTTP requests for analysis runs
type AnalysisRunHandler struct {
	runs    *service.AnalysisRunService
	results *service.ResultService
}

// NewAnalysisRunHandler creates a new analysis run handler
func NewAnalysisRunHandler(runs *service.AnalysisRunService, results *service.ResultService) *AnalysisRunHandler {
	return &AnalysisRunHandler{runs: runs, results: results}
}

// CreateRun stores a run and queues it. The response carries the run in pending state.
// POST /api/v1/analyses
func (h *AnalysisRunHandler) CreateRun(c *gin.Context) {
	var req service.CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	run, err := h.runs.CreateRun(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Accepted(c, run)
}

// ListRuns lists analysis runs
// GET /api/v1/analyses
func (h *AnalysisRunHandler) ListRuns(c *gin.Context) {
	var filter models.RunFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	runs, err := h.runs.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.List(c, runs, filter.Limit, filter.Offset)
}

// GetRun retrieves a run by ID
// GET /api/v1/analyses/:id
func (h *AnalysisRunHandler) GetRun(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, run)
}

// RerunAnalysis discards a run's results and queues it again
// POST /api/v1/analyses/:id/rerun
func (h *AnalysisRunHandler) RerunAnalysis(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}

	run, err := h.runs.RerunAnalysis(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Accepted(c, run)
}

// GetDays returns the daily sentiment trajectory of a run
// GET /api/v1/analyses/:id/days
func (h *AnalysisRunHandler) GetDays(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}

	days, err := h.results.GetDays(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, days)
}

func runID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "Invalid analysis ID")
		return 0, false
	}
	return id, true
}
