package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/service"
	"github.com/jengzang/moodtrail-backend-go/pkg/response"
)

// ResultHandler serves ranked views over analysis results
type ResultHandler struct {
	service *service.ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(service *service.ResultService) *ResultHandler {
	return &ResultHandler{service: service}
}

// HappiestMessages returns the highest scored messages
// GET /api/v1/messages/happiest?run_id=1&date=2024-01-02&limit=10
func (h *ResultHandler) HappiestMessages(c *gin.Context) {
	var filter models.MessageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	messages, err := h.service.HappiestMessages(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, messages)
}

// SaddestMessages returns the lowest scored messages
// GET /api/v1/messages/saddest
func (h *ResultHandler) SaddestMessages(c *gin.Context) {
	var filter models.MessageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	messages, err := h.service.SaddestMessages(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, messages)
}

// MostVisitedPlaces ranks places by visit count
// GET /api/v1/places/most-visited
func (h *ResultHandler) MostVisitedPlaces(c *gin.Context) {
	var filter models.PlaceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	places, err := h.service.MostVisitedPlaces(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, places)
}

// LongestStays ranks places by accumulated dwell time
// GET /api/v1/places/longest-stays
func (h *ResultHandler) LongestStays(c *gin.Context) {
	var filter models.PlaceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	places, err := h.service.LongestStays(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, places)
}

// Correlations returns correlation results for one dimension
// GET /api/v1/correlations/:dimension?view=all|positive|negative|significant&limit=N
func (h *ResultHandler) Correlations(c *gin.Context) {
	var filter models.CorrelationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if filter.View == "" {
		filter.View = models.ViewAll
	}

	results, err := h.service.Correlations(c.Request.Context(), c.Param("dimension"), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"dimension": c.Param("dimension"),
		"view":      filter.View,
		"results":   results,
	})
}
