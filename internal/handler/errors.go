package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/moodtrail-backend-go/internal/models"
	"github.com/jengzang/moodtrail-backend-go/internal/service"
	"github.com/jengzang/moodtrail-backend-go/internal/worker"
	"github.com/jengzang/moodtrail-backend-go/pkg/response"
)

// respondError maps service errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrRunNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, models.ErrRunInProgress), errors.Is(err, models.ErrRunNotPending):
		response.Conflict(c, err.Error())
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrQueueStopped):
		response.ServiceUnavailable(c, err.Error())
	default:
		response.InternalError(c, "Internal server error")
	}
}
