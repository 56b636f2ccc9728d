package http

import (
	"net/http"

	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

// ShareHandler serves read-only views of goals reached through a share token.
// These routes need no authentication.
type ShareHandler struct {
	goals *services.GoalService
	logs  *services.LogService
	stats *services.StatsService
}

func NewShareHandler(goals *services.GoalService, logs *services.LogService, stats *services.StatsService) *ShareHandler {
	return &ShareHandler{
		goals: goals,
		logs:  logs,
		stats: stats,
	}
}

func (h *ShareHandler) RegisterRoutes(router *gin.RouterGroup) {
	share := router.Group("/share/:token")
	{
		share.GET("", h.Get)
		share.GET("/logs", h.Logs)
		share.GET("/progress", h.Progress)
	}
}

// Get resolves a share token
// @Summary Shared goal
// @Tags share
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} domain.Goal
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/v1/share/{token} [get]
func (h *ShareHandler) Get(c *gin.Context) {
	goal, err := h.goals.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// Logs pages through the logs of a shared goal
// @Summary Shared goal logs
// @Tags share
// @Produce json
// @Param token path string true "Share token"
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} domain.Page[domain.LogEntry]
// @Router /api/v1/share/{token}/logs [get]
func (h *ShareHandler) Logs(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	goal, err := h.goals.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}

	page, err := h.logs.ListShared(c.Request.Context(), goal, q.Page, q.PageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Progress computes the current progress of a shared goal
// @Summary Shared goal progress
// @Tags share
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} progress.Result
// @Router /api/v1/share/{token}/progress [get]
func (h *ShareHandler) Progress(c *gin.Context) {
	goal, err := h.goals.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}

	res, err := h.stats.SharedProgress(c.Request.Context(), goal)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
