package http

import (
	"net/http"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	svc *services.StatsService
}

func NewStatsHandler(svc *services.StatsService) *StatsHandler {
	return &StatsHandler{
		svc: svc,
	}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/goals/:id/progress", h.GetProgress)
	router.GET("/goals/:id/chart", h.GetChart)
	router.GET("/goals/:id/heatmap", h.GetHeatmap)
	router.GET("/stats/overview", h.GetOverview)
}

// GetProgress computes the progress bundle of a goal
// @Summary Goal progress
// @Description Window, total, percent, pace, streaks and milestones. With at, the result is computed as of that instant from the logs recorded by then.
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param at query string false "RFC 3339 instant or YYYY-MM-DD"
// @Success 200 {object} progress.Result
// @Router /api/v1/goals/{id}/progress [get]
func (h *StatsHandler) GetProgress(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	at, err := optionalTime(c, "at")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid at parameter", "details": err.Error()})
		return
	}

	res, err := h.svc.Progress(c.Request.Context(), c.Param("id"), userID, at)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetChart buckets a goal's logs for plotting
// @Summary Goal chart
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param bucket query string false "daily (default) or weekly"
// @Param from_date query string false "YYYY-MM-DD, default 29 days before to_date"
// @Param to_date query string false "YYYY-MM-DD, default today"
// @Success 200 {array} domain.ChartPoint
// @Router /api/v1/goals/{id}/chart [get]
func (h *StatsHandler) GetChart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	from, err := optionalTime(c, "from_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date", "details": err.Error()})
		return
	}
	to, err := optionalTime(c, "to_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date", "details": err.Error()})
		return
	}

	points, err := h.svc.Chart(c.Request.Context(), services.ChartInput{
		GoalID: c.Param("id"),
		UserID: userID,
		Bucket: domain.ChartBucket(c.Query("bucket")),
		From:   from,
		To:     to,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

// GetHeatmap returns per-day totals for one month
// @Summary Goal heatmap
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param month query string false "YYYY-MM, default current month"
// @Success 200 {array} domain.HeatmapCell
// @Router /api/v1/goals/{id}/heatmap [get]
func (h *StatsHandler) GetHeatmap(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	cells, err := h.svc.Heatmap(c.Request.Context(), c.Param("id"), userID, c.Query("month"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cells)
}

// GetOverview summarizes every goal of the caller
// @Summary Overview stats
// @Tags stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.OverviewStats
// @Router /api/v1/stats/overview [get]
func (h *StatsHandler) GetOverview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	stats, err := h.svc.Overview(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
