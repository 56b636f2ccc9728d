package http

import (
	"net/http"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

type CycleHandler struct {
	svc *services.CycleService
}

func NewCycleHandler(svc *services.CycleService) *CycleHandler {
	return &CycleHandler{
		svc: svc,
	}
}

func (h *CycleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/goals/:id/cycles", h.List)
	router.POST("/goals/:id/cycles/close", h.Close)
}

// List returns the closed cycles of a recurring goal
// @Summary List cycle summaries
// @Tags cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {array} domain.CycleSummary
// @Router /api/v1/goals/{id}/cycles [get]
func (h *CycleHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	summaries, err := h.svc.List(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// Close freezes the last finished period of a recurring goal
// @Summary Close the previous cycle
// @Tags cycles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 201 {object} domain.CycleSummary
// @Failure 409 {object} object{error=string}
// @Failure 422 {object} object{error=string}
// @Router /api/v1/goals/{id}/cycles/close [post]
func (h *CycleHandler) Close(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	summary, err := h.svc.Close(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}
