package http

import (
	"net/http"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	svc *services.GoalService
}

func NewGoalHandler(svc *services.GoalService) *GoalHandler {
	return &GoalHandler{
		svc: svc,
	}
}

type createGoalRequest struct {
	Name        string                      `json:"name" binding:"required"`
	Description string                      `json:"description"`
	Emoji       string                      `json:"emoji"`
	Type        string                      `json:"goal_type" binding:"required"`
	Unit        string                      `json:"unit"`
	Target      *float64                    `json:"target"`
	Timeframe   *domain.Timeframe           `json:"timeframe" binding:"required"`
	Timezone    string                      `json:"timezone"`
	Streak      domain.StreakPolicy         `json:"streak_policy"`
	Milestones  []domain.MilestoneThreshold `json:"milestones"`
	Privacy     string                      `json:"privacy"`
	Status      string                      `json:"status"`
}

// updateGoalRequest is a partial update; absent fields are left untouched.
type updateGoalRequest struct {
	Name        *string                      `json:"name"`
	Description *string                      `json:"description"`
	Emoji       *string                      `json:"emoji"`
	Type        *domain.GoalType             `json:"goal_type"`
	Unit        *string                      `json:"unit"`
	Target      *float64                     `json:"target"`
	ClearTarget bool                         `json:"clear_target"`
	Timeframe   *domain.Timeframe            `json:"timeframe"`
	Timezone    *string                      `json:"timezone"`
	Streak      *domain.StreakPolicy         `json:"streak_policy"`
	Milestones  *[]domain.MilestoneThreshold `json:"milestones"`
	Privacy     *domain.Privacy              `json:"privacy"`
	Status      *domain.GoalStatus           `json:"status"`
	Version     int                          `json:"version"`
}

type listGoalsQuery struct {
	pageQuery
	Status       string `form:"status"`
	Type         string `form:"goal_type"`
	Privacy      string `form:"privacy"`
	Query        string `form:"q"`
	IncludeStats bool   `form:"include_stats"`
}

type shareResponse struct {
	ShareToken string `json:"share_token"`
	SharePath  string `json:"share_path"`
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	goals := router.Group("/goals")
	{
		goals.POST("", h.Create)
		goals.GET("", h.List)
		goals.GET("/public", h.ListPublic)
		goals.GET("/:id", h.Get)
		goals.PATCH("/:id", h.Update)
		goals.DELETE("/:id", h.Delete)
		goals.POST("/:id/share", h.Share)
	}
}

// Create adds a goal owned by the caller
// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createGoalRequest true "Goal definition"
// @Success 201 {object} domain.Goal
// @Failure 400 {object} object{error=string}
// @Router /api/v1/goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	goal, err := h.svc.Create(c.Request.Context(), services.CreateGoalInput{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Emoji:       req.Emoji,
		Type:        domain.GoalType(req.Type),
		Unit:        req.Unit,
		Target:      req.Target,
		Timeframe:   *req.Timeframe,
		Timezone:    req.Timezone,
		Streak:      req.Streak,
		Milestones:  req.Milestones,
		Privacy:     domain.Privacy(req.Privacy),
		Status:      domain.GoalStatus(req.Status),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, goal)
}

// List pages through the caller's goals
// @Summary List my goals
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param status query string false "draft, active, ended or archived"
// @Param goal_type query string false "count, sum, streak, milestone or open"
// @Param privacy query string false "public, unlisted or private"
// @Param q query string false "Search in name and description"
// @Param include_stats query bool false "Compute progress for each goal"
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} domain.Page[services.GoalView]
// @Router /api/v1/goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var q listGoalsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	page, err := h.svc.List(c.Request.Context(), services.ListGoalsInput{
		UserID:       userID,
		Status:       domain.GoalStatus(q.Status),
		Type:         domain.GoalType(q.Type),
		Privacy:      domain.Privacy(q.Privacy),
		Query:        q.Query,
		Page:         q.Page,
		PageSize:     q.PageSize,
		IncludeStats: q.IncludeStats,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListPublic pages through every public goal
// @Summary List public goals
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} domain.Page[services.GoalView]
// @Router /api/v1/goals/public [get]
func (h *GoalHandler) ListPublic(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	page, err := h.svc.ListPublic(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get returns one goal
// @Summary Get a goal
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} domain.Goal
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	goal, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// Update patches an owned goal
// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body updateGoalRequest true "Fields to change"
// @Success 200 {object} domain.Goal
// @Failure 409 {object} object{error=string,message=string}
// @Router /api/v1/goals/{id} [patch]
func (h *GoalHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	goal, err := h.svc.Update(c.Request.Context(), services.UpdateGoalInput{
		ID:          c.Param("id"),
		UserID:      userID,
		Version:     req.Version,
		Name:        req.Name,
		Description: req.Description,
		Emoji:       req.Emoji,
		Type:        req.Type,
		Unit:        req.Unit,
		Target:      req.Target,
		ClearTarget: req.ClearTarget,
		Timeframe:   req.Timeframe,
		Timezone:    req.Timezone,
		Streak:      req.Streak,
		Milestones:  req.Milestones,
		Privacy:     req.Privacy,
		Status:      req.Status,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// Delete removes an owned goal with its logs and cycle summaries
// @Summary Delete a goal
// @Tags goals
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 204
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Share generates a fresh share token for an owned goal
// @Summary Generate a share token
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Success 200 {object} shareResponse
// @Router /api/v1/goals/{id}/share [post]
func (h *GoalHandler) Share(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	goal, err := h.svc.GenerateShareToken(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	token := *goal.ShareToken
	c.JSON(http.StatusOK, shareResponse{
		ShareToken: token,
		SharePath:  "/api/v1/share/" + token,
	})
}
