package http

import (
	"net/http"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
)

type LogHandler struct {
	svc *services.LogService
}

func NewLogHandler(svc *services.LogService) *LogHandler {
	return &LogHandler{
		svc: svc,
	}
}

type createLogRequest struct {
	// Date is RFC 3339 or YYYY-MM-DD; empty means now.
	Date  string   `json:"date"`
	Value *float64 `json:"value" binding:"required"`
	Note  string   `json:"note"`
}

type updateLogRequest struct {
	Date    *string  `json:"date"`
	Value   *float64 `json:"value"`
	Note    *string  `json:"note"`
	Version int      `json:"version"`
}

type listLogsQuery struct {
	pageQuery
	Order string `form:"order" binding:"omitempty,oneof=asc desc"`
}

func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/goals/:id/logs", h.Create)
	router.GET("/goals/:id/logs", h.ListByGoal)

	logs := router.Group("/logs")
	{
		logs.GET("", h.ListMine)
		logs.GET("/:id", h.Get)
		logs.PATCH("/:id", h.Update)
		logs.DELETE("/:id", h.Delete)
	}
}

// Create records progress on a goal
// @Summary Log progress
// @Tags logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param request body createLogRequest true "Log entry"
// @Success 201 {object} domain.LogEntry
// @Failure 400 {object} object{error=string}
// @Failure 422 {object} object{error=string}
// @Router /api/v1/goals/{id}/logs [post]
func (h *LogHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req createLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := parseTime(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format", "details": err.Error()})
			return
		}
		date = parsed
	}

	entry, err := h.svc.Create(c.Request.Context(), services.CreateLogInput{
		GoalID: c.Param("id"),
		UserID: userID,
		Date:   date,
		Value:  *req.Value,
		Note:   req.Note,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ListByGoal pages through the logs of a goal
// @Summary List goal logs
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Goal ID"
// @Param from_date query string false "Inclusive lower bound"
// @Param to_date query string false "Exclusive upper bound"
// @Param order query string false "asc or desc (default)"
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} domain.Page[domain.LogEntry]
// @Router /api/v1/goals/{id}/logs [get]
func (h *LogHandler) ListByGoal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	input, ok := h.listInput(c, userID)
	if !ok {
		return
	}
	input.GoalID = c.Param("id")

	page, err := h.svc.ListByGoal(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListMine pages through every log written by the caller
// @Summary List my logs
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param from_date query string false "Inclusive lower bound"
// @Param to_date query string false "Exclusive upper bound"
// @Param order query string false "asc or desc (default)"
// @Param page query int false "Page, from 1"
// @Param page_size query int false "Page size, at most 100"
// @Success 200 {object} domain.Page[domain.LogEntry]
// @Router /api/v1/logs [get]
func (h *LogHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	input, ok := h.listInput(c, userID)
	if !ok {
		return
	}

	page, err := h.svc.ListByUser(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// listInput reads the shared listing parameters. On failure it has already responded.
func (h *LogHandler) listInput(c *gin.Context, userID string) (services.ListLogsInput, bool) {
	var q listLogsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return services.ListLogsInput{}, false
	}

	from, err := optionalTime(c, "from_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_date", "details": err.Error()})
		return services.ListLogsInput{}, false
	}
	to, err := optionalTime(c, "to_date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to_date", "details": err.Error()})
		return services.ListLogsInput{}, false
	}

	return services.ListLogsInput{
		UserID:    userID,
		From:      from,
		To:        to,
		Ascending: q.Order == "asc",
		Page:      q.Page,
		PageSize:  q.PageSize,
	}, true
}

// Get returns one log entry
// @Summary Get a log
// @Tags logs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 200 {object} domain.LogEntry
// @Router /api/v1/logs/{id} [get]
func (h *LogHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	entry, err := h.svc.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Update patches a log entry
// @Summary Update a log
// @Tags logs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Param request body updateLogRequest true "Fields to change"
// @Success 200 {object} domain.LogEntry
// @Failure 409 {object} object{error=string,message=string}
// @Router /api/v1/logs/{id} [patch]
func (h *LogHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		userContextMissing(c)
		return
	}

	var req updateLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := services.UpdateLogInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Value:   req.Value,
		Note:    req.Note,
		Version: req.Version,
	}
	if req.Date != nil {
		parsed, err := parseTime(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format", "details": err.Error()})
			return
		}
		input.Date = &parsed
	}

	entry, err := h.svc.Update(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Delete removes a log entry
// @Summary Delete a log
// @Tags logs
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 204
// @Router /api/v1/logs/{id} [delete]
func (h *LogHandler) Delete(c *gin.Context) {
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
