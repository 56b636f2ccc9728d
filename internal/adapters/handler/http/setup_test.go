package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
)

type testEnv struct {
	router *gin.Engine
	store  *repository.InMemoryStore
}

// setupRouter wires the goal, log, stats, cycle and share handlers over an in-memory store.
// The caller is taken from the X-User-ID header instead of a token.
func setupRouter(t *testing.T, userIDs ...string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewInMemoryStore()
	goals, logs, cycles := store.Goals(), store.Logs(), store.Cycles()

	for _, id := range userIDs {
		u, err := domain.NewUser(id, id+"@kanso.app", id)
		require.NoError(t, err)
		require.NoError(t, store.Users().Create(context.Background(), u))
	}

	goalSvc := services.NewGoalService(goals, logs)
	logSvc := services.NewLogService(logs, goals, nil)
	statsSvc := services.NewStatsService(goals, logs)
	cycleSvc := services.NewCycleService(cycles, goals, logs)

	r := gin.New()
	api := r.Group("/api/v1")
	adapterHTTP.NewShareHandler(goalSvc, logSvc, statsSvc).RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})
	adapterHTTP.NewGoalHandler(goalSvc).RegisterRoutes(protected)
	adapterHTTP.NewLogHandler(logSvc).RegisterRoutes(protected)
	adapterHTTP.NewStatsHandler(statsSvc).RegisterRoutes(protected)
	adapterHTTP.NewCycleHandler(cycleSvc).RegisterRoutes(protected)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

const sumGoalJSON = `{
	"name": "Read 100 pages",
	"goal_type": "sum",
	"unit": "pages",
	"target": 100,
	"timeframe": {"kind": "fixed", "start_at": "2024-01-01T00:00:00Z", "end_at": "2024-02-01T00:00:00Z"},
	"milestones": [{"label": "half", "kind": "percent", "amount": 50}]
}`

// createGoal posts body as userID and returns the decoded goal.
func (e *testEnv) createGoal(t *testing.T, userID, body string) domain.Goal {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/goals", userID, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var g domain.Goal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	return g
}

func (e *testEnv) createLog(t *testing.T, userID, goalID, date string, value float64) domain.LogEntry {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"date": date, "value": value})
	w := e.do(http.MethodPost, "/api/v1/goals/"+goalID+"/logs", userID, string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var l domain.LogEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	return l
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var jan2024 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
