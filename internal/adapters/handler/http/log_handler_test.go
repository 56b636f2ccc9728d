package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

func TestCreateLog(t *testing.T) {
	env := setupRouter(t, "owner", "other")
	g := env.createGoal(t, "owner", sumGoalJSON)

	t.Run("Success: 201 Created", func(t *testing.T) {
		l := env.createLog(t, "owner", g.ID, "2024-01-05", 12.5)
		assert.Equal(t, g.ID, l.GoalID)
		assert.Equal(t, "owner", l.UserID)
		assert.Equal(t, 12.5, l.Value)
		assert.True(t, l.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("Date defaults to now", func(t *testing.T) {
		before := time.Now().UTC().Add(-time.Second)
		w := env.do(http.MethodPost, "/api/v1/goals/"+g.ID+"/logs", "owner", `{"value":1}`)
		require.Equal(t, http.StatusCreated, w.Code)

		l := decode[domain.LogEntry](t, w)
		assert.True(t, l.Date.After(before))
	})

	t.Run("Zero is a valid value", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/goals/"+g.ID+"/logs", "owner", `{"value":0,"date":"2024-01-06"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	cases := []struct {
		name string
		body string
	}{
		{"missing value", `{"date":"2024-01-05"}`},
		{"negative value", `{"value":-1}`},
		{"bad date", `{"value":1,"date":"05/01/2024"}`},
	}
	for _, tc := range cases {
		t.Run("Fail: 400 "+tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/goals/"+g.ID+"/logs", "owner", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("Fail: 403 Forbidden (IDOR)", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/goals/"+g.ID+"/logs", "other", `{"value":1}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Fail: 404 unknown goal", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/v1/goals/nope/logs", "owner", `{"value":1}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListLogs(t *testing.T) {
	env := setupRouter(t, "owner", "other")
	g := env.createGoal(t, "owner", sumGoalJSON)
	for day, v := range map[string]float64{"2024-01-03": 3, "2024-01-01": 1, "2024-01-02": 2} {
		env.createLog(t, "owner", g.ID, day, v)
	}

	t.Run("Newest first by default", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/goals/"+g.ID+"/logs", "owner", "")
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[domain.Page[domain.LogEntry]](t, w)
		require.Len(t, page.Items, 3)
		assert.Equal(t, 3.0, page.Items[0].Value)
	})

	t.Run("Ascending with half-open range", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/goals/"+g.ID+"/logs?order=asc&from_date=2024-01-02&to_date=2024-01-03", "owner", "")
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[domain.Page[domain.LogEntry]](t, w)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 2.0, page.Items[0].Value)
	})

	t.Run("Fail: 400 bad order", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/goals/"+g.ID+"/logs?order=sideways", "owner", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: 403 private goal of someone else", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/goals/"+g.ID+"/logs", "other", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("All logs of the caller", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/v1/logs?page_size=2", "owner", "")
		require.Equal(t, http.StatusOK, w.Code)

		page := decode[domain.Page[domain.LogEntry]](t, w)
		assert.Equal(t, 3, page.Total)
		assert.Len(t, page.Items, 2)

		w = env.do(http.MethodGet, "/api/v1/logs", "other", "")
		assert.Equal(t, 0, decode[domain.Page[domain.LogEntry]](t, w).Total)
	})
}

func TestUpdateLog(t *testing.T) {
	t.Run("Success: 200 OK", func(t *testing.T) {
		env := setupRouter(t, "owner")
		g := env.createGoal(t, "owner", sumGoalJSON)
		l := env.createLog(t, "owner", g.ID, "2024-01-05", 5)

		w := env.do(http.MethodPatch, "/api/v1/logs/"+l.ID, "owner", `{"value":8,"note":" evening ","version":1}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		updated := decode[domain.LogEntry](t, w)
		assert.Equal(t, 8.0, updated.Value)
		assert.Equal(t, "evening", updated.Note)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("Fail: 409 Conflict", func(t *testing.T) {
		env := setupRouter(t, "owner")
		g := env.createGoal(t, "owner", sumGoalJSON)
		l := env.createLog(t, "owner", g.ID, "2024-01-05", 5)

		w := env.do(http.MethodPatch, "/api/v1/logs/"+l.ID, "owner", `{"value":8,"version":7}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "please sync")
	})

	t.Run("Fail: 400 negative value", func(t *testing.T) {
		env := setupRouter(t, "owner")
		g := env.createGoal(t, "owner", sumGoalJSON)
		l := env.createLog(t, "owner", g.ID, "2024-01-05", 5)

		w := env.do(http.MethodPatch, "/api/v1/logs/"+l.ID, "owner", `{"value":-2}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAndDeleteLog(t *testing.T) {
	env := setupRouter(t, "owner", "other")
	g := env.createGoal(t, "owner", sumGoalJSON)
	l := env.createLog(t, "owner", g.ID, "2024-01-05", 5)

	t.Run("Fail: 403 Forbidden (other user's entry)", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/v1/logs/"+l.ID, "other", "").Code)
		assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/v1/logs/"+l.ID, "other", "").Code)
	})

	t.Run("Success: 204 No Content", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/logs/"+l.ID, "owner", "").Code)
		assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/logs/"+l.ID, "owner", "").Code)
	})

	t.Run("Fail: 404 Not Found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/v1/logs/"+l.ID, "owner", "").Code)
	})
}
