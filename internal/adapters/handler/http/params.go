package http

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// parseTime accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date (midnight UTC).
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither RFC 3339 nor YYYY-MM-DD", domain.ErrInvalidDateRange, value)
	}
	return t, nil
}

// optionalTime reads a query parameter with parseTime. A missing parameter gives nil.
func optionalTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
