package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidBucket    = errors.New("invalid bucket (must be daily or weekly)")
	ErrInvalidMonth     = errors.New("invalid month (expected YYYY-MM)")
)

// MaxChartDays bounds the span of a single chart request.
const MaxChartDays = 366

type ChartBucket string

const (
	BucketDaily  ChartBucket = "daily"
	BucketWeekly ChartBucket = "weekly"
)

func (b ChartBucket) Valid() bool {
	return b == BucketDaily || b == BucketWeekly
}

type ChartPoint struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Cumulative float64 `json:"cumulative"`
}

type HeatmapCell struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	Intensity int     `json:"intensity"`
}

// MaxHeatmapIntensity caps the per-day intensity level.
const MaxHeatmapIntensity = 4

type OverviewStats struct {
	TotalGoals     int        `json:"total_goals"`
	ActiveGoals    int        `json:"active_goals"`
	CompletedGoals int        `json:"completed_goals"`
	TotalLogs      int        `json:"total_logs"`
	BestDay        *time.Time `json:"best_day"`
	BestWeek       *time.Time `json:"best_week"`
	LongestStreak  int        `json:"longest_streak"`
	CompletionRate float64    `json:"completion_rate"`
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}

func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
}
