package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
)

const dateLayout = "2006-01-02"

type StatsService struct {
	goalRepo domain.GoalRepository
	logRepo  domain.LogRepository
	now      func() time.Time
}

func NewStatsService(goalRepo domain.GoalRepository, logRepo domain.LogRepository) *StatsService {
	return &StatsService{
		goalRepo: goalRepo,
		logRepo:  logRepo,
		now:      time.Now,
	}
}

type ChartInput struct {
	GoalID string
	UserID string
	Bucket domain.ChartBucket
	// From and To are calendar dates in the goal timezone, both inclusive.
	From *time.Time
	To   *time.Time
}

func (s *StatsService) readable(ctx context.Context, goalID, userID string) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.VisibleTo(userID) {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

// Progress computes the statistics of a goal now, or as of the instant at when given:
// logs dated after at are then left out.
func (s *StatsService) Progress(ctx context.Context, goalID, userID string, at *time.Time) (progress.Result, error) {
	goal, err := s.readable(ctx, goalID, userID)
	if err != nil {
		return progress.Result{}, err
	}
	return s.compute(ctx, goal, at)
}

// SharedProgress computes the statistics of a goal already resolved from a share token.
func (s *StatsService) SharedProgress(ctx context.Context, goal *domain.Goal) (progress.Result, error) {
	return s.compute(ctx, goal, nil)
}

func (s *StatsService) compute(ctx context.Context, goal *domain.Goal, at *time.Time) (progress.Result, error) {
	history, err := s.logRepo.History(ctx, goal.ID)
	if err != nil {
		return progress.Result{}, err
	}

	if at == nil {
		return progress.Calculate(goal, history, s.now())
	}
	return progress.Calculate(goal, loggedBy(history, *at), *at)
}

// loggedBy keeps the logs dated at or before t, so that a past instant sees the goal as it was.
func loggedBy(logs []*domain.LogEntry, t time.Time) []*domain.LogEntry {
	out := make([]*domain.LogEntry, 0, len(logs))
	for _, l := range logs {
		if !l.Date.After(t) {
			out = append(out, l)
		}
	}
	return out
}

// Chart buckets the logs of a goal by day or by Monday-based week, zero-filling empty
// buckets and carrying a running total. Bucket values follow the goal's aggregation rule.
func (s *StatsService) Chart(ctx context.Context, input ChartInput) ([]domain.ChartPoint, error) {
	if input.Bucket == "" {
		input.Bucket = domain.BucketDaily
	}
	if !input.Bucket.Valid() {
		return nil, domain.ErrInvalidBucket
	}

	goal, err := s.readable(ctx, input.GoalID, input.UserID)
	if err != nil {
		return nil, err
	}
	loc, err := goal.Location()
	if err != nil {
		return nil, err
	}

	to := s.now().In(loc)
	if input.To != nil {
		to = *input.To
	}
	from := to.AddDate(0, 0, -29)
	if input.From != nil {
		from = *input.From
	}
	first, last := calendarDay(from, loc), calendarDay(to, loc)
	if last.Before(first) {
		return nil, fmt.Errorf("%w: from_date is after to_date", domain.ErrInvalidDateRange)
	}
	if last.Sub(first) > domain.MaxChartDays*24*time.Hour {
		return nil, fmt.Errorf("%w: at most %d days", domain.ErrInvalidDateRange, domain.MaxChartDays)
	}

	if input.Bucket == domain.BucketWeekly {
		first = first.AddDate(0, 0, -mondayOffset(first))
	}
	end := last.AddDate(0, 0, 1)

	logs, err := s.logRepo.ListByGoalID(ctx, goal.ID, first.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}

	step := 1
	if input.Bucket == domain.BucketWeekly {
		step = 7
	}

	var cumulative float64
	points := make([]domain.ChartPoint, 0)
	for start := first; start.Before(end); start = start.AddDate(0, 0, step) {
		w := progress.Window{Start: start.UTC(), End: start.AddDate(0, 0, step).UTC()}
		v := progress.Aggregate(goal, logs, w)
		cumulative += v
		points = append(points, domain.ChartPoint{
			Date:       start.Format(dateLayout),
			Value:      v,
			Cumulative: cumulative,
		})
	}

	return points, nil
}

// Heatmap sums log values per calendar day of month (YYYY-MM, goal timezone).
// Only days with logs are returned; intensity is the integer part of the value capped to 0..4.
func (s *StatsService) Heatmap(ctx context.Context, goalID, userID, month string) ([]domain.HeatmapCell, error) {
	goal, err := s.readable(ctx, goalID, userID)
	if err != nil {
		return nil, err
	}
	loc, err := goal.Location()
	if err != nil {
		return nil, err
	}

	var start time.Time
	if month == "" {
		now := s.now().In(loc)
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	} else {
		start, err = time.ParseInLocation("2006-01", month, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMonth, month)
		}
	}
	end := start.AddDate(0, 1, 0)

	logs, err := s.logRepo.ListByGoalID(ctx, goal.ID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	for _, l := range logs {
		totals[l.Date.In(loc).Format(dateLayout)] += l.Value
	}

	cells := make([]domain.HeatmapCell, 0, len(totals))
	for day, v := range totals {
		cells = append(cells, domain.HeatmapCell{Date: day, Value: v, Intensity: intensity(v)})
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Date < cells[j].Date })

	return cells, nil
}

func intensity(v float64) int {
	return min(domain.MaxHeatmapIntensity, max(0, int(v)))
}

// Overview summarizes every goal and log of a user.
// Best day and best week are the UTC day and Monday-based week with the highest summed value.
func (s *StatsService) Overview(ctx context.Context, userID string) (*domain.OverviewStats, error) {
	goals, err := s.goalRepo.ListByOwnerID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &domain.OverviewStats{TotalGoals: len(goals)}
	if len(goals) == 0 {
		return out, nil
	}

	for _, g := range goals {
		switch g.Status {
		case domain.GoalStatusActive:
			out.ActiveGoals++
		case domain.GoalStatusEnded:
			out.CompletedGoals++
		}
	}
	out.CompletionRate = float64(out.CompletedGoals) / float64(out.TotalGoals) * 100

	logs, err := s.logRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.TotalLogs = len(logs)
	out.BestDay, out.BestWeek = bestPeriods(logs)

	now := s.now()
	byGoal := make(map[string][]*domain.LogEntry)
	for _, l := range logs {
		byGoal[l.GoalID] = append(byGoal[l.GoalID], l)
	}
	for _, g := range goals {
		if g.Type != domain.GoalTypeStreak {
			continue
		}
		out.LongestStreak = max(out.LongestStreak, progress.ComputeStreaks(g, byGoal[g.ID], now).Longest)
	}

	return out, nil
}

func bestPeriods(logs []*domain.LogEntry) (*time.Time, *time.Time) {
	if len(logs) == 0 {
		return nil, nil
	}

	days := make(map[time.Time]float64)
	for _, l := range logs {
		days[localDay(l.Date, time.UTC)] += l.Value
	}
	weeks := make(map[time.Time]float64)
	for d, v := range days {
		weeks[d.AddDate(0, 0, -mondayOffset(d))] += v
	}

	bestDay, bestWeek := argmax(days), argmax(weeks)
	return &bestDay, &bestWeek
}

// argmax picks the key with the highest value, the earliest one on ties.
func argmax(m map[time.Time]float64) time.Time {
	var best time.Time
	var bestV float64
	first := true
	for k, v := range m {
		if first || v > bestV || (v == bestV && k.Before(best)) {
			best, bestV, first = k, v, false
		}
	}
	return best
}

// calendarDay keeps the date of t as written and places its midnight in loc.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func localDay(t time.Time, loc *time.Location) time.Time {
	return calendarDay(t.In(loc), loc)
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
