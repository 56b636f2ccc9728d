package progress

import (
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
)

type Position string

const (
	PositionBefore Position = "before"
	PositionActive Position = "active"
	PositionAfter  Position = "after"
)

// Window is the half-open interval [Start, End) over which a goal is measured.
// Position tells where the reference instant lies relative to the goal's active span.
type Window struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Position Position  `json:"position"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ResolveWindow returns the window of goal that encloses ref.
//
// Fixed goals always get [StartAt, EndAt). Rolling goals get the last RollingDays calendar
// days ending with the day of ref. Recurring goals get the daily, weekly, monthly or
// every-N-days period that contains ref. Calendar days are taken in the goal's timezone
// and the returned bounds are UTC.
func ResolveWindow(goal *domain.Goal, ref time.Time) (Window, error) {
	loc, err := goal.Location()
	if err != nil {
		return Window{}, fmt.Errorf("%w: %v", domain.ErrInvalidTimeframe, err)
	}

	tf := goal.Timeframe
	var start, end time.Time

	switch tf.Kind {
	case domain.TimeframeFixed:
		if tf.EndAt == nil {
			return Window{}, fmt.Errorf("%w: fixed timeframe without end", domain.ErrInvalidTimeframe)
		}
		start, end = tf.StartAt, *tf.EndAt

	case domain.TimeframeRolling:
		if tf.RollingDays < 1 {
			return Window{}, fmt.Errorf("%w: rolling timeframe without length", domain.ErrInvalidTimeframe)
		}
		end = startOfDay(ref.In(loc)).AddDate(0, 0, 1)
		start = end.AddDate(0, 0, -tf.RollingDays)

	case domain.TimeframeRecurring:
		start, end, err = recurringBounds(tf, ref.In(loc), loc)
		if err != nil {
			return Window{}, err
		}

	default:
		return Window{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidTimeframe, tf.Kind)
	}

	return Window{
		Start:    start.UTC(),
		End:      end.UTC(),
		Position: position(tf, ref),
	}, nil
}

// PreviousWindow returns the window that ends where w starts.
func PreviousWindow(goal *domain.Goal, w Window) (Window, error) {
	return ResolveWindow(goal, w.Start.Add(-time.Nanosecond))
}

// PeriodIndex numbers the periods of a recurring goal: the period holding StartAt is 1.
// Periods before it get zero or negative numbers.
func PeriodIndex(goal *domain.Goal, w Window) (int, error) {
	tf := goal.Timeframe
	if tf.Kind != domain.TimeframeRecurring || tf.Recurrence == nil {
		return 0, fmt.Errorf("%w: periods exist only for recurring goals", domain.ErrInvalidTimeframe)
	}

	loc, err := goal.Location()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidTimeframe, err)
	}

	first, _, err := recurringBounds(tf, tf.StartAt.In(loc), loc)
	if err != nil {
		return 0, err
	}
	cur := w.Start.In(loc)

	switch tf.Recurrence.Period {
	case domain.PeriodMonthly:
		months := (cur.Year()-first.Year())*12 + int(cur.Month()) - int(first.Month())
		return months + 1, nil
	case domain.PeriodWeekly:
		return floorDiv(dayNumber(cur)-dayNumber(first), 7) + 1, nil
	case domain.PeriodDays:
		return floorDiv(dayNumber(cur)-dayNumber(first), tf.Recurrence.Interval) + 1, nil
	default:
		return dayNumber(cur) - dayNumber(first) + 1, nil
	}
}

func recurringBounds(tf domain.Timeframe, local time.Time, loc *time.Location) (time.Time, time.Time, error) {
	r := tf.Recurrence
	if r == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: recurring timeframe without recurrence", domain.ErrInvalidTimeframe)
	}

	day := startOfDay(local)

	switch r.Period {
	case domain.PeriodDaily:
		return day, day.AddDate(0, 0, 1), nil

	case domain.PeriodWeekly:
		if r.WeekStart == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: weekly recurrence without week start", domain.ErrInvalidTimeframe)
		}
		offset := (int(day.Weekday()) - int(*r.WeekStart) + 7) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil

	case domain.PeriodMonthly:
		if r.MonthDay < 1 || r.MonthDay > 28 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: monthly recurrence needs a month day in 1-28", domain.ErrInvalidTimeframe)
		}
		y, m, d := day.Date()
		if d < r.MonthDay {
			m--
		}
		start := time.Date(y, m, r.MonthDay, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil

	case domain.PeriodDays:
		if r.Interval < 1 {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: interval recurrence needs a positive interval", domain.ErrInvalidTimeframe)
		}
		if tf.StartAt.IsZero() {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: interval recurrence needs a start", domain.ErrInvalidTimeframe)
		}
		anchor := startOfDay(tf.StartAt.In(loc))
		n := floorDiv(dayNumber(day)-dayNumber(anchor), r.Interval)
		start := anchor.AddDate(0, 0, n*r.Interval)
		return start, start.AddDate(0, 0, r.Interval), nil

	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown recurrence period %q", domain.ErrInvalidTimeframe, r.Period)
	}
}

func position(tf domain.Timeframe, ref time.Time) Position {
	if !tf.StartAt.IsZero() && ref.Before(tf.StartAt) {
		return PositionBefore
	}
	if tf.EndAt != nil && !ref.Before(*tf.EndAt) {
		return PositionAfter
	}
	return PositionActive
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayNumber maps the calendar date of t (in t's location) to a day count since the epoch.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// goalLocation is the lenient variant of Goal.Location used where no error can be reported.
func goalLocation(goal *domain.Goal) *time.Location {
	loc, err := goal.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}
