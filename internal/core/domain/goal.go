package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

var (
	ErrGoalNameEmpty       = errors.New("goal name cannot be empty")
	ErrGoalNameTooLong     = errors.New("goal name is too long (max 200 chars)")
	ErrGoalDescTooLong     = errors.New("goal description is too long (max 1000 chars)")
	ErrGoalInvalidOwnerID  = errors.New("invalid owner id")
	ErrInvalidGoalType     = errors.New("invalid goal type (must be count, sum, streak, milestone or open)")
	ErrTargetRequired      = errors.New("target is required for count, sum and milestone goals")
	ErrTargetNotAllowed    = errors.New("open goals cannot have a target")
	ErrInvalidTarget       = errors.New("target must be positive")
	ErrInvalidTimeframe    = errors.New("invalid timeframe")
	ErrInvalidTimezone     = errors.New("invalid timezone")
	ErrInvalidPrivacy      = errors.New("invalid privacy (must be public, unlisted or private)")
	ErrInvalidStatus       = errors.New("invalid status (must be draft, active, ended or archived)")
	ErrInvalidStreakPolicy = errors.New("invalid streak policy")
	ErrInvalidMilestone    = errors.New("invalid milestone threshold")
	ErrGoalArchived        = errors.New("cannot update an archived goal")
)

type GoalType string

const (
	GoalTypeCount     GoalType = "count"
	GoalTypeSum       GoalType = "sum"
	GoalTypeStreak    GoalType = "streak"
	GoalTypeMilestone GoalType = "milestone"
	GoalTypeOpen      GoalType = "open"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeCount, GoalTypeSum, GoalTypeStreak, GoalTypeMilestone, GoalTypeOpen:
		return true
	}
	return false
}

// RequiresTarget reports whether goals of this type are meaningless without a target.
func (t GoalType) RequiresTarget() bool {
	return t == GoalTypeCount || t == GoalTypeSum || t == GoalTypeMilestone
}

type TimeframeKind string

const (
	TimeframeFixed     TimeframeKind = "fixed"
	TimeframeRolling   TimeframeKind = "rolling"
	TimeframeRecurring TimeframeKind = "recurring"
)

type RecurrencePeriod string

const (
	PeriodDaily   RecurrencePeriod = "daily"
	PeriodWeekly  RecurrencePeriod = "weekly"
	PeriodMonthly RecurrencePeriod = "monthly"
	PeriodDays    RecurrencePeriod = "days"
)

type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyPrivate  Privacy = "private"
)

type GoalStatus string

const (
	GoalStatusDraft    GoalStatus = "draft"
	GoalStatusActive   GoalStatus = "active"
	GoalStatusEnded    GoalStatus = "ended"
	GoalStatusArchived GoalStatus = "archived"
)

// TodayPolicy decides how a calendar day that has no log yet affects the current streak.
type TodayPolicy string

const (
	// TodayOpen keeps the streak alive until the current day is over.
	TodayOpen TodayPolicy = "open"
	// TodayStrict counts an unlogged current day as a missed day.
	TodayStrict TodayPolicy = "strict"
	// TodayLastHit measures the run ending at the most recent hit day, however old.
	TodayLastHit TodayPolicy = "last_hit"
)

type MilestoneKind string

const (
	MilestonePercent  MilestoneKind = "percent"
	MilestoneAbsolute MilestoneKind = "absolute"
)

const (
	MaxNameLen         = 200
	MaxDescLen         = 1000
	DefaultRollingDays = 30
	DefaultTimezone    = "UTC"
	MaxGraceDays       = 30
)

type Recurrence struct {
	Period    RecurrencePeriod `json:"period"`
	Interval  int              `json:"interval,omitempty"`
	WeekStart *time.Weekday    `json:"week_start,omitempty"`
	MonthDay  int              `json:"month_day,omitempty"`
}

type Timeframe struct {
	Kind        TimeframeKind `json:"kind"`
	StartAt     time.Time     `json:"start_at"`
	EndAt       *time.Time    `json:"end_at,omitempty"`
	RollingDays int           `json:"rolling_days,omitempty"`
	Recurrence  *Recurrence   `json:"recurrence,omitempty"`
}

type StreakPolicy struct {
	Today     TodayPolicy `json:"today"`
	GraceDays int         `json:"grace_days"`
}

type MilestoneThreshold struct {
	Label  string        `json:"label"`
	Kind   MilestoneKind `json:"kind"`
	Amount float64       `json:"amount"`
}

type Goal struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"owner_id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Emoji       string               `json:"emoji,omitempty"`
	Type        GoalType             `json:"goal_type"`
	Unit        string               `json:"unit,omitempty"`
	Target      *float64             `json:"target,omitempty"`
	Timeframe   Timeframe            `json:"timeframe"`
	Timezone    string               `json:"timezone"`
	Streak      StreakPolicy         `json:"streak_policy"`
	Milestones  []MilestoneThreshold `json:"milestones,omitempty"`
	Privacy     Privacy              `json:"privacy"`
	Status      GoalStatus           `json:"status"`
	ShareToken  *string              `json:"share_token,omitempty"`

	CurrentStreak     int `json:"current_streak"`
	LongestStreak     int `json:"longest_streak"`
	MilestonesReached int `json:"milestones_reached"`
	// MilestonePeriod is the start of the recurring period MilestonesReached was counted in.
	MilestonePeriod *time.Time `json:"milestone_period,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalSnapshot holds the denormalized figures kept on the goal row by the background worker.
type GoalSnapshot struct {
	CurrentStreak     int
	LongestStreak     int
	MilestonesReached int
	MilestonePeriod   *time.Time
}

func (s GoalSnapshot) Equal(o GoalSnapshot) bool {
	if s.CurrentStreak != o.CurrentStreak || s.LongestStreak != o.LongestStreak || s.MilestonesReached != o.MilestonesReached {
		return false
	}
	return SamePeriod(s.MilestonePeriod, o.MilestonePeriod)
}

// SamePeriod reports whether two optional period starts denote the same instant.
func SamePeriod(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// GoalSpec carries every user-editable field of a goal.
type GoalSpec struct {
	Name        string
	Description string
	Emoji       string
	Type        GoalType
	Unit        string
	Target      *float64
	Timeframe   Timeframe
	Timezone    string
	Streak      StreakPolicy
	Milestones  []MilestoneThreshold
	Privacy     Privacy
	Status      GoalStatus
}

func NewGoal(ownerID string, spec GoalSpec) (*Goal, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrGoalInvalidOwnerID
	}

	now := time.Now().UTC()
	if spec.Timeframe.StartAt.IsZero() {
		spec.Timeframe.StartAt = now
	}

	clean, err := normalizeSpec(spec)
	if err != nil {
		return nil, err
	}

	g := &Goal{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.apply(clean)

	return g, nil
}

// Update replaces the editable fields with spec after validating it.
func (g *Goal) Update(spec GoalSpec) error {
	if g.Status == GoalStatusArchived && spec.Status == GoalStatusArchived {
		return ErrGoalArchived
	}

	clean, err := normalizeSpec(spec)
	if err != nil {
		return err
	}

	g.apply(clean)
	g.UpdatedAt = time.Now().UTC()
	return nil
}

// Spec returns the editable fields of the goal, ready to be patched and passed to Update.
func (g *Goal) Spec() GoalSpec {
	return GoalSpec{
		Name:        g.Name,
		Description: g.Description,
		Emoji:       g.Emoji,
		Type:        g.Type,
		Unit:        g.Unit,
		Target:      g.Target,
		Timeframe:   g.Timeframe,
		Timezone:    g.Timezone,
		Streak:      g.Streak,
		Milestones:  g.Milestones,
		Privacy:     g.Privacy,
		Status:      g.Status,
	}
}

func (g *Goal) apply(s GoalSpec) {
	g.Name = s.Name
	g.Description = s.Description
	g.Emoji = s.Emoji
	g.Type = s.Type
	g.Unit = s.Unit
	g.Target = s.Target
	g.Timeframe = s.Timeframe
	g.Timezone = s.Timezone
	g.Streak = s.Streak
	g.Milestones = s.Milestones
	g.Privacy = s.Privacy
	g.Status = s.Status
}

func (g *Goal) End() {
	if g.Status == GoalStatusEnded {
		return
	}
	g.Status = GoalStatusEnded
	g.UpdatedAt = time.Now().UTC()
}

func (g *Goal) SetShareToken(token string) {
	g.ShareToken = &token
	g.UpdatedAt = time.Now().UTC()
}

func (g *Goal) Snapshot() GoalSnapshot {
	return GoalSnapshot{
		CurrentStreak:     g.CurrentStreak,
		LongestStreak:     g.LongestStreak,
		MilestonesReached: g.MilestonesReached,
		MilestonePeriod:   g.MilestonePeriod,
	}
}

func (g *Goal) ApplySnapshot(s GoalSnapshot) {
	g.CurrentStreak = s.CurrentStreak
	g.LongestStreak = s.LongestStreak
	g.MilestonesReached = s.MilestonesReached
	g.MilestonePeriod = s.MilestonePeriod
}

func (g *Goal) IsOwnedBy(userID string) bool {
	return g.OwnerID == userID
}

// VisibleTo reports whether userID may read the goal and its logs.
func (g *Goal) VisibleTo(userID string) bool {
	return g.IsOwnedBy(userID) || g.Privacy == PrivacyPublic
}

// Location resolves the goal timezone. An empty timezone means UTC.
func (g *Goal) Location() (*time.Location, error) {
	return loadLocation(g.Timezone)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

func normalizeSpec(s GoalSpec) (GoalSpec, error) {
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	s.Unit = strings.TrimSpace(s.Unit)

	if s.Name == "" {
		return s, ErrGoalNameEmpty
	}
	if len(s.Name) > MaxNameLen {
		return s, ErrGoalNameTooLong
	}
	if len(s.Description) > MaxDescLen {
		return s, ErrGoalDescTooLong
	}

	if !s.Type.Valid() {
		return s, ErrInvalidGoalType
	}
	if s.Type.RequiresTarget() && s.Target == nil {
		return s, ErrTargetRequired
	}
	if s.Type == GoalTypeOpen && s.Target != nil {
		return s, ErrTargetNotAllowed
	}
	if s.Target != nil && *s.Target <= 0 {
		return s, ErrInvalidTarget
	}

	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if _, err := loadLocation(s.Timezone); err != nil {
		return s, err
	}

	tf, err := normalizeTimeframe(s.Timeframe)
	if err != nil {
		return s, err
	}
	s.Timeframe = tf

	if s.Streak.Today == "" {
		s.Streak.Today = TodayOpen
	}
	switch s.Streak.Today {
	case TodayOpen, TodayStrict, TodayLastHit:
	default:
		return s, ErrInvalidStreakPolicy
	}
	if s.Streak.GraceDays < 0 || s.Streak.GraceDays > MaxGraceDays {
		return s, ErrInvalidStreakPolicy
	}

	for _, m := range s.Milestones {
		if m.Amount < 0 {
			return s, ErrInvalidMilestone
		}
		switch m.Kind {
		case MilestonePercent, MilestoneAbsolute:
		default:
			return s, ErrInvalidMilestone
		}
	}

	if s.Privacy == "" {
		s.Privacy = PrivacyPrivate
	}
	switch s.Privacy {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
	default:
		return s, ErrInvalidPrivacy
	}

	if s.Status == "" {
		s.Status = GoalStatusActive
	}
	switch s.Status {
	case GoalStatusDraft, GoalStatusActive, GoalStatusEnded, GoalStatusArchived:
	default:
		return s, ErrInvalidStatus
	}

	return s, nil
}

func normalizeTimeframe(tf Timeframe) (Timeframe, error) {
	tf.StartAt = tf.StartAt.UTC()
	if tf.EndAt != nil {
		end := tf.EndAt.UTC()
		tf.EndAt = &end
	}

	switch tf.Kind {
	case TimeframeFixed:
		if tf.EndAt == nil {
			return tf, fmt.Errorf("%w: fixed timeframe requires end_at", ErrInvalidTimeframe)
		}
		if !tf.StartAt.Before(*tf.EndAt) {
			return tf, fmt.Errorf("%w: start_at must precede end_at", ErrInvalidTimeframe)
		}
		tf.RollingDays = 0
		tf.Recurrence = nil

	case TimeframeRolling:
		if tf.RollingDays == 0 {
			tf.RollingDays = DefaultRollingDays
		}
		if tf.RollingDays < 1 {
			return tf, fmt.Errorf("%w: rolling_days must be positive", ErrInvalidTimeframe)
		}
		tf.Recurrence = nil

	case TimeframeRecurring:
		if tf.Recurrence == nil {
			return tf, fmt.Errorf("%w: recurring timeframe requires a recurrence", ErrInvalidTimeframe)
		}
		rc := *tf.Recurrence
		r := &rc
		tf.Recurrence = r
		tf.RollingDays = 0
		switch r.Period {
		case PeriodDaily:
		case PeriodWeekly:
			if r.WeekStart == nil {
				monday := time.Monday
				r.WeekStart = &monday
			}
			if *r.WeekStart < time.Sunday || *r.WeekStart > time.Saturday {
				return tf, fmt.Errorf("%w: week_start must be 0-6", ErrInvalidTimeframe)
			}
		case PeriodMonthly:
			if r.MonthDay == 0 {
				r.MonthDay = 1
			}
			if r.MonthDay < 1 || r.MonthDay > 28 {
				return tf, fmt.Errorf("%w: month_day must be 1-28", ErrInvalidTimeframe)
			}
		case PeriodDays:
			if r.Interval == 0 {
				r.Interval = 7
			}
			if r.Interval < 1 {
				return tf, fmt.Errorf("%w: interval must be positive", ErrInvalidTimeframe)
			}
		default:
			return tf, fmt.Errorf("%w: unknown recurrence period %q", ErrInvalidTimeframe, r.Period)
		}
		if tf.EndAt != nil && !tf.StartAt.Before(*tf.EndAt) {
			return tf, fmt.Errorf("%w: start_at must precede end_at", ErrInvalidTimeframe)
		}

	default:
		return tf, fmt.Errorf("%w: unknown kind %q", ErrInvalidTimeframe, tf.Kind)
	}

	return tf, nil
}
