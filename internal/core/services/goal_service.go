package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/progress"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type GoalService struct {
	repo    domain.GoalRepository
	logRepo domain.LogRepository
	now     func() time.Time
}

func NewGoalService(repo domain.GoalRepository, logRepo domain.LogRepository) *GoalService {
	return &GoalService{
		repo:    repo,
		logRepo: logRepo,
		now:     time.Now,
	}
}

type CreateGoalInput struct {
	OwnerID     string
	Name        string
	Description string
	Emoji       string
	Type        domain.GoalType
	Unit        string
	Target      *float64
	Timeframe   domain.Timeframe
	Timezone    string
	Streak      domain.StreakPolicy
	Milestones  []domain.MilestoneThreshold
	Privacy     domain.Privacy
	Status      domain.GoalStatus
}

// UpdateGoalInput is a partial update: nil fields keep their current value.
type UpdateGoalInput struct {
	ID          string
	UserID      string
	Version     int
	Name        *string
	Description *string
	Emoji       *string
	Type        *domain.GoalType
	Unit        *string
	Target      *float64
	ClearTarget bool
	Timeframe   *domain.Timeframe
	Timezone    *string
	Streak      *domain.StreakPolicy
	Milestones  *[]domain.MilestoneThreshold
	Privacy     *domain.Privacy
	Status      *domain.GoalStatus
}

type ListGoalsInput struct {
	UserID       string
	Status       domain.GoalStatus
	Type         domain.GoalType
	Privacy      domain.Privacy
	Query        string
	Page         int
	PageSize     int
	IncludeStats bool
}

// GoalView is a goal as listed, optionally with its statistics computed at listing time.
type GoalView struct {
	*domain.Goal
	Stats *progress.Result `json:"stats,omitempty"`
}

func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*domain.Goal, error) {
	goal, err := domain.NewGoal(input.OwnerID, domain.GoalSpec{
		Name:        input.Name,
		Description: input.Description,
		Emoji:       input.Emoji,
		Type:        input.Type,
		Unit:        input.Unit,
		Target:      input.Target,
		Timeframe:   input.Timeframe,
		Timezone:    input.Timezone,
		Streak:      input.Streak,
		Milestones:  input.Milestones,
		Privacy:     input.Privacy,
		Status:      input.Status,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

// Get returns a goal readable by userID: owned goals and public goals.
func (s *GoalService) Get(ctx context.Context, id, userID string) (*domain.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !goal.VisibleTo(userID) {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

func (s *GoalService) getOwned(ctx context.Context, id, userID string) (*domain.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(userID) {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

func (s *GoalService) List(ctx context.Context, input ListGoalsInput) (domain.Page[GoalView], error) {
	page, size := normalizePage(input.Page, input.PageSize)

	goals, total, err := s.repo.List(ctx, domain.GoalFilter{
		OwnerID: input.UserID,
		Status:  input.Status,
		Type:    input.Type,
		Privacy: input.Privacy,
		Query:   strings.TrimSpace(input.Query),
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return domain.Page[GoalView]{}, err
	}

	views, err := s.views(ctx, goals, input.IncludeStats)
	if err != nil {
		return domain.Page[GoalView]{}, err
	}
	return domain.NewPage(views, page, size, total), nil
}

func (s *GoalService) ListPublic(ctx context.Context, page, pageSize int) (domain.Page[GoalView], error) {
	page, size := normalizePage(page, pageSize)

	goals, total, err := s.repo.List(ctx, domain.GoalFilter{
		PublicOnly: true,
		Limit:      size,
		Offset:     (page - 1) * size,
	})
	if err != nil {
		return domain.Page[GoalView]{}, err
	}

	views, err := s.views(ctx, goals, false)
	if err != nil {
		return domain.Page[GoalView]{}, err
	}
	return domain.NewPage(views, page, size, total), nil
}

func (s *GoalService) views(ctx context.Context, goals []*domain.Goal, withStats bool) ([]GoalView, error) {
	views := make([]GoalView, 0, len(goals))
	now := s.now()

	for _, g := range goals {
		v := GoalView{Goal: g}
		if withStats {
			history, err := s.logRepo.History(ctx, g.ID)
			if err != nil {
				return nil, err
			}
			res, err := progress.Calculate(g, history, now)
			if err != nil {
				return nil, fmt.Errorf("goal %s: %w", g.ID, err)
			}
			v.Stats = &res
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *GoalService) Update(ctx context.Context, input UpdateGoalInput) (*domain.Goal, error) {
	goal, err := s.getOwned(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && goal.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrGoalConflict, input.Version, goal.Version)
	}

	spec := goal.Spec()
	mergeGoalSpec(&spec, input)

	if err := goal.Update(spec); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, err
	}

	return goal, nil
}

func mergeGoalSpec(spec *domain.GoalSpec, input UpdateGoalInput) {
	if input.Name != nil {
		spec.Name = *input.Name
	}
	if input.Description != nil {
		spec.Description = *input.Description
	}
	if input.Emoji != nil {
		spec.Emoji = *input.Emoji
	}
	if input.Type != nil {
		spec.Type = *input.Type
	}
	if input.Unit != nil {
		spec.Unit = *input.Unit
	}
	if input.Target != nil {
		spec.Target = input.Target
	}
	if input.ClearTarget {
		spec.Target = nil
	}
	if input.Timeframe != nil {
		spec.Timeframe = *input.Timeframe
	}
	if input.Timezone != nil {
		spec.Timezone = *input.Timezone
	}
	if input.Streak != nil {
		spec.Streak = *input.Streak
	}
	if input.Milestones != nil {
		spec.Milestones = *input.Milestones
	}
	if input.Privacy != nil {
		spec.Privacy = *input.Privacy
	}
	if input.Status != nil {
		spec.Status = *input.Status
	}
}

func (s *GoalService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// GenerateShareToken gives the goal a new share token, replacing any previous one.
func (s *GoalService) GenerateShareToken(ctx context.Context, id, userID string) (*domain.Goal, error) {
	goal, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	goal.SetShareToken(strings.ReplaceAll(uuid.NewString(), "-", ""))

	if err := s.repo.Update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// GetShared resolves a share token. Private goals stay private even with a valid token.
func (s *GoalService) GetShared(ctx context.Context, token string) (*domain.Goal, error) {
	goal, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if goal.Privacy == domain.PrivacyPrivate {
		return nil, domain.ErrUnauthorized
	}
	return goal, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
