package services

import "time"

func (s *StatsService) SetClock(now func() time.Time) { s.now = now }
func (s *GoalService) SetClock(now func() time.Time)  { s.now = now }
func (s *CycleService) SetClock(now func() time.Time) { s.now = now }
