// Package scheduler fires the target-file export cycle on a fixed daily anchor.
package scheduler

import (
	"errors"
	"time"
)

// DailySchedule fires at anchor and every interval after it. It implements cron.Schedule.
type DailySchedule struct {
	anchor   time.Time
	interval time.Duration
}

// NewDailySchedule anchors the schedule at hour:minute on the day of now, in now's location.
func NewDailySchedule(hour, minute int, interval time.Duration, now time.Time) (*DailySchedule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, errors.New("schedule time must be within 00:00 and 23:59")
	}
	if interval <= 0 {
		return nil, errors.New("schedule interval must be positive")
	}
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return &DailySchedule{anchor: anchor, interval: interval}, nil
}

// Anchor returns the first fire time.
func (s *DailySchedule) Anchor() time.Time { return s.anchor }

// Interval returns the spacing between fires.
func (s *DailySchedule) Interval() time.Duration { return s.interval }

// Next returns the first fire strictly after t. Fires that were missed while the
// process was down are skipped rather than replayed.
func (s *DailySchedule) Next(t time.Time) time.Time {
	if t.Before(s.anchor) {
		return s.anchor
	}
	k := t.Sub(s.anchor)/s.interval + 1
	return s.anchor.Add(k * s.interval)
}
