// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddJobRejectsInvalidSpec(t *testing.T) {
	s := New(testLogger())
	err := s.AddJob("broken", "not a cron spec", func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestJobsReportsSchedule(t *testing.T) {
	s := New(testLogger())
	if err := s.AddJob("sweep", ScheduleNotificationSweep, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("add job: %v", err)
	}
	if err := s.AddJob("purge", ScheduleEventPurge, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("add job: %v", err)
	}

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Name != "sweep" || jobs[0].Schedule != ScheduleNotificationSweep {
		t.Errorf("unexpected first job: %+v", jobs[0])
	}
}

func TestRunLogsAndRecovers(t *testing.T) {
	s := New(testLogger())

	var calls atomic.Int64
	s.run("failing", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})
	s.run("ok", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	if calls.Load() != 2 {
		t.Errorf("expected both jobs to run, got %d", calls.Load())
	}
}

type fakeSweeper struct {
	calls atomic.Int64
}

func (f *fakeSweeper) Requeue(ctx context.Context) error {
	f.calls.Add(1)
	return nil
}

func TestNotificationSweepJob(t *testing.T) {
	sweeper := &fakeSweeper{}
	job := NewNotificationSweepJob(sweeper)
	if err := job(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}
	if sweeper.calls.Load() != 1 {
		t.Errorf("expected 1 sweep, got %d", sweeper.calls.Load())
	}
}

type fakePurger struct {
	gotRetention time.Duration
	purged       int64
	err          error
}

func (f *fakePurger) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.gotRetention = olderThan
	return f.purged, f.err
}

func TestEventPurgeJob(t *testing.T) {
	purger := &fakePurger{purged: 7}
	job := NewEventPurgeJob(purger, 30*24*time.Hour, testLogger())
	if err := job(context.Background()); err != nil {
		t.Fatalf("job: %v", err)
	}
	if purger.gotRetention != 30*24*time.Hour {
		t.Errorf("retention = %v", purger.gotRetention)
	}

	purger.err = errors.New("locked")
	if err := job(context.Background()); err == nil {
		t.Error("expected error to propagate")
	}
}
