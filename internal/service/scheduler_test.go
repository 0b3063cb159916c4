package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yuqie6/st-leaderboard/internal/eventbus"
)

type fakeTicker struct {
	res   *TickResult
	err   error
	block chan struct{}
}

func (f *fakeTicker) Tick(ctx context.Context) (*TickResult, error) {
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

type fakeCheckpointer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeCheckpointer) Checkpoint(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(evt eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func TestScheduler_RunOnceSuccess(t *testing.T) {
	ticker := &fakeTicker{res: &TickResult{ResetDate: "2024-03-10", JobRunID: 7, EventTimeMinutes: 15}}
	cp := &fakeCheckpointer{}
	pub := &recordingPublisher{}
	s := NewScheduler(ticker, cp, pub, SchedulerConfig{})

	if s.Last() != nil {
		t.Fatalf("Last should be nil before first run")
	}
	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}

	if cp.calls != 1 {
		t.Fatalf("checkpoint calls = %d", cp.calls)
	}
	if len(pub.events) != 1 || pub.events[0].Type != eventbus.TypeTickCompleted {
		t.Fatalf("events = %+v", pub.events)
	}
	last := s.Last()
	if last == nil || !last.OK || last.JobRunID != 7 || last.ResetDate != "2024-03-10" {
		t.Fatalf("last = %+v", last)
	}
}

func TestScheduler_RunOnceFailure(t *testing.T) {
	boom := errors.New("boom")
	cp := &fakeCheckpointer{}
	pub := &recordingPublisher{}
	s := NewScheduler(&fakeTicker{err: boom}, cp, pub, SchedulerConfig{})

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("RunOnce error = %v", err)
	}
	if cp.calls != 0 {
		t.Fatalf("checkpoint should not run after failure")
	}
	if len(pub.events) != 1 || pub.events[0].Type != eventbus.TypeTickFailed {
		t.Fatalf("events = %+v", pub.events)
	}
	if last := s.Last(); last == nil || last.OK || last.Error != "boom" {
		t.Fatalf("last = %+v", last)
	}
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	ticker := &fakeTicker{res: &TickResult{}, block: make(chan struct{})}
	s := NewScheduler(ticker, nil, nil, SchedulerConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !s.running.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first run did not start")
		}
		time.Sleep(time.Millisecond)
	}
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrTickInProgress) {
		t.Fatalf("overlapping RunOnce error = %v", err)
	}

	close(ticker.block)
	if err := <-done; err != nil {
		t.Fatalf("first run error: %v", err)
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&fakeTicker{}, nil, nil, SchedulerConfig{Schedule: "not a schedule"})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
