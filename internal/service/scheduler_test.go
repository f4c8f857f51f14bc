package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewTrainingScheduler_InvalidSpec(t *testing.T) {
	noop := func(context.Context) error { return nil }
	for _, spec := range []string{"", "every day", "61 * * * *", "* * * *"} {
		if _, err := NewTrainingScheduler(nil, spec, noop); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
	if _, err := NewTrainingScheduler(nil, "@daily", nil); err == nil {
		t.Fatalf("expected error without run func")
	}
}

func TestTrainingScheduler_Next(t *testing.T) {
	s, err := NewTrainingScheduler(nil, "30 2 * * *", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	from := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 11, 2, 30, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(want) {
		t.Fatalf("next = %v, want %v", got, want)
	}
}

func TestTrainingScheduler_RunStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	s, err := NewTrainingScheduler(nil, "@every 1s", func(context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop after context cancel")
	}
	if calls.Load() < 1 {
		t.Fatalf("expected at least one scheduled run")
	}
}
