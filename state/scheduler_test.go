package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) (*Env, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	env := &Env{
		DispatchChannel: make(chan func(*State) error, 10),
		Context:         ctx,
		Cancel:          cancel,
	}
	return env, func() { cancel(context.Canceled) }
}

func TestDispatch(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	var called atomic.Bool

	go func() {
		select {
		case f := <-env.DispatchChannel:
			if err := f(state); err != nil {
				t.Errorf("Dispatch error: %v", err)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Timed out waiting for dispatched function")
		}
	}()

	env.Dispatch(func(s *State) error {
		called.Store(true)
		return nil
	})

	time.Sleep(150 * time.Millisecond)

	if !called.Load() {
		t.Fatal("Dispatch function was not executed")
	}
}

func TestDispatchAfterStop(t *testing.T) {
	env, cancel := testEnv(t)
	cancel()
	env.Stopping.Store(true)

	env.Dispatch(func(s *State) error {
		return nil
	})
	assert.Len(t, env.DispatchChannel, 0)
}

func TestDispatchWait(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	go func() {
		for f := range env.DispatchChannel {
			_ = f(state)
		}
	}()

	res, err := env.DispatchWait(func(s *State) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	_, err = env.DispatchWait(func(s *State) (any, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestDispatchWaitCancelled(t *testing.T) {
	env, cancel := testEnv(t)
	cancel()
	_, err := env.DispatchWait(func(s *State) (any, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduleTask(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	var taskCalled bool

	env.ScheduleTask(func(s *State) error {
		taskCalled = true
		return nil
	}, 50*time.Millisecond)

	// Wait enough time for the scheduled task to be dispatched.
	select {
	case f := <-env.DispatchChannel:
		if err := f(state); err != nil {
			t.Errorf("Scheduled task error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("No task was scheduled")
	}

	if !taskCalled {
		t.Fatal("Scheduled task was not executed")
	}
}

func TestRepeatTask(t *testing.T) {
	env, cancel := testEnv(t)
	defer cancel()
	state := &State{Env: env}

	var wg sync.WaitGroup
	wg.Add(3)
	var count int

	env.RepeatTask(func(s *State) error {
		count++
		if count <= 3 {
			wg.Done()
		}
		if count == 3 {
			cancel()
		}
		return nil
	}, 50*time.Millisecond)

	// Process the repeat tasks until context is cancelled.
loop:
	for {
		select {
		case f := <-env.DispatchChannel:
			err := f(state)
			if err != nil {
				t.Fatalf("RepeatTask error: %v", err)
			}
		case <-env.Context.Done():
			break loop
		case <-time.After(500 * time.Millisecond):
			t.Fatal("Timed out waiting for RepeatTask to execute")
		}
	}
	wg.Wait()
	if count < 3 {
		t.Fatalf("Expected at least 3 executions, got %d", count)
	}
}

func TestNewRand(t *testing.T) {
	a := NewRand(7)
	b := NewRand(7)
	for range 10 {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
	assert.NotNil(t, NewRand(0))
}
