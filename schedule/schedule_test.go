package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsEmptyDefinition(t *testing.T) {
	m := NewManager()
	err := m.Register(Definition{Name: "empty", Every: time.Minute})
	assert.Error(t, err)
}

func TestTasksOfOneTickRunInParallel(t *testing.T) {
	m := NewManager()

	// Both tasks block on the same rendezvous: the tick only completes if
	// they run at the same time.
	barrier := make(chan struct{})
	done := make(chan struct{}, 2)
	meet := func(ctx context.Context) {
		select {
		case barrier <- struct{}{}:
		case <-barrier:
		case <-time.After(2 * time.Second):
			return
		}
		done <- struct{}{}
	}

	err := m.Register(Definition{
		Name:  "pair",
		Every: 10 * time.Millisecond,
		Tasks: []Task{
			TaskFunc{TaskName: "a", Fn: meet},
			TaskFunc{TaskName: "b", Fn: meet},
		},
	})
	require.NoError(t, err)

	m.Start()
	defer m.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("tasks did not rendezvous; they are not running in parallel")
		}
	}
}

func TestPanickingTaskDoesNotStopSiblings(t *testing.T) {
	m := NewManager()

	var mu sync.Mutex
	runs := 0
	err := m.Register(Definition{
		Name:  "mixed",
		Every: 10 * time.Millisecond,
		Tasks: []Task{
			TaskFunc{TaskName: "bad", Fn: func(ctx context.Context) { panic("boom") }},
			TaskFunc{TaskName: "good", Fn: func(ctx context.Context) {
				mu.Lock()
				runs++
				mu.Unlock()
			}},
		},
	})
	require.NoError(t, err)

	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs >= 2
	}, 3*time.Second, 10*time.Millisecond,
		"the good task keeps running across ticks despite the panicking sibling")
}

func TestStopCancelsTaskContext(t *testing.T) {
	m := NewManager()

	cancelled := make(chan struct{})
	var once sync.Once
	err := m.Register(Definition{
		Name:  "watch",
		Every: 10 * time.Millisecond,
		Tasks: []Task{
			TaskFunc{TaskName: "waiter", Fn: func(ctx context.Context) {
				<-ctx.Done()
				once.Do(func() { close(cancelled) })
			}},
		},
	})
	require.NoError(t, err)

	m.Start()
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("task context was not cancelled on Stop")
	}
}
