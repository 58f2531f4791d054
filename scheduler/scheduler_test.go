package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdater struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeUpdater) SetWatching(activity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, activity)
	return f.err
}

func (f *fakeUpdater) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRotator_RotatesUntilStopped(t *testing.T) {
	u := &fakeUpdater{}
	r := New(u, []string{"a", "b", "c"}, 10*time.Millisecond)

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.IsRunning())
	assert.Error(t, r.Start(context.Background()), "second start must fail")

	assert.Eventually(t, func() bool { return u.count() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Stop())
	assert.False(t, r.IsRunning())
	assert.Error(t, r.Stop())

	stopped := u.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, u.count())

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, a := range u.calls {
		assert.Contains(t, []string{"a", "b", "c"}, a)
	}
}

func TestRotator_StopsOnContextCancel(t *testing.T) {
	u := &fakeUpdater{}
	r := New(u, []string{"a"}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool { return !r.IsRunning() }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Start(context.Background()), "can restart after cancellation")
	require.NoError(t, r.Stop())
}

func TestRotator_NoActivities(t *testing.T) {
	r := New(&fakeUpdater{}, nil, time.Second)

	require.NoError(t, r.Start(context.Background()))
	assert.False(t, r.IsRunning())
}

func TestRotator_UpdateErrorsAreNotFatal(t *testing.T) {
	u := &fakeUpdater{err: errors.New("gateway closed")}
	r := New(u, []string{"a"}, 5*time.Millisecond)
	r.pick = func(int) int { return 0 }

	require.NoError(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return u.count() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())
}
