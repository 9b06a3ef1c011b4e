package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func counter(n *atomic.Int64) func(context.Context) (int64, error) {
	return func(context.Context) (int64, error) {
		return n.Load(), nil
	}
}

func TestWatchInitialSnapshot(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64
	n.Store(7)

	sub := Watch(context.Background(), hub, counter(&n), TopicProjects)
	defer sub.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	v, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestWatchRequeriesOnPublish(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64

	sub := Watch(context.Background(), hub, counter(&n), TopicSteps)
	defer sub.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err := sub.Next(ctx)
	require.NoError(t, err)

	n.Store(1)
	hub.Publish(TopicSteps)

	v, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestWatchIgnoresOtherTopics(t *testing.T) {
	hub := NewHub()
	var calls atomic.Int64
	query := func(context.Context) (int64, error) {
		return calls.Add(1), nil
	}

	sub := Watch(context.Background(), hub, query, TopicSteps)
	defer sub.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err := sub.Next(ctx)
	require.NoError(t, err)

	hub.Publish(TopicSettings)
	assert.Never(t, func() bool { return calls.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestWatchLatestWins(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64

	sub := Watch(context.Background(), hub, counter(&n), TopicProjects)
	defer sub.Cancel()

	for i := int64(1); i <= 5; i++ {
		n.Store(i)
		hub.Publish(TopicProjects)
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	// Intermediate snapshots may be skipped but the newest one arrives.
	for {
		v, err := sub.Next(ctx)
		require.NoError(t, err)
		if v == 5 {
			break
		}
	}
}

func TestWatchIndependentStreams(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64
	n.Store(3)

	a := Watch(context.Background(), hub, counter(&n), TopicProjects)
	b := Watch(context.Background(), hub, counter(&n), TopicProjects)
	defer a.Cancel()
	defer b.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	va, err := a.Next(ctx)
	require.NoError(t, err)
	vb, err := b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
	assert.Equal(t, 2, hub.Len())
}

func TestSubscriptionCancel(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64

	sub := Watch(context.Background(), hub, counter(&n), TopicProjects)
	sub.Cancel()

	assert.Equal(t, 0, hub.Len())
	assert.NoError(t, sub.Err())

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	// Drain a possibly buffered initial snapshot.
	var err error
	for err == nil {
		_, err = sub.Next(ctx)
	}
	assert.ErrorIs(t, err, ErrDone)
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64

	sub := Watch(context.Background(), hub, counter(&n), TopicProjects)
	hub.Close()

	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription did not end after hub close")
	}
	assert.ErrorIs(t, sub.Err(), ErrClosed)

	late := Watch(context.Background(), hub, counter(&n), TopicProjects)
	assert.ErrorIs(t, late.Err(), ErrClosed)
	_, ok := <-late.C
	assert.False(t, ok)
}

func TestWatchQueryError(t *testing.T) {
	hub := NewHub()
	boom := errors.New("boom")
	query := func(context.Context) (int, error) { return 0, boom }

	sub := Watch(context.Background(), hub, query, TopicProjects)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, sub.Err(), boom)
}

func TestWatchParentContextCancel(t *testing.T) {
	hub := NewHub()
	var n atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	sub := Watch(ctx, hub, counter(&n), TopicProjects)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription did not end after context cancel")
	}
	assert.NoError(t, sub.Err())
	assert.Equal(t, 0, hub.Len())
}
