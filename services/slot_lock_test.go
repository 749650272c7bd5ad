package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSlotLockerSerializesOneSlot(t *testing.T) {
	l := NewLocalSlotLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "2024-06-10T18:00")
	require.NoError(t, err)

	other, err := l.Acquire(ctx, "2024-06-10T19:00")
	require.NoError(t, err, "different slots do not block each other")
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(waitCtx, "2024-06-10T18:00")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	release()
	release()

	again, err := l.Acquire(ctx, "2024-06-10T18:00")
	require.NoError(t, err)
	again()
}

func TestLocalSlotLockerForgetsIdleSlots(t *testing.T) {
	l := NewLocalSlotLocker()
	ctx := context.Background()
	slots := func() int {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.slots)
	}

	release, err := l.Acquire(ctx, "2024-06-10T18:00")
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(waitCtx, "2024-06-10T18:00")
	require.Error(t, err)
	assert.Equal(t, 1, slots(), "held slot survives a timed-out waiter")

	acquired := make(chan func())
	go func() {
		r, err := l.Acquire(ctx, "2024-06-10T18:00")
		if err == nil {
			acquired <- r
		}
	}()
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.slots["2024-06-10T18:00"].refs == 2
	}, time.Second, time.Millisecond)

	release()
	assert.Equal(t, 1, slots(), "slot kept for its waiter")

	next := <-acquired
	next()
	next()
	assert.Equal(t, 0, slots())

	for _, key := range []string{"2024-06-11T18:00", "2024-06-12T18:00", "2024-06-13T18:00"} {
		r, err := l.Acquire(ctx, key)
		require.NoError(t, err)
		r()
	}
	assert.Equal(t, 0, slots())
}

func TestRedisSlotLockerAcquireAndRelease(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisSlotLocker(client, 10*time.Second)
	l.retry = time.Millisecond
	l.newToken = func() string { return "token-1" }

	key := "reservations:slot:2024-06-10T18:00"
	mock.ExpectSetNX(key, "token-1", 10*time.Second).SetVal(false)
	mock.ExpectSetNX(key, "token-1", 10*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))

	release, err := l.Acquire(context.Background(), "2024-06-10T18:00")
	require.NoError(t, err)
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlotLockerGivesUpWithContext(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisSlotLocker(client, 10*time.Second)
	l.retry = time.Second
	l.newToken = func() string { return "token-2" }

	mock.ExpectSetNX("reservations:slot:2024-06-10T18:00", "token-2", 10*time.Second).SetVal(false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Acquire(ctx, "2024-06-10T18:00")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisSlotLockerReportsRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	l := NewRedisSlotLocker(client, 10*time.Second)
	l.newToken = func() string { return "token-3" }

	mock.ExpectSetNX("reservations:slot:2024-06-10T18:00", "token-3", 10*time.Second).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), "2024-06-10T18:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
