package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"truthordare/models"
	"truthordare/repository"
	"truthordare/repository/mocks"
)

// sessions is an interface so callers can pass an untyped nil.
func newTestSweeper(rooms *mocks.RoomRepository, sessions repository.SessionRepository, notifier RoomNotifier) *Sweeper {
	s := NewSweeper(rooms, sessions, notifier, 15*time.Minute)
	s.now = fixedClock(testNow)
	return s
}

func TestSweeper_DeletesExpiredRooms(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	sessions := new(mocks.SessionRepository)
	notifier := &recordingNotifier{}

	expired := []models.Room{
		{ID: "r1", Name: "old", CreatedAt: testNow.Add(-20 * time.Minute)},
		{ID: "r2", Name: "older", CreatedAt: testNow.Add(-time.Hour)},
	}
	rooms.On("FindExpired", ctx, testNow.Add(-15*time.Minute)).Return(expired, nil).Once()
	rooms.On("DeleteRooms", ctx, []string{"r1", "r2"}).Return(int64(2), int64(5), nil).Once()
	sessions.On("DeleteExpired", ctx, testNow).Return(int64(3), nil).Once()

	result, err := newTestSweeper(rooms, sessions, notifier).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, SweepResult{Rooms: 2, Members: 5, Sessions: 3}, result)
	assert.Equal(t, []string{EventRoomExpired, EventRoomExpired}, notifier.types())
	assert.Equal(t, []string{"r1", "r2"}, notifier.closed)
	rooms.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestSweeper_NothingExpiredIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rooms := new(mocks.RoomRepository)
	rooms.On("FindExpired", ctx, mock.Anything).Return([]models.Room{}, nil).Twice()

	sweeper := newTestSweeper(rooms, nil, nil)
	for i := 0; i < 2; i++ {
		result, err := sweeper.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, SweepResult{}, result)
	}
	rooms.AssertNotCalled(t, "DeleteRooms", mock.Anything, mock.Anything)
}

func TestSweeper_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("find fails", func(t *testing.T) {
		rooms := new(mocks.RoomRepository)
		rooms.On("FindExpired", ctx, mock.Anything).Return(nil, errors.New("db down"))

		_, err := newTestSweeper(rooms, nil, nil).Sweep(ctx)
		assert.ErrorContains(t, err, "find expired rooms")
	})

	t.Run("delete fails", func(t *testing.T) {
		rooms := new(mocks.RoomRepository)
		notifier := &recordingNotifier{}
		rooms.On("FindExpired", ctx, mock.Anything).Return([]models.Room{{ID: "r1"}}, nil)
		rooms.On("DeleteRooms", ctx, []string{"r1"}).Return(int64(0), int64(0), errors.New("deadlock"))

		_, err := newTestSweeper(rooms, nil, notifier).Sweep(ctx)
		assert.ErrorContains(t, err, "delete expired rooms")
		assert.Empty(t, notifier.closed)
	})

	t.Run("session purge failure is not fatal", func(t *testing.T) {
		rooms := new(mocks.RoomRepository)
		sessions := new(mocks.SessionRepository)
		rooms.On("FindExpired", ctx, mock.Anything).Return([]models.Room{}, nil)
		sessions.On("DeleteExpired", ctx, testNow).Return(int64(0), errors.New("timeout"))

		result, err := newTestSweeper(rooms, sessions, nil).Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Sessions)
	})
}

type stubLock struct {
	acquire bool
	calls   atomic.Int32
}

func (l *stubLock) TryAcquire(context.Context, time.Duration) (bool, error) {
	l.calls.Add(1)
	return l.acquire, nil
}

func TestSweepScheduler_RunsUntilStopped(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	var sweeps atomic.Int32
	rooms.On("FindExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { sweeps.Add(1) }).
		Return([]models.Room{}, nil)

	scheduler := NewSweepScheduler(newTestSweeper(rooms, nil, nil), nil, 10*time.Millisecond)
	require.NoError(t, scheduler.Start(context.Background()))
	assert.ErrorIs(t, scheduler.Start(context.Background()), errSchedulerRunning)

	assert.Eventually(t, func() bool { return sweeps.Load() >= 2 }, time.Second, 5*time.Millisecond)

	scheduler.Stop()
	stopped := sweeps.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, sweeps.Load())

	scheduler.Stop()
}

func TestSweepScheduler_SkipsWithoutLease(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	lock := &stubLock{acquire: false}

	scheduler := NewSweepScheduler(newTestSweeper(rooms, nil, nil), lock, 10*time.Millisecond)
	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool { return lock.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	scheduler.Stop()

	rooms.AssertNotCalled(t, "FindExpired", mock.Anything, mock.Anything)
}

func TestSweepScheduler_RecoversFromPanic(t *testing.T) {
	rooms := new(mocks.RoomRepository)
	var calls atomic.Int32
	rooms.On("FindExpired", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			if calls.Add(1) == 1 {
				panic("boom")
			}
		}).
		Return([]models.Room{}, nil)

	scheduler := NewSweepScheduler(newTestSweeper(rooms, nil, nil), nil, 10*time.Millisecond)
	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	scheduler.Stop()
}
