package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"truthordare/logger"
	"truthordare/metrics"
	"truthordare/repository"
)

const DefaultSweepInterval = 5 * time.Minute

type SweepResult struct {
	Rooms    int64 `json:"rooms"`
	Members  int64 `json:"members"`
	Sessions int64 `json:"sessions"`
}

// Sweeper deletes rooms older than the room lifetime together with their
// memberships. Expired sessions are purged on the same pass when a session
// repository is configured.
type Sweeper struct {
	rooms    repository.RoomRepository
	sessions repository.SessionRepository
	notifier RoomNotifier
	lifetime time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewSweeper(rooms repository.RoomRepository, sessions repository.SessionRepository, notifier RoomNotifier, lifetime time.Duration) *Sweeper {
	if lifetime <= 0 {
		lifetime = DefaultRoomLifetime
	}
	return &Sweeper{
		rooms:    rooms,
		sessions: sessions,
		notifier: notifierOrNoop(notifier),
		lifetime: lifetime,
		now:      time.Now,
		log:      logger.Component("sweeper"),
	}
}

// Sweep runs one expiry pass. Running it again with nothing expired deletes
// nothing and reports zero counts.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	var result SweepResult
	now := s.now()

	expired, err := s.rooms.FindExpired(ctx, now.Add(-s.lifetime))
	if err != nil {
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		return result, fmt.Errorf("find expired rooms: %w", err)
	}

	if len(expired) > 0 {
		ids := make([]string, len(expired))
		names := make([]string, len(expired))
		for i, room := range expired {
			ids[i] = room.ID
			names[i] = room.Name
		}

		result.Rooms, result.Members, err = s.rooms.DeleteRooms(ctx, ids)
		if err != nil {
			metrics.SweepRunsTotal.WithLabelValues("error").Inc()
			return SweepResult{}, fmt.Errorf("delete expired rooms: %w", err)
		}

		metrics.RoomsDeletedTotal.WithLabelValues("expired").Add(float64(result.Rooms))
		s.log.Info().
			Int64("rooms", result.Rooms).
			Int64("members", result.Members).
			Strs("names", names).
			Msg("expired rooms deleted")

		for _, room := range expired {
			s.notifier.Publish(room.ID, EventRoomExpired, RoomClosedEvent{RoomID: room.ID, Name: room.Name})
			s.notifier.CloseRoom(room.ID)
		}
	} else {
		s.log.Debug().Msg("no expired rooms")
	}

	if s.sessions != nil {
		purged, err := s.sessions.DeleteExpired(ctx, now)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to purge expired sessions")
		} else {
			result.Sessions = purged
		}
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// SweepLock is a best-effort lease so that only one replica sweeps per tick.
type SweepLock interface {
	TryAcquire(ctx context.Context, ttl time.Duration) (bool, error)
}

const sweepLockKey = "sweeper:lock"

// RedisSweepLock takes the lease with SET NX and lets it expire on its own.
type RedisSweepLock struct {
	client *redis.Client
	owner  string
}

func NewRedisSweepLock(client *redis.Client) *RedisSweepLock {
	owner, _ := os.Hostname()
	return &RedisSweepLock{client: client, owner: fmt.Sprintf("%s-%d", owner, os.Getpid())}
}

func (l *RedisSweepLock) TryAcquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, sweepLockKey, l.owner, ttl).Result()
}

// SweepScheduler runs the sweeper on a fixed interval until stopped. It is
// owned by main, which calls Start once and Stop on shutdown.
type SweepScheduler struct {
	sweeper  *Sweeper
	lock     SweepLock
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewSweepScheduler builds a scheduler. lock may be nil, in which case every
// tick sweeps.
func NewSweepScheduler(sweeper *Sweeper, lock SweepLock, interval time.Duration) *SweepScheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &SweepScheduler{
		sweeper:  sweeper,
		lock:     lock,
		interval: interval,
		log:      logger.Component("sweep_scheduler"),
	}
}

var errSchedulerRunning = errors.New("sweep scheduler already running")

func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errSchedulerRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(loopCtx, s.done)
	s.log.Info().Dur("interval", s.interval).Msg("sweep scheduler started")
	return nil
}

// Stop prevents further ticks and waits for an in-flight tick to finish.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info().Msg("sweep scheduler stopped")
}

func (s *SweepScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick already under way finishes even if Stop is called.
			s.tick(context.WithoutCancel(ctx))
		}
	}
}

func (s *SweepScheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SweepRunsTotal.WithLabelValues("panic").Inc()
			s.log.Error().Interface("panic", r).Msg("sweep panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if s.lock != nil {
		acquired, err := s.lock.TryAcquire(ctx, s.interval/2)
		if err != nil {
			s.log.Warn().Err(err).Msg("sweep lease unavailable, sweeping anyway")
		} else if !acquired {
			s.log.Debug().Msg("another replica holds the sweep lease")
			return
		}
	}

	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep failed")
		return
	}
	if result.Rooms > 0 || result.Sessions > 0 {
		s.log.Info().
			Int64("rooms", result.Rooms).
			Int64("members", result.Members).
			Int64("sessions", result.Sessions).
			Msg("sweep finished")
	}
}
