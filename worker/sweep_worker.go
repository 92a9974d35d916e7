package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"truthordare/logger"
	"truthordare/services"
)

const (
	TypeRoomSweep = "room:sweep"
	sweepQueue    = "default"
)

type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepResult, error)
}

// SweepHandler runs one expiry pass per room:sweep task.
type SweepHandler struct {
	sweeper Sweeper
	log     zerolog.Logger
}

func NewSweepHandler(sweeper Sweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, log: logger.Component("sweep_worker")}
}

// ProcessTask never asks asynq to retry: the next scheduled run sweeps again.
func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	log := h.log.With().Str("task_id", taskID).Str("task_type", t.Type()).Logger()

	result, err := h.sweeper.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep task failed")
		return fmt.Errorf("sweep rooms: %v: %w", err, asynq.SkipRetry)
	}
	log.Info().
		Int64("rooms", result.Rooms).
		Int64("members", result.Members).
		Int64("sessions", result.Sessions).
		Msg("sweep task processed")
	return nil
}

// SweepWorker owns the asynq server that executes sweeps and the scheduler
// that enqueues them. Replicas may all run one; the unique option keeps a
// single task per interval.
type SweepWorker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	handler   *SweepHandler
	interval  time.Duration
	log       zerolog.Logger
}

func NewSweepWorker(redisOpt asynq.RedisClientOpt, sweeper Sweeper, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = services.DefaultSweepInterval
	}
	log := logger.Component("sweep_worker")

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{sweepQueue: 1},
		Logger:      asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			log.Error().Err(err).Str("task_type", task.Type()).Int("retried", retried).Msg("task failed")
		}),
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   asynqLogger{log: log},
		Location: time.UTC,
	})

	return &SweepWorker{
		server:    server,
		scheduler: scheduler,
		handler:   NewSweepHandler(sweeper),
		interval:  interval,
		log:       log,
	}
}

// Start registers the periodic task and starts both the scheduler and the
// server without blocking.
func (w *SweepWorker) Start() error {
	spec := fmt.Sprintf("@every %s", w.interval)
	task := asynq.NewTask(TypeRoomSweep, nil)
	entryID, err := w.scheduler.Register(spec, task,
		asynq.Queue(sweepQueue),
		asynq.MaxRetry(0),
		asynq.Unique(w.interval/2),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", TypeRoomSweep, err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRoomSweep, w.handler.ProcessTask)

	if err := w.server.Start(mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
		return fmt.Errorf("start asynq server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start asynq scheduler: %w", err)
	}

	w.log.Info().Str("entry_id", entryID).Str("spec", spec).Msg("sweep worker started")
	return nil
}

func (w *SweepWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.log.Info().Msg("sweep worker stopped")
}

// asynqLogger routes asynq's own logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
