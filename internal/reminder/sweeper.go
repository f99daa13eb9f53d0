package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Admitto/internal/domain"
	"github.com/shaiso/Admitto/internal/mq"
	"github.com/shaiso/Admitto/internal/repo"
	"github.com/shaiso/Admitto/internal/telemetry"
)

// Sweeper находит простаивающие анкеты и публикует по ним
// события reminder.due.
type Sweeper struct {
	snapshots *repo.SnapshotRepo
	publisher *mq.Publisher
	logger    *slog.Logger
	idleAfter time.Duration
	batchSize int
}

// SweeperConfig — конфигурация Sweeper.
type SweeperConfig struct {
	Snapshots *repo.SnapshotRepo
	Publisher *mq.Publisher // опционально: без него напоминания только логируются
	Logger    *slog.Logger
	IdleAfter time.Duration // порог простоя (default: 72h)
	BatchSize int           // количество анкет за один прогон (default: 100)
}

// NewSweeper создаёт новый Sweeper.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	idleAfter := cfg.IdleAfter
	if idleAfter <= 0 {
		idleAfter = 72 * time.Hour
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		snapshots: cfg.Snapshots,
		publisher: cfg.Publisher,
		logger:    logger,
		idleAfter: idleAfter,
		batchSize: batchSize,
	}
}

// Tick выполняет один прогон.
//
// 1. Находит анкеты In Progress, не менявшиеся дольше idleAfter
// 2. По каждой публикует reminder.due
//
// Ошибки одной анкеты не блокируют обработку остальных.
func (s *Sweeper) Tick(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(-s.idleAfter)

	idle, err := s.snapshots.ListIdle(ctx, cutoff, s.batchSize)
	if err != nil {
		return fmt.Errorf("list idle flows: %w", err)
	}

	if len(idle) == 0 {
		return nil
	}

	s.logger.Debug("found idle flows", "count", len(idle))

	var published int
	for i := range idle {
		if err := s.remind(ctx, &idle[i]); err != nil {
			s.logger.Error("failed to publish reminder",
				"user_id", idle[i].UserID,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}
		published++
	}

	s.logger.Info("sweep completed",
		"idle", len(idle),
		"reminders_published", published,
	)

	return nil
}

// remind публикует reminder.due по одной анкете.
func (s *Sweeper) remind(ctx context.Context, snap *domain.FlowSnapshot) error {
	if s.publisher == nil {
		s.logger.Info("reminder due (no publisher configured)",
			"user_id", snap.UserID,
			"email", snap.Email,
			"current_step", snap.CurrentStep,
		)
		return nil
	}

	err := s.publisher.PublishReminderDue(ctx, mq.ReminderDuePayload{
		UserID:      snap.UserID,
		Email:       snap.Email,
		CurrentStep: snap.CurrentStep,
		IdleSince:   snap.UpdatedAt,
	})
	if err != nil {
		return err
	}

	telemetry.RemindersPublished.Inc()
	return nil
}
