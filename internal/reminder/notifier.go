package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Admitto/internal/mq"
	"github.com/shaiso/Admitto/internal/repo"
)

// Notifier обрабатывает сообщения reminder.due из очереди.
type Notifier struct {
	snapshots *repo.SnapshotRepo
	logger    *slog.Logger
}

// NotifierConfig — конфигурация Notifier.
type NotifierConfig struct {
	Snapshots *repo.SnapshotRepo // опционально: без него повторная проверка пропускается
	Logger    *slog.Logger
}

// NewNotifier создаёт новый Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		snapshots: cfg.Snapshots,
		logger:    logger,
	}
}

// Handle обрабатывает одно сообщение reminder.due.
//
// Перед отправкой перечитывает снимок анкеты: пока сообщение лежало
// в очереди, пользователь мог удалиться или дойти до конца анкеты —
// такие напоминания молча пропускаются. Ошибка возвращается только
// при временных сбоях (повторная доставка имеет смысл); негодный
// payload повтором не исправить, поэтому он подтверждается с логом.
func (n *Notifier) Handle(ctx context.Context, d *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ReminderDuePayload](&d.Message)
	if err != nil {
		n.logger.Error("dropping reminder with bad payload",
			"message_id", d.Message.ID,
			"error", err,
		)
		return nil
	}

	if n.snapshots != nil {
		snap, err := n.snapshots.GetByUserID(ctx, payload.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			n.logger.Info("skipping reminder: user deleted", "user_id", payload.UserID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("recheck snapshot: %w", err)
		}
		if snap.Status.IsTerminal() {
			n.logger.Info("skipping reminder: flow already completed", "user_id", payload.UserID)
			return nil
		}
	}

	// Точка подключения почтового шлюза; пока напоминание фиксируется в логе.
	n.logger.Info("reminder",
		"user_id", payload.UserID,
		"email", payload.Email,
		"current_step", payload.CurrentStep,
		"idle_since", payload.IdleSince,
	)
	return nil
}
