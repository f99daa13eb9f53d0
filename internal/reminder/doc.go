// Package reminder реализует напоминания по простаивающим анкетам.
//
// Sweeper периодически находит анкеты In Progress, не менявшиеся
// дольше порога простоя, и публикует по ним события reminder.due.
// Notifier читает эти события из очереди и доставляет напоминания.
//
// Структура:
//   - sweeper.go  — поиск простаивающих анкет (Tick)
//   - notifier.go — обработка reminder.due из очереди
//   - cron.go     — парсинг cron-выражений и вычисление следующего прогона
//
// Использование:
//
//	sweeper := reminder.NewSweeper(reminder.SweeperConfig{
//	    Snapshots: snapshots,
//	    Publisher: publisher,  // опционально
//	    Logger:    logger,
//	})
//
//	// Вызывается по cron-расписанию
//	if err := sweeper.Tick(ctx); err != nil {
//	    logger.Error("sweep failed", "error", err)
//	}
//
// Leader Election:
//
// Sweeper не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package reminder
