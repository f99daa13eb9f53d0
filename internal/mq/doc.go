// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий приёмной кампании
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений (и они же ключи маршрутизации):
//   - user.created, user.email_updated, user.deleted
//   - task.completed, step.completed, flow.completed
//   - reminder.due — поток простаивает, пора напомнить абитуриенту
//
// Топология:
//   - admissions.events (topic) — все события
//   - admissions.reminders — очередь напоминаний (потребитель: admitto-reminder)
//   - admissions.dlx / admissions.dlq — отвергнутые сообщения
package mq
