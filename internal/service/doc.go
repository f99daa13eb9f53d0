// Package service реализует сервисный слой приёмной кампании.
//
// AdmissionService отвечает за:
//   - Жизненный цикл пользователей (создание, email, удаление)
//   - Уникальность email и валидацию формата значений payload
//   - Сериализацию доступа к анкете: персональный RWMutex на пользователя
//   - Снимки анкет в Postgres и события в RabbitMQ (best-effort)
//
// Сервис — единственный слой, который обращается к движку напрямую;
// HTTP-обработчики и CLI работают только через него.
package service
