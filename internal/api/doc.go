// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go      — Handler с DI (сервис, logger)
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — middleware (recovery, logging, metrics)
//   - response.go     — унифицированные JSON-ответы и обработка ошибок
//   - dto.go          — Data Transfer Objects (request/response)
//   - user_handler.go — обработчики для /users
//   - flow_handler.go — обработчики для /users/{id}/flow
//
// API предоставляет REST endpoints для управления пользователями
// и прохождения их анкет.
package api
