// Package engine содержит движок анкет приёмного процесса.
//
// Включает:
//   - task.go      — задача: обязательные поля, условие, выполнение
//   - step.go      — шаг: контейнер задач, выполнение целиком
//   - flow.go      — анкета: порядок шагов, мутации, сводный статус
//   - registry.go  — реестр анкет (пользователь → Flow)
//   - condition.go — реестр именованных условий-предикатов
//   - template.go  — стандартный набор шагов для новых анкет
//
// Движок синхронный и не содержит блокировок: сериализацию операций
// по одному пользователю обеспечивает сервисный слой. Статусы шага
// и анкеты всегда вычисляются из статусов задач, а не хранятся.
package engine
