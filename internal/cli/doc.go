// Package cli реализует инструмент командной строки Admitto.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Admitto API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления пользователями и их анкетами.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Admitto API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	users, err := client.ListUsers()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: admitto user list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - user: create, list, show, update-email, delete
//   - flow: show, status, current, complete-task, complete-step,
//     add-step, remove-step, modify-step
//
// Данные задач передаются инлайном (--payload '{"score": 85}') или
// файлом (--payload-file answers.json); то же для описаний шагов
// (--tasks / --tasks-file, --steps-file у user create).
//
// Каждая группа создаётся через фабричную функцию (NewUserCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
