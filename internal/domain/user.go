package domain

import (
	"time"

	"github.com/google/uuid"
)

// User — кандидат, проходящий приёмный процесс.
//
// User создаётся сервисным слоем вместе с его Flow (последовательностью
// шагов). Сам User хранит только идентичность; прогресс живёт в Flow.
type User struct {
	// ID — уникальный идентификатор пользователя.
	ID uuid.UUID `json:"user_id"`

	// Email — адрес кандидата. Уникален среди всех пользователей.
	Email string `json:"email"`

	// CreatedAt — время создания пользователя.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последней активности (любая мутация flow или
	// смена email). По нему sweeper находит «застрявших» кандидатов.
	UpdatedAt time.Time `json:"updated_at"`
}

// MarkActivity фиксирует активность пользователя (сдвигает UpdatedAt).
func (u *User) MarkActivity() {
	u.UpdatedAt = time.Now()
}

// ChangeEmail заменяет email и фиксирует активность.
// Уникальность нового адреса проверяет вызывающий слой.
func (u *User) ChangeEmail(email string) {
	u.Email = email
	u.UpdatedAt = time.Now()
}
