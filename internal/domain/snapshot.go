package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FlowSnapshot — строка операционного зеркала потока в Postgres.
//
// Снимок пишется сервисом после каждой мутации и читается только
// вспомогательными процессами (reminder). Движок никогда не
// восстанавливает состояние из снимка.
type FlowSnapshot struct {
	// UserID — абитуриент, которому принадлежит поток.
	UserID uuid.UUID `json:"user_id"`

	// Email — адрес абитуриента на момент снимка.
	Email string `json:"email"`

	// Status — производный статус потока: Not Started, In Progress, Completed.
	Status FlowStatus `json:"status"`

	// CurrentStep — имя текущего шага; пусто, если поток завершён.
	CurrentStep string `json:"current_step,omitempty"`

	// State — сериализованные шаги потока (JSONB).
	State json.RawMessage `json:"state"`

	// CreatedAt — когда пользователь был заведён.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последней активности по потоку.
	UpdatedAt time.Time `json:"updated_at"`
}
