package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Admitto/internal/mq"
)

func TestNotifier_Handle(t *testing.T) {
	// Без snapshots повторная проверка пропускается
	n := NewNotifier(NotifierConfig{})

	d := &mq.Delivery{
		Message: mq.Message{
			ID:   "m-1",
			Type: mq.MessageTypeReminderDue,
			Payload: map[string]any{
				"user_id":      uuid.New().String(),
				"email":        "ada@example.com",
				"current_step": "IQ Test",
				"idle_since":   time.Now().Add(-96 * time.Hour).Format(time.RFC3339),
			},
		},
	}

	if err := n.Handle(context.Background(), d); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestNotifier_Handle_MalformedPayload(t *testing.T) {
	n := NewNotifier(NotifierConfig{})

	d := &mq.Delivery{
		Message: mq.Message{
			ID:      "m-2",
			Type:    mq.MessageTypeReminderDue,
			Payload: "not an object",
		},
	}

	// Негодный payload не лечится повторной доставкой: сообщение
	// подтверждается (nil), а не возвращается в очередь
	if err := n.Handle(context.Background(), d); err != nil {
		t.Fatalf("malformed payload must be dropped, got %v", err)
	}
}
