package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Admitto/internal/domain"
)

func TestTask_Complete(t *testing.T) {
	task := NewTask("Personal Details Form",
		[]string{"first_name", "last_name", "email", "timestamp"}, nil)

	payload := map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"timestamp":  "2024-01-15 10:00:00",
	}

	if err := task.Complete(payload, DefaultConditions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Status != domain.TaskStatusCompleted {
		t.Errorf("expected status completed, got %s", task.Status)
	}

	// Payload возвращается ровно в том виде, в котором был сдан
	if len(task.Payload) != len(payload) {
		t.Errorf("expected %d payload fields, got %d", len(payload), len(task.Payload))
	}
	for k, v := range payload {
		if task.Payload[k] != v {
			t.Errorf("payload field %q: expected %v, got %v", k, v, task.Payload[k])
		}
	}
}

func TestTask_Complete_ExtraFields(t *testing.T) {
	task := NewTask("sign contract", []string{"timestamp"}, nil)

	payload := map[string]any{
		"timestamp": "2024-01-15 10:00:00",
		"notes":     "signed in person",
	}

	if err := task.Complete(payload, DefaultConditions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Лишние поля сохраняются вместе с обязательными
	if task.Payload["notes"] != "signed in person" {
		t.Errorf("extra field should be stored, got %v", task.Payload["notes"])
	}
}

func TestTask_Complete_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		field   string
	}{
		{
			name:    "empty payload",
			payload: map[string]any{},
			field:   "first_name",
		},
		{
			name: "one field missing",
			payload: map[string]any{
				"first_name": "Ada",
				"last_name":  "Lovelace",
				"email":      "ada@example.com",
			},
			field: "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask("Personal Details Form",
				[]string{"first_name", "last_name", "email", "timestamp"}, nil)

			err := task.Complete(tt.payload, DefaultConditions())
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if !errors.Is(vErr.Err, ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", vErr.Err)
			}
			if vErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, vErr.Field)
			}

			if task.Status != domain.TaskStatusNotCompleted {
				t.Errorf("failed completion must not change status, got %s", task.Status)
			}
			if task.Payload != nil {
				t.Error("failed completion must not store payload")
			}
		})
	}
}

func TestTask_Complete_Condition(t *testing.T) {
	conds := DefaultConditions()

	newIQTask := func() *Task {
		return NewTask("IQ Test",
			[]string{"test_id", "score", "timestamp"},
			&Condition{Name: CondIQScoreAboveThreshold, Var: "score"})
	}

	basePayload := func(score any) map[string]any {
		return map[string]any{
			"test_id":   "iq-1",
			"score":     score,
			"timestamp": "2024-01-15 10:00:00",
		}
	}

	t.Run("condition holds", func(t *testing.T) {
		task := newIQTask()
		if err := task.Complete(basePayload(80), conds); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.Status != domain.TaskStatusCompleted {
			t.Errorf("expected completed, got %s", task.Status)
		}
	})

	t.Run("condition fails", func(t *testing.T) {
		task := newIQTask()
		err := task.Complete(basePayload(70), conds)
		if !errors.Is(err, ErrConditionNotMet) {
			t.Fatalf("expected ErrConditionNotMet, got %v", err)
		}

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
		if vErr.Message != "Condition failed" {
			t.Errorf("expected message %q, got %q", "Condition failed", vErr.Message)
		}
		if task.Status != domain.TaskStatusNotCompleted {
			t.Errorf("failed condition must not complete the task")
		}
	})

	t.Run("condition variable missing", func(t *testing.T) {
		task := NewTask("IQ Test", []string{"test_id"},
			&Condition{Name: CondIQScoreAboveThreshold, Var: "score"})

		err := task.Complete(map[string]any{"test_id": "iq-1"}, conds)
		if !errors.Is(err, ErrConditionNotMet) {
			t.Fatalf("expected ErrConditionNotMet, got %v", err)
		}
	})

	t.Run("unknown condition name", func(t *testing.T) {
		task := NewTask("IQ Test", nil,
			&Condition{Name: "no_such_condition", Var: "score"})

		err := task.Complete(map[string]any{"score": 90}, conds)
		if !errors.Is(err, ErrUnknownCondition) {
			t.Fatalf("expected ErrUnknownCondition, got %v", err)
		}
	})
}

func TestTask_Complete_Overwrite(t *testing.T) {
	task := NewTask("Payment", []string{"payment_id", "timestamp"}, nil)
	conds := DefaultConditions()

	first := map[string]any{"payment_id": "pay-1", "timestamp": "2024-01-15 10:00:00"}
	if err := task.Complete(first, conds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Повторное выполнение с новым payload перезаписывает старый
	second := map[string]any{"payment_id": "pay-2", "timestamp": "2024-01-16 12:00:00"}
	if err := task.Complete(second, conds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Payload["payment_id"] != "pay-2" {
		t.Errorf("expected last submission to win, got %v", task.Payload["payment_id"])
	}

	// Неудачная повторная сдача не трогает сохранённый payload
	err := task.Complete(map[string]any{"payment_id": "pay-3"}, conds)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if task.Payload["payment_id"] != "pay-2" {
		t.Errorf("failed re-completion must keep previous payload, got %v", task.Payload["payment_id"])
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Errorf("task must stay completed, got %s", task.Status)
	}
}

func TestTask_Complete_PayloadCopied(t *testing.T) {
	task := NewTask("Join Slack", []string{"email", "timestamp"}, nil)

	payload := map[string]any{"email": "ada@example.com", "timestamp": "2024-01-15 10:00:00"}
	if err := task.Complete(payload, DefaultConditions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload["email"] = "mutated@example.com"
	if task.Payload["email"] != "ada@example.com" {
		t.Error("stored payload must not alias the caller's map")
	}
}
