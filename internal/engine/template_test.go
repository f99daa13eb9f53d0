package engine

import (
	"testing"

	"github.com/shaiso/Admitto/internal/domain"
)

func TestDefaultSteps(t *testing.T) {
	steps := DefaultSteps()

	want := []struct {
		name  string
		tasks []string
	}{
		{name: "Personal Details Form", tasks: []string{"Personal Details Form"}},
		{name: "IQ Test", tasks: []string{"IQ Test"}},
		{name: "Interview", tasks: []string{"schedule interview", "perform interview"}},
		{name: "Sign Contract", tasks: []string{"upload identification document", "sign contract"}},
		{name: "Payment", tasks: []string{"Payment"}},
		{name: "Join Slack", tasks: []string{"Join Slack"}},
	}

	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}

	for i, w := range want {
		step := steps[i]
		if step.Name != w.name {
			t.Errorf("step %d: expected %q, got %q", i, w.name, step.Name)
		}
		if step.Index != i {
			t.Errorf("step %q: expected index %d, got %d", step.Name, i, step.Index)
		}
		if len(step.Tasks) != len(w.tasks) {
			t.Fatalf("step %q: expected %d tasks, got %d", step.Name, len(w.tasks), len(step.Tasks))
		}
		for j, taskName := range w.tasks {
			task := step.Tasks[j]
			if task.Name != taskName {
				t.Errorf("step %q: expected task %q, got %q", step.Name, taskName, task.Name)
			}
			if task.Status != domain.TaskStatusNotCompleted {
				t.Errorf("task %q: template tasks start not completed", task.Name)
			}
		}
	}
}

func TestDefaultSteps_Conditions(t *testing.T) {
	steps := DefaultSteps()

	iq := steps[1].Tasks[0]
	if iq.Condition == nil ||
		iq.Condition.Name != CondIQScoreAboveThreshold || iq.Condition.Var != "score" {
		t.Errorf("IQ Test condition misconfigured: %+v", iq.Condition)
	}

	interview := steps[2].Tasks[1]
	if interview.Condition == nil ||
		interview.Condition.Name != CondInterviewPassed || interview.Condition.Var != "decision" {
		t.Errorf("perform interview condition misconfigured: %+v", interview.Condition)
	}

	// Остальные задачи условий не несут
	for _, step := range steps {
		for _, task := range step.Tasks {
			if task == iq || task == interview {
				continue
			}
			if task.Condition != nil {
				t.Errorf("task %q must have no condition", task.Name)
			}
		}
	}
}

func TestDefaultSteps_RequiredFields(t *testing.T) {
	steps := DefaultSteps()

	want := map[string][]string{
		"Personal Details Form":          {"first_name", "last_name", "email", "timestamp"},
		"IQ Test":                        {"test_id", "score", "timestamp"},
		"schedule interview":             {"interview_date"},
		"perform interview":              {"interview_date", "interviewer_id", "decision"},
		"upload identification document": {"passport_number", "timestamp"},
		"sign contract":                  {"timestamp"},
		"Payment":                        {"payment_id", "timestamp"},
		"Join Slack":                     {"email", "timestamp"},
	}

	for _, step := range steps {
		for _, task := range step.Tasks {
			fields, ok := want[task.Name]
			if !ok {
				t.Fatalf("unexpected task %q", task.Name)
			}
			if len(task.RequiredFields) != len(fields) {
				t.Fatalf("task %q: expected fields %v, got %v",
					task.Name, fields, task.RequiredFields)
			}
			for i, f := range fields {
				if task.RequiredFields[i] != f {
					t.Errorf("task %q: expected field %q at %d, got %q",
						task.Name, f, i, task.RequiredFields[i])
				}
			}
		}
	}
}

func TestDefaultSteps_FreshInstances(t *testing.T) {
	first := DefaultSteps()
	second := DefaultSteps()

	if err := first[0].Tasks[0].Complete(map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"timestamp":  "2024-01-15 10:00:00",
	}, DefaultConditions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Каждый вызов возвращает независимые экземпляры
	if second[0].Tasks[0].Status.IsCompleted() {
		t.Error("template instances must not share state")
	}
}
