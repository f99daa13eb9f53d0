package engine

// DefaultSteps возвращает стандартную последовательность шагов
// приёмного процесса, которой засеивается анкета нового пользователя:
//
//	0. Personal Details Form
//	1. IQ Test        (условие: балл строго выше проходного)
//	2. Interview      (условие: решение "passed_interview")
//	3. Sign Contract
//	4. Payment
//	5. Join Slack
//
// Каждый вызов возвращает свежие невыполненные задачи.
func DefaultSteps() []*Step {
	return []*Step{
		{
			Name:  "Personal Details Form",
			Index: 0,
			Tasks: []*Task{
				NewTask("Personal Details Form",
					[]string{"first_name", "last_name", "email", "timestamp"}, nil),
			},
		},
		{
			Name:  "IQ Test",
			Index: 1,
			Tasks: []*Task{
				NewTask("IQ Test",
					[]string{"test_id", "score", "timestamp"},
					&Condition{Name: CondIQScoreAboveThreshold, Var: "score"}),
			},
		},
		{
			Name:  "Interview",
			Index: 2,
			Tasks: []*Task{
				NewTask("schedule interview",
					[]string{"interview_date"}, nil),
				NewTask("perform interview",
					[]string{"interview_date", "interviewer_id", "decision"},
					&Condition{Name: CondInterviewPassed, Var: "decision"}),
			},
		},
		{
			Name:  "Sign Contract",
			Index: 3,
			Tasks: []*Task{
				NewTask("upload identification document",
					[]string{"passport_number", "timestamp"}, nil),
				NewTask("sign contract",
					[]string{"timestamp"}, nil),
			},
		},
		{
			Name:  "Payment",
			Index: 4,
			Tasks: []*Task{
				NewTask("Payment",
					[]string{"payment_id", "timestamp"}, nil),
			},
		},
		{
			Name:  "Join Slack",
			Index: 5,
			Tasks: []*Task{
				NewTask("Join Slack",
					[]string{"email", "timestamp"}, nil),
			},
		},
	}
}
