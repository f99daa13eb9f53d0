package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для работы с анкетой пользователя.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage admission flows",
	}

	cmd.AddCommand(
		newFlowShowCmd(clientFn, outputFn),
		newFlowStatusCmd(clientFn, outputFn),
		newFlowCurrentCmd(clientFn, outputFn),
		newFlowCompleteTaskCmd(clientFn, outputFn),
		newFlowCompleteStepCmd(clientFn, outputFn),
		newFlowAddStepCmd(clientFn, outputFn),
		newFlowRemoveStepCmd(clientFn, outputFn),
		newFlowModifyStepCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show USER_ID",
		Short: "Show all flow steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			steps, err := client.GetFlow(args[0])
			if err != nil {
				return err
			}

			headers := []string{"INDEX", "STEP", "STATUS"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{strconv.Itoa(s.Index), s.StepName, s.Status}
			}

			out.Print(headers, rows, steps)
			return nil
		},
	}
}

func newFlowStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status USER_ID",
		Short: "Show overall flow status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			status, err := client.GetFlowStatus(args[0])
			if err != nil {
				return err
			}

			out.PrintDetail([][2]string{{"STATUS", status.Status}}, status)
			return nil
		},
	}
}

func newFlowCurrentCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "current USER_ID",
		Short: "Show the current step and task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			cur, err := client.GetCurrentStep(args[0])
			if err != nil {
				return err
			}

			// Завершённая анкета приходит без current_step.
			if cur.CurrentStep == nil {
				out.PrintDetail([][2]string{{"STATUS", cur.Status}}, cur)
				return nil
			}

			out.PrintDetail([][2]string{
				{"STEP", cur.CurrentStep.Name},
				{"LEVEL", strconv.Itoa(cur.CurrentStep.Level)},
				{"STEP STATUS", cur.CurrentStep.Status},
				{"TASK", cur.CurrentTask.Name},
				{"TASK STATUS", cur.CurrentTask.Status},
			}, cur)
			return nil
		},
	}
}

func newFlowCompleteTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var payloadJSON string
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "complete-task USER_ID STEP_NAME TASK_NAME",
		Short: "Complete a task with field values",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var payload map[string]any
			if err := readJSONFlag(payloadJSON, payloadFile, &payload); err != nil {
				return fmt.Errorf("payload: %w", err)
			}

			msg, err := client.CompleteTask(args[0], args[1], args[2], payload)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadJSON, "payload", "", "Task field values as inline JSON object")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "Path to JSON file with task field values")

	return cmd
}

func newFlowCompleteStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var payloadJSON string
	var payloadFile string

	cmd := &cobra.Command{
		Use:   "complete-step USER_ID STEP_NAME",
		Short: "Complete all remaining tasks of a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var payload map[string]map[string]any
			if err := readJSONFlag(payloadJSON, payloadFile, &payload); err != nil {
				return fmt.Errorf("payload: %w", err)
			}

			msg, err := client.CompleteStep(args[0], args[1], payload)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&payloadJSON, "payload", "", "Per-task field values as inline JSON object")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "Path to JSON file with per-task field values")

	return cmd
}

func newFlowAddStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var index int
	var tasksJSON string
	var tasksFile string

	cmd := &cobra.Command{
		Use:   "add-step USER_ID",
		Short: "Add a step to the flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := AddStepRequest{StepName: name}
			if cmd.Flags().Changed("index") {
				req.Index = &index
			}
			if tasksJSON != "" || tasksFile != "" {
				if err := readJSONFlag(tasksJSON, tasksFile, &req.Tasks); err != nil {
					return fmt.Errorf("tasks: %w", err)
				}
			}

			msg, err := client.AddStep(args[0], req)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Step name (required)")
	cmd.Flags().IntVar(&index, "index", 0, "Position to insert the step at (appends when omitted)")
	cmd.Flags().StringVar(&tasksJSON, "tasks", "", "Task definitions as inline JSON array")
	cmd.Flags().StringVar(&tasksFile, "tasks-file", "", "Path to JSON file with task definitions")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newFlowRemoveStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var stepName string
	var index int

	cmd := &cobra.Command{
		Use:   "remove-step USER_ID",
		Short: "Remove a step by name or index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var indexPtr *int
			if cmd.Flags().Changed("index") {
				indexPtr = &index
			}

			msg, err := client.RemoveStep(args[0], stepName, indexPtr)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&stepName, "step-name", "", "Name of the step to remove")
	cmd.Flags().IntVar(&index, "index", 0, "Index of the step to remove")

	return cmd
}

func newFlowModifyStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var newName string
	var stepName string
	var index int
	var tasksJSON string
	var tasksFile string

	cmd := &cobra.Command{
		Use:   "modify-step USER_ID",
		Short: "Replace a step selected by name or index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := ModifyStepRequest{NewStepName: newName}
			if cmd.Flags().Changed("step-name") {
				req.StepName = &stepName
			}
			if cmd.Flags().Changed("index") {
				req.Index = &index
			}
			if tasksJSON != "" || tasksFile != "" {
				if err := readJSONFlag(tasksJSON, tasksFile, &req.Tasks); err != nil {
					return fmt.Errorf("tasks: %w", err)
				}
			}

			msg, err := client.ModifyStep(args[0], req)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&newName, "new-name", "", "New step name (required)")
	cmd.Flags().StringVar(&stepName, "step-name", "", "Name of the step to replace")
	cmd.Flags().IntVar(&index, "index", 0, "Index of the step to replace")
	cmd.Flags().StringVar(&tasksJSON, "tasks", "", "Replacement task definitions as inline JSON array")
	cmd.Flags().StringVar(&tasksFile, "tasks-file", "", "Path to JSON file with replacement task definitions")
	cmd.MarkFlagRequired("new-name")

	return cmd
}

// readJSONFlag декодирует JSON из inline-значения флага или из файла.
// Задан должен быть ровно один источник.
func readJSONFlag(inline, file string, v any) error {
	switch {
	case inline != "" && file != "":
		return fmt.Errorf("specify either inline JSON or a file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return nil
	case inline != "":
		if err := json.Unmarshal([]byte(inline), v); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("no JSON input provided")
	}
}
