package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewUserCmd создаёт группу команд для управления пользователями.
func NewUserCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		newUserCreateCmd(clientFn, outputFn),
		newUserListCmd(clientFn, outputFn),
		newUserShowCmd(clientFn, outputFn),
		newUserUpdateEmailCmd(clientFn, outputFn),
		newUserDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newUserCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email string
	var stepsFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new user with an admission flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateUserRequest{Email: email}
			if stepsFile != "" {
				data, err := os.ReadFile(stepsFile)
				if err != nil {
					return fmt.Errorf("failed to read steps file: %w", err)
				}
				if err := json.Unmarshal(data, &req.CustomSteps); err != nil {
					return fmt.Errorf("steps file is not a valid step list: %w", err)
				}
			}

			user, err := client.CreateUser(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("User created: %s", user.UserID))
			out.Print(
				[]string{"ID", "EMAIL", "CREATED"},
				[][]string{{user.UserID, user.Email, user.CreatedAt}},
				user,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().StringVar(&stepsFile, "steps-file", "", "Path to JSON file with custom flow steps")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUserListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			users, err := client.ListUsers()
			if err != nil {
				return err
			}

			headers := []string{"ID", "EMAIL", "CREATED"}
			rows := make([][]string, len(users))
			for i, u := range users {
				rows[i] = []string{u.UserID, u.Email, u.CreatedAt}
			}

			out.Print(headers, rows, users)
			return nil
		},
	}
}

func newUserShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show USER_ID",
		Short: "Show user details and flow status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			user, err := client.GetUser(args[0])
			if err != nil {
				return err
			}

			out.PrintDetail([][2]string{
				{"ID", user.UserID},
				{"EMAIL", user.Email},
				{"FLOW STATUS", user.FlowStatus},
				{"CREATED", user.CreatedAt},
				{"UPDATED", user.UpdatedAt},
			}, user)
			return nil
		},
	}
}

func newUserUpdateEmailCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "update-email USER_ID",
		Short: "Change a user's email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			msg, err := client.UpdateEmail(args[0], email)
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "New email (required)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUserDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete a user and their flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			msg, err := client.DeleteUser(args[0])
			if err != nil {
				return err
			}

			out.Success(msg.Message)
			return nil
		},
	}
}
