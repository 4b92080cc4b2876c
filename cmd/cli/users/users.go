package users

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/crucial707/sqlgate/cmd/cli/output"
	"github.com/crucial707/sqlgate/cmd/cli/root"
	"github.com/spf13/cobra"
)

// user mirrors the API's user body. Timestamps stay strings; the CLI only prints them.
type user struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

var userHeaders = []string{"ID", "EMAIL", "USERNAME", "CREATED", "UPDATED"}

func (u user) row() []any {
	updated := "-"
	if u.UpdatedAt != nil {
		updated = *u.UpdatedAt
	}
	return []any{u.ID, u.Email, u.Username, u.CreatedAt, updated}
}

// ==========================
// Init Users
// ==========================
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	usersCmd.AddCommand(
		listUsersCmd(),
		getUserCmd(),
		createUserCmd(),
		updateUserCmd(),
		deleteUserCmd(),
	)

	rootCmd.AddCommand(usersCmd)
}

func render(cmd *cobra.Command, asJSON bool, users ...user) error {
	if asJSON {
		if len(users) == 1 {
			return output.RenderJSON(cmd.OutOrStdout(), users[0])
		}
		return output.RenderJSON(cmd.OutOrStdout(), users)
	}
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, u.row())
	}
	output.RenderTable(cmd.OutOrStdout(), userHeaders, rows)
	return nil
}

func parseID(arg string) (string, error) {
	if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
		return "", fmt.Errorf("invalid user id %q", arg)
	}
	return arg, nil
}

// ==========================
// LIST
// ==========================
func listUsersCmd() *cobra.Command {
	var skip, limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("skip", strconv.Itoa(skip))
			q.Set("limit", strconv.Itoa(limit))

			var users []user
			if err := root.Client().Do(cmd.Context(), "GET", "/users/?"+q.Encode(), nil, &users); err != nil {
				return err
			}
			return render(cmd, asJSON, users...)
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "number of users to skip")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of users to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// GET
// ==========================
func getUserCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u user
			if err := root.Client().Do(cmd.Context(), "GET", "/users/"+id, nil, &u); err != nil {
				return err
			}
			return render(cmd, asJSON, u)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// CREATE
// ==========================
func createUserCmd() *cobra.Command {
	var email, username string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var u user
			payload := map[string]string{"email": email, "username": username}
			if err := root.Client().Do(cmd.Context(), "POST", "/users/", payload, &u); err != nil {
				return err
			}
			return render(cmd, asJSON, u)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// ==========================
// UPDATE
// ==========================
func updateUserCmd() *cobra.Command {
	var email, username string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Replace a user's email and username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u user
			payload := map[string]string{"email": email, "username": username}
			if err := root.Client().Do(cmd.Context(), "PUT", "/users/"+id, payload, &u); err != nil {
				return err
			}
			return render(cmd, asJSON, u)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var out struct {
				Message string `json:"message"`
			}
			if err := root.Client().Do(cmd.Context(), "DELETE", "/users/"+id, nil, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			return nil
		},
	}
}
