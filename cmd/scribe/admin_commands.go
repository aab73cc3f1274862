package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/platform"
	"scribe/internal/session"
)

func newAdminCommand(ctx *commandContext) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage accounts (admin role required)",
	}

	adminCmd.AddCommand(newAdminUsersCommand(ctx))
	adminCmd.AddCommand(newAdminSetRoleCommand(ctx))
	adminCmd.AddCommand(newAdminDeleteUserCommand(ctx))
	adminCmd.AddCommand(newAdminSummaryCommand(ctx))

	return adminCmd
}

func newAdminUsersCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				users, err := rt.client.Admin.Users(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if users == nil {
						users = []session.Identity{}
					}
					return writeJSON(cmd, users)
				}
				out := cmd.OutOrStdout()
				if len(users) == 0 {
					fmt.Fprintln(out, "No users")
					return nil
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{
						strconv.FormatInt(u.ID, 10),
						u.Email,
						u.DisplayName(),
						titleCase(string(u.Role)),
						yesNo(u.IsActive),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Email", "Name", "Role", "Active"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newAdminSetRoleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change an account's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			role := session.Role(strings.ToLower(strings.TrimSpace(args[1])))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				updated, err := rt.client.Admin.UpdateUser(cmd.Context(), userID, platform.ProfileUpdate{Role: &role})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.DisplayName(), titleCase(string(updated.Role)))
				return nil
			})
		},
	}
}

func newAdminDeleteUserCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(cmd, func(rt *runtime) error {
				if err := rt.client.Admin.DeleteUser(cmd.Context(), userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", userID)
				return nil
			})
		},
	}
}

func newAdminSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show platform-wide counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(rt *runtime) error {
				summary, err := rt.client.Admin.DashboardSummary(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd, summary)
			})
		},
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user id must be a positive integer")
	}
	return id, nil
}
