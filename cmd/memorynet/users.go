package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/memorynet/pkg/memories"
)

func newUsersCmd(a *app) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage memorynet users",
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <email>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbConn, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.closeDB(dbConn)

			user, err := memories.CreateUser(cmd.Context(), dbConn, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s <%s> created with ID %s\n", user.Name, user.Email, user.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbConn, err := a.openDB()
			if err != nil {
				return err
			}
			defer a.closeDB(dbConn)

			users, err := memories.ListUsers(cmd.Context(), dbConn)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users found.")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(out, "%s  %s <%s>\n", u.ID, u.Name, u.Email)
			}
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the user selected by --user or user.email",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer a.closeDB(b.DB)

			user, err := b.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Pass --user or set user.email.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}

	usersCmd.AddCommand(createCmd, listCmd, whoamiCmd)
	return usersCmd
}
