package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

func newTagsCmd(a *app) *cobra.Command {
	tagsCmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Manage memory tags",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your tags with how many memories carry each",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				records, err := b.ListMemories(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				counts := memories.TagCounts(records)
				if len(counts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
					return nil
				}
				for _, tc := range counts {
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", tc.Tag, tc.Count)
				}
				return nil
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <memory-id> <tag>",
		Short: "Tag a memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				if err := memories.TagMemory(cmd.Context(), b.DB, m.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged %s with %q.\n", m.ID, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <memory-id> <tag>",
		Short: "Remove a tag from a memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				if err := memories.UntagMemory(cmd.Context(), b.DB, m.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from %s.\n", strings.TrimSpace(args[1]), m.ID)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <tag>",
		Short: "Remove a tag from all of your memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				if err := memories.DeleteTag(cmd.Context(), b.DB, user.ID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %q deleted.\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}

	suggestedCmd := &cobra.Command{
		Use:               "suggested",
		Short:             "Print the tags offered when capturing a memory",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(memories.SuggestedTags, ", "))
		},
	}

	tagsCmd.AddCommand(listCmd, addCmd, removeCmd, deleteCmd, suggestedCmd)
	return tagsCmd
}
