package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/legacy"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

func printPortal(w io.Writer, p legacy.Portal, loc *time.Location) {
	fmt.Fprintf(w, "Token: %s\n", p.Token)
	fmt.Fprintf(w, "Memorial: %s\n", p.MemorialName)
	if p.MemorialQuote != "" {
		fmt.Fprintf(w, "Quote: %q\n", p.MemorialQuote)
	}
	fmt.Fprintf(w, "Active: %t\n", p.Active)
	fmt.Fprintf(w, "Created: %s\n", p.CreatedAt.In(loc).Format(timestampLayout))
}

// portalErr hides whether a token was unknown or deactivated.
func portalErr(err error) error {
	if errors.Is(err, legacy.ErrNotFound) {
		return errors.New("legacy link not found or inactive")
	}
	return err
}

func newLegacyCmd(a *app) *cobra.Command {
	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "Manage your legacy portal and browse portals as an heir",
	}

	legacyCmd.AddCommand(
		newPortalCmd(a),
		newHeirsCmd(a),
		newLegacyMemoriesCmd(a),
		newLegacyAskCmd(a),
	)
	return legacyCmd
}

func newPortalCmd(a *app) *cobra.Command {
	portalCmd := &cobra.Command{
		Use:   "portal",
		Short: "Create, show or deactivate your legacy portal",
	}

	var name, quote string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new legacy portal, replacing any active one",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				p, err := legacy.CreatePortal(cmd.Context(), b.DB, user.ID, name, quote)
				if err != nil {
					return err
				}
				printPortal(cmd.OutOrStdout(), p, loc)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Name shown on the memorial page (default: your name)")
	createCmd.Flags().StringVar(&quote, "quote", "", "Quote shown on the memorial page")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show your active legacy portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				p, err := legacy.GetActivePortal(cmd.Context(), b.DB, user.ID)
				if errors.Is(err, legacy.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "No active legacy portal. Run 'memorynet legacy portal create'.")
					return nil
				}
				if err != nil {
					return err
				}
				printPortal(cmd.OutOrStdout(), p, loc)
				return nil
			})
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate your legacy portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				if err := legacy.DeactivatePortal(cmd.Context(), b.DB, user.ID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Legacy portal deactivated.")
				return nil
			})
		},
	}

	portalCmd.AddCommand(createCmd, showCmd, deactivateCmd)
	return portalCmd
}

func newHeirsCmd(a *app) *cobra.Command {
	heirsCmd := &cobra.Command{
		Use:   "heirs",
		Short: "Manage the people you intend to give your portal link to",
	}

	addCmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Add an heir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				h, err := legacy.AddHeir(cmd.Context(), b.DB, user.ID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Heir %s added.\n", h.Email)
				return nil
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your heirs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				heirs, err := legacy.ListHeirs(cmd.Context(), b.DB, user.ID)
				if err != nil {
					return err
				}
				if len(heirs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No heirs found.")
					return nil
				}
				for _, h := range heirs {
					fmt.Fprintln(cmd.OutOrStdout(), h.Email)
				}
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove an heir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				if err := legacy.RemoveHeir(cmd.Context(), b.DB, user.ID, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Heir %s removed.\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}

	heirsCmd.AddCommand(addCmd, listCmd, removeCmd)
	return heirsCmd
}

func (a *app) gate(b *backend.SQL, loc *time.Location) *legacy.Gate {
	return legacy.NewGate(legacy.SQLStore{DB: b.DB}, a.synthesizer(loc), loc, a.logger)
}

func newLegacyMemoriesCmd(a *app) *cobra.Command {
	var (
		search string
		tags   []string
	)
	cmd := &cobra.Command{
		Use:   "memories <token>",
		Short: "Browse the memories shared through a legacy link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer a.closeDB(b.DB)

			filter := memories.Filter{SearchText: search, Tags: splitTagFlags(tags)}
			tl, err := a.gate(b, loc).ListSharedMemories(cmd.Context(), args[0], filter)
			if err != nil {
				return portalErr(err)
			}
			printTimeline(cmd.OutOrStdout(), tl, loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text to look for in title or content")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only memories carrying this tag (repeatable)")
	return cmd
}

func newLegacyAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <token> <question>",
		Short: "Ask about the memories shared through a legacy link",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			b, err := a.openBackend()
			if err != nil {
				return err
			}
			defer a.closeDB(b.DB)

			reply, err := a.gate(b, loc).Ask(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return portalErr(err)
			}
			printReply(cmd.OutOrStdout(), reply)
			return nil
		},
	}
	cmd.Flags().Int("max-citations", 3, "Maximum number of memories cited in a reply")
	return cmd
}
