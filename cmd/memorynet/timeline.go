package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

func newTimelineCmd(a *app) *cobra.Command {
	var (
		search string
		tags   []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show your memories grouped by day",
		Long: `Show your memories grouped by local calendar day, newest day first.
--search matches title or content case-insensitively; --tag may be repeated and
matches memories carrying any of the given tags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			filter := memories.Filter{SearchText: search, Tags: splitTagFlags(tags)}

			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				records, err := b.ListMemories(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				tl, err := memories.Query(records, filter, loc)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), tl)
				}
				printTimeline(cmd.OutOrStdout(), tl, loc)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive text to look for in title or content")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only memories carrying this tag (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

// splitTagFlags trims repeated --tag values and drops empties.
func splitTagFlags(raw []string) []string {
	var tags []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize your memory collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				records, err := b.ListMemories(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				stats := memories.Summarize(records, time.Now(), loc)
				if asJSON {
					return printJSON(cmd.OutOrStdout(), stats)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Memories: %d\n", stats.Total)
				fmt.Fprintf(out, "This month: %d\n", stats.ThisMonth)
				fmt.Fprintf(out, "Shared: %d\n", stats.Shared)
				fmt.Fprintf(out, "Tags: %d\n", stats.DistinctTags)
				if len(stats.TopTags) > 0 {
					top := make([]string, 0, len(stats.TopTags))
					for _, tc := range stats.TopTags {
						top = append(top, fmt.Sprintf("%s (%d)", tc.Tag, tc.Count))
					}
					fmt.Fprintf(out, "Top tags: %s\n", strings.Join(top, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask your digital brain a question about your memories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			synth := a.synthesizer(loc)

			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				records, err := b.ListMemories(cmd.Context(), user.ID)
				if err != nil {
					return err
				}
				reply, err := synth.Respond(strings.Join(args, " "), records)
				if err != nil {
					return err
				}
				printReply(cmd.OutOrStdout(), reply)
				return nil
			})
		},
	}
	cmd.Flags().Int("max-citations", 3, "Maximum number of memories cited in a reply")
	return cmd
}
