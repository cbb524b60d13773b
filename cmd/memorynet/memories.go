package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

// ownedMemory loads a live memory belonging to user. Other owners' memories
// are reported as not found.
func ownedMemory(ctx context.Context, b *backend.SQL, user memories.User, rawID string) (memories.Memory, error) {
	id, err := parseMemoryID(rawID)
	if err != nil {
		return memories.Memory{}, err
	}
	m, err := memories.GetMemory(ctx, b.DB, id)
	if err != nil {
		return memories.Memory{}, err
	}
	if m.OwnerID != user.ID || m.Deleted {
		return memories.Memory{}, memories.ErrMemoryNotFound
	}
	return m, nil
}

func newMemoriesCmd(a *app) *cobra.Command {
	memoriesCmd := &cobra.Command{
		Use:     "memories",
		Aliases: []string{"memory", "m"},
		Short:   "Capture and manage memories",
	}

	memoriesCmd.AddCommand(
		newMemoryCreateCmd(a),
		newMemoryVoiceCmd(a),
		newMemoryImportCmd(a),
		newMemoryGetCmd(a),
		newMemoryListCmd(a),
		newMemoryUpdateCmd(a),
		newMemoryDeleteCmd(a),
		newMemoryPurgeCmd(a),
		newMemoryShareCmd(a, true),
		newMemoryShareCmd(a, false),
	)
	return memoriesCmd
}

type captureFlags struct {
	title   string
	content string
	emotion string
	kind    string
	tags    string
}

func (f *captureFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Title of the memory")
	cmd.Flags().StringVar(&f.emotion, "emotion", "", "Emotion: happy, calm, reflective, neutral, sad, loving, nostalgic or motivated")
	cmd.Flags().StringVar(&f.kind, "kind", "", "Kind: reflection, insight, philosophy, memory (default) or other")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma-separated tags")
}

func (f *captureFlags) newMemory(origin memories.Origin) memories.NewMemory {
	return memories.NewMemory{
		Title:   f.title,
		Content: f.content,
		Emotion: memories.Emotion(f.emotion),
		Kind:    memories.Kind(f.kind),
		Origin:  origin,
		Tags:    memories.ParseTagList(f.tags),
	}
}

func newMemoryCreateCmd(a *app) *cobra.Command {
	var f captureFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := b.CreateMemory(cmd.Context(), user.ID, f.newMemory(memories.OriginWrite))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Memory %q saved with ID %s\n", memoryTitle(m), m.ID)
				if len(m.Tags) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Suggested tags: %s\n", strings.Join(memories.SuggestedTags, ", "))
				}
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.content, "content", "", "Body of the memory")
	return cmd
}

func newMemoryVoiceCmd(a *app) *cobra.Command {
	var f captureFlags
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Save a voice transcript as a memory",
		Long: `Save a voice transcript as a memory. The transcript is taken from --transcript,
or read from stdin when the flag is omitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.content == "" {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading transcript: %w", err)
				}
				f.content = string(raw)
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := b.CreateMemory(cmd.Context(), user.ID, f.newMemory(memories.OriginVoice))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Voice memory %q saved with ID %s\n", memoryTitle(m), m.ID)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.content, "transcript", "", "Transcript text (default: read from stdin)")
	return cmd
}

func newMemoryImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import memories from a JSON array",
		Long: `Import memories from a JSON file holding an array of objects with the fields
title, content, emotion, kind, tags and created_at (RFC 3339). Imported memories keep
their created_at and are private until shared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var batch []memories.NewMemory
			if err := json.Unmarshal(raw, &batch); err != nil {
				return fmt.Errorf("%w: parsing %s: %v", memories.ErrInvalidInput, args[0], err)
			}

			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				for i, in := range batch {
					in.Origin = memories.OriginImport
					if _, err := b.CreateMemory(cmd.Context(), user.ID, in); err != nil {
						return fmt.Errorf("importing entry %d: %w", i, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d memories.\n", len(batch))
				return nil
			})
		},
	}
}

func newMemoryGetCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <memory-id>",
		Short: "Show a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), m)
				}
				printMemory(cmd.OutOrStdout(), m, loc)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newMemoryListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your memories, newest first",
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
				if asJSON {
					return printJSON(cmd.OutOrStdout(), records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No memories found.")
					return nil
				}
				for _, m := range records {
					printMemoryLine(cmd.OutOrStdout(), m, loc)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newMemoryUpdateCmd(a *app) *cobra.Command {
	var f captureFlags
	cmd := &cobra.Command{
		Use:   "update <memory-id>",
		Short: "Edit a memory's title, content, emotion or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch memories.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &f.title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &f.content
			}
			if cmd.Flags().Changed("emotion") {
				emotion := memories.Emotion(f.emotion)
				patch.Emotion = &emotion
			}
			if cmd.Flags().Changed("tags") {
				tags := memories.ParseTagList(f.tags)
				patch.Tags = &tags
			}
			if patch.Empty() {
				return fmt.Errorf("%w: nothing to update", memories.ErrInvalidInput)
			}

			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				m, err = b.UpdateMemory(cmd.Context(), m.ID, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Memory %s updated.\n", m.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.title, "title", "", "New title")
	cmd.Flags().StringVar(&f.content, "content", "", "New content")
	cmd.Flags().StringVar(&f.emotion, "emotion", "", "New emotion (empty clears it)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Replace tags with this comma-separated list")
	return cmd
}

func newMemoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <memory-id>",
		Short: "Delete a memory",
		Long:  "Soft-delete a memory. It disappears from timelines and portals at once; run purge to remove it for good.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				if err := b.DeleteMemory(cmd.Context(), m.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Memory %s deleted.\n", m.ID)
				return nil
			})
		},
	}
}

func newMemoryPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Permanently remove deleted memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				n, err := memories.PurgeDeletedMemories(cmd.Context(), b.DB, user.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %d memories.\n", n)
				return nil
			})
		},
	}
}

func newMemoryShareCmd(a *app, shared bool) *cobra.Command {
	use, short, verb := "share", "Share a memory through your legacy portal", "shared"
	if !shared {
		use, short, verb = "unshare", "Make a shared memory private again", "made private"
	}
	return &cobra.Command{
		Use:   use + " <memory-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withUser(cmd.Context(), func(b *backend.SQL, user memories.User) error {
				m, err := ownedMemory(cmd.Context(), b, user, args[0])
				if err != nil {
					return err
				}
				if _, err := b.SetShared(cmd.Context(), m.ID, shared); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Memory %s %s.\n", m.ID, verb)
				return nil
			})
		},
	}
}
