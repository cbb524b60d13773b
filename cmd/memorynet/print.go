package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

const timestampLayout = "2006-01-02 15:04"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func memoryTitle(m memories.Memory) string {
	if m.Title != "" {
		return m.Title
	}
	return "Untitled"
}

func printMemoryLine(w io.Writer, m memories.Memory, loc *time.Location) {
	shared := ""
	if m.Shared() {
		shared = " [shared]"
	}
	tags := ""
	if len(m.Tags) > 0 {
		tags = " #" + strings.Join(m.Tags, " #")
	}
	fmt.Fprintf(w, "%s  %s  %-10s %s%s%s\n",
		m.ID, m.CreatedAt.In(loc).Format(timestampLayout), m.Kind, memoryTitle(m), shared, tags)
}

func printMemory(w io.Writer, m memories.Memory, loc *time.Location) {
	fmt.Fprintf(w, "ID: %s\n", m.ID)
	fmt.Fprintf(w, "Title: %s\n", memoryTitle(m))
	fmt.Fprintf(w, "Kind: %s\n", m.Kind)
	if m.Emotion != memories.EmotionNone {
		fmt.Fprintf(w, "Emotion: %s\n", m.Emotion)
	}
	fmt.Fprintf(w, "Visibility: %s\n", m.Visibility)
	fmt.Fprintf(w, "Origin: %s\n", m.Origin)
	if len(m.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(m.Tags, ", "))
	}
	fmt.Fprintf(w, "Created: %s\n", m.CreatedAt.In(loc).Format(timestampLayout))
	fmt.Fprintf(w, "Updated: %s\n", m.UpdatedAt.In(loc).Format(timestampLayout))
	if m.Content != "" {
		fmt.Fprintf(w, "\n%s\n", m.Content)
	}
}

func printTimeline(w io.Writer, tl memories.Timeline, loc *time.Location) {
	if tl.Empty() {
		fmt.Fprintln(w, "No memories found.")
		return
	}
	for i, group := range tl.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", group.Label)
		for _, m := range group.Memories {
			fmt.Fprint(w, "  ")
			printMemoryLine(w, m, loc)
		}
	}
}

func printReply(w io.Writer, reply brain.Reply) {
	fmt.Fprintln(w, reply.Text)
	if len(reply.Citations) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources used:")
	for _, c := range reply.Citations {
		fmt.Fprintf(w, "  %s\n", c.Label)
	}
}

func parseMemoryID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid memory ID %q", memories.ErrInvalidInput, s)
	}
	return id, nil
}
