package tui

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

type recordsMsg []memories.Memory

type replyMsg brain.Reply

type memoryDeletedMsg uuid.UUID

type memoryUpdatedMsg memories.Memory

// Load the owner's memories from the database
func loadMemories(b backend.Backend, userID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		records, err := b.ListMemories(context.Background(), userID)
		if err != nil {
			return err
		}
		return recordsMsg(records)
	}
}

func deleteMemory(b backend.Backend, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		if err := b.DeleteMemory(context.Background(), id); err != nil {
			return err
		}
		return memoryDeletedMsg(id)
	}
}

func setShared(b *backend.SQL, id uuid.UUID, shared bool) tea.Cmd {
	return func() tea.Msg {
		memory, err := b.SetShared(context.Background(), id, shared)
		if err != nil {
			return err
		}
		return memoryUpdatedMsg(memory)
	}
}

func ask(synth *brain.Synthesizer, question string, records []memories.Memory) tea.Cmd {
	return func() tea.Msg {
		reply, err := synth.Respond(question, records)
		if err != nil {
			return err
		}
		return replyMsg(reply)
	}
}

// Get database name and file path
func getDbPragmaList(db *sql.DB) (string, string) {
	var name, file string
	err := db.QueryRow(`PRAGMA database_list`).Scan(new(int), &name, &file)
	if err != nil {
		return name, file
	}
	return name, file
}
