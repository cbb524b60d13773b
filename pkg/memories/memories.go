package memories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMemoryNotFound = errors.New("memory not found")
)

const memoryColumns = `id, owner_id, title, content, emotion, kind, visibility, origin, deleted, created_at, updated_at`

const (
	createMemoryStatement = `
	INSERT INTO memories (id, owner_id, title, content, emotion, kind, visibility, origin, deleted, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
	`

	getMemoryStatement = `
	SELECT ` + memoryColumns + `
	FROM memories
	WHERE id = ?
	`

	listMemoriesStatement = `
	SELECT ` + memoryColumns + `
	FROM memories
	WHERE owner_id = ? AND deleted = FALSE
	ORDER BY created_at DESC, rowid DESC
	`

	listSharedMemoriesStatement = `
	SELECT ` + memoryColumns + `
	FROM memories
	WHERE owner_id = ? AND deleted = FALSE AND visibility = 'legacy-shared'
	ORDER BY created_at DESC, rowid DESC
	`

	updateMemoryStatement = `
	UPDATE memories
	SET title = ?, content = ?, emotion = ?, updated_at = ?
	WHERE id = ? AND deleted = FALSE
	`

	setVisibilityStatement = `
	UPDATE memories
	SET visibility = ?, updated_at = ?
	WHERE id = ? AND deleted = FALSE
	`

	softDeleteMemoryStatement = `
	UPDATE memories
	SET deleted = TRUE, updated_at = ?
	WHERE id = ? AND deleted = FALSE
	`

	purgeDeletedMemoriesStatement = `
	DELETE FROM memories
	WHERE owner_id = ? AND deleted = TRUE
	`

	dropOrphanTagsStatement = `
	DELETE FROM tags
	WHERE NOT EXISTS (SELECT 1 FROM memory_tags mt WHERE mt.tag = tags.tag)
	`
)

// CreateMemory stores a new memory for ownerID. Tags are normalized into a set
// and kept in the order they were given.
func CreateMemory(ctx context.Context, db *sql.DB, ownerID uuid.UUID, in NewMemory) (Memory, error) {
	if _, err := GetUser(ctx, db, ownerID); err != nil {
		return Memory{}, err
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" && content == "" {
		return Memory{}, fmt.Errorf("%w: a memory needs a title or content", ErrInvalidInput)
	}

	emotion, err := ParseEmotion(string(in.Emotion))
	if err != nil {
		return Memory{}, err
	}
	kind, err := ParseKind(string(in.Kind))
	if err != nil {
		return Memory{}, err
	}
	origin, err := ParseOrigin(string(in.Origin))
	if err != nil {
		return Memory{}, err
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	now := time.Now().UnixMilli()
	memoryID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Memory{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		createMemoryStatement,
		memoryID,
		ownerID,
		title,
		content,
		string(emotion),
		string(kind),
		string(VisibilityPrivate),
		string(origin),
		createdAt.UnixMilli(),
		now,
	)
	if err != nil {
		return Memory{}, fmt.Errorf("failed to insert memory: %w", err)
	}

	if err := replaceTags(ctx, tx, memoryID, NormalizeTags(in.Tags)); err != nil {
		return Memory{}, err
	}

	if err := tx.Commit(); err != nil {
		return Memory{}, err
	}

	return GetMemory(ctx, db, memoryID)
}

// GetMemory retrieves a memory with its tags. Soft-deleted memories are
// returned with Deleted set.
func GetMemory(ctx context.Context, db *sql.DB, id uuid.UUID) (Memory, error) {
	memory, err := scanMemory(db.QueryRowContext(ctx, getMemoryStatement, id))
	if err != nil {
		return Memory{}, err
	}

	batch := []Memory{memory}
	if err := attachTags(ctx, db, batch); err != nil {
		return Memory{}, err
	}

	return batch[0], nil
}

// ListMemories returns every live memory of ownerID, newest first.
func ListMemories(ctx context.Context, db *sql.DB, ownerID uuid.UUID) ([]Memory, error) {
	if _, err := GetUser(ctx, db, ownerID); err != nil {
		return nil, err
	}
	return listMemories(ctx, db, listMemoriesStatement, ownerID)
}

// ListSharedMemories returns the live legacy-shared memories of ownerID, newest first.
func ListSharedMemories(ctx context.Context, db *sql.DB, ownerID uuid.UUID) ([]Memory, error) {
	return listMemories(ctx, db, listSharedMemoriesStatement, ownerID)
}

func listMemories(ctx context.Context, db *sql.DB, statement string, ownerID uuid.UUID) ([]Memory, error) {
	rows, err := db.QueryContext(ctx, statement, ownerID)
	if err != nil {
		return nil, err
	}

	memories := []Memory{}
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		memories = append(memories, memory)
	}

	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Tags are loaded with a second query; the cursor must be released first
	// since in-memory databases run on a single connection.
	rows.Close()

	if err := attachTags(ctx, db, memories); err != nil {
		return nil, err
	}

	return memories, nil
}

// UpdateMemory applies patch to a live memory. CreatedAt and visibility are
// never touched here.
func UpdateMemory(ctx context.Context, db *sql.DB, id uuid.UUID, patch Patch) (Memory, error) {
	existing, err := GetMemory(ctx, db, id)
	if err != nil {
		return Memory{}, err
	}
	if existing.Deleted {
		return Memory{}, ErrMemoryNotFound
	}
	if patch.Empty() {
		return existing, nil
	}

	title, content, emotion := existing.Title, existing.Content, existing.Emotion
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		content = strings.TrimSpace(*patch.Content)
	}
	if patch.Emotion != nil {
		emotion, err = ParseEmotion(string(*patch.Emotion))
		if err != nil {
			return Memory{}, err
		}
	}
	if title == "" && content == "" {
		return Memory{}, fmt.Errorf("%w: a memory needs a title or content", ErrInvalidInput)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Memory{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, updateMemoryStatement, title, content, string(emotion), time.Now().UnixMilli(), id)
	if err != nil {
		return Memory{}, err
	}
	if err := expectOneRow(res, ErrMemoryNotFound); err != nil {
		return Memory{}, err
	}

	if patch.Tags != nil {
		if err := replaceTags(ctx, tx, id, NormalizeTags(*patch.Tags)); err != nil {
			return Memory{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Memory{}, err
	}

	return GetMemory(ctx, db, id)
}

// ShareMemory exposes a memory through the owner's legacy portal.
func ShareMemory(ctx context.Context, db *sql.DB, id uuid.UUID) (Memory, error) {
	return setVisibility(ctx, db, id, VisibilityLegacyShared)
}

// UnshareMemory makes a memory private again.
func UnshareMemory(ctx context.Context, db *sql.DB, id uuid.UUID) (Memory, error) {
	return setVisibility(ctx, db, id, VisibilityPrivate)
}

func setVisibility(ctx context.Context, db *sql.DB, id uuid.UUID, visibility Visibility) (Memory, error) {
	res, err := db.ExecContext(ctx, setVisibilityStatement, string(visibility), time.Now().UnixMilli(), id)
	if err != nil {
		return Memory{}, err
	}
	if err := expectOneRow(res, ErrMemoryNotFound); err != nil {
		return Memory{}, err
	}
	return GetMemory(ctx, db, id)
}

// DeleteMemory soft-deletes a memory. It disappears from listings, searches
// and portals immediately; PurgeDeletedMemories removes it for good.
func DeleteMemory(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, softDeleteMemoryStatement, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrMemoryNotFound)
}

// PurgeDeletedMemories permanently removes the soft-deleted memories of
// ownerID along with any tag no memory uses anymore.
func PurgeDeletedMemories(ctx context.Context, db *sql.DB, ownerID uuid.UUID) (int64, error) {
	if _, err := GetUser(ctx, db, ownerID); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, purgeDeletedMemoriesStatement, ownerID)
	if err != nil {
		return 0, err
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, dropOrphanTagsStatement); err != nil {
		return 0, fmt.Errorf("failed to drop unused tags: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return purged, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func scanMemory(row rowScanner) (Memory, error) {
	var (
		memory                            Memory
		emotion, kind, visibility, origin string
		createdAt, updatedAt              int64
	)

	err := row.Scan(
		&memory.ID,
		&memory.OwnerID,
		&memory.Title,
		&memory.Content,
		&emotion,
		&kind,
		&visibility,
		&origin,
		&memory.Deleted,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Memory{}, ErrMemoryNotFound
		}
		return Memory{}, err
	}

	memory.Emotion = Emotion(emotion)
	memory.Kind = Kind(kind)
	memory.Visibility = Visibility(visibility)
	memory.Origin = Origin(origin)
	memory.CreatedAt = time.UnixMilli(createdAt)
	memory.UpdatedAt = time.UnixMilli(updatedAt)
	return memory, nil
}
