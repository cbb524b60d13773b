package memories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTagNotFound = errors.New("tag not found")
)

// SuggestedTags are offered when a memory is captured without tags.
var SuggestedTags = []string{"wisdom", "family", "growth", "fear", "love", "work"}

// tagBatchSize keeps IN clauses well under SQLite's bound-parameter limit.
const tagBatchSize = 500

const (
	upsertTagStatement = `
	INSERT INTO tags (tag) VALUES (?)
	ON CONFLICT(tag) DO UPDATE SET updated_at = unixepoch()
	`

	attachTagStatement = `
	INSERT INTO memory_tags (memory_id, tag, position)
	VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM memory_tags WHERE memory_id = ?))
	ON CONFLICT(memory_id, tag) DO NOTHING
	`

	clearMemoryTagsStatement = `
	DELETE FROM memory_tags WHERE memory_id = ?
	`

	detachTagStatement = `
	DELETE FROM memory_tags WHERE memory_id = ? AND tag = ?
	`

	listTagsForMemoryStatement = `
	SELECT t.tag, t.created_at, t.updated_at
	FROM tags t
	JOIN memory_tags mt ON mt.tag = t.tag
	WHERE mt.memory_id = ?
	ORDER BY mt.position ASC
	`

	listTagsForOwnerStatement = `
	SELECT DISTINCT t.tag, t.created_at, t.updated_at
	FROM tags t
	JOIN memory_tags mt ON mt.tag = t.tag
	JOIN memories m ON m.id = mt.memory_id
	WHERE m.owner_id = ? AND m.deleted = FALSE
	ORDER BY t.tag ASC
	`

	detachTagFromOwnerStatement = `
	DELETE FROM memory_tags
	WHERE tag = ? AND memory_id IN (SELECT id FROM memories WHERE owner_id = ?)
	`

	dropUnusedTagStatement = `
	DELETE FROM tags
	WHERE tag = ? AND NOT EXISTS (SELECT 1 FROM memory_tags WHERE tag = ?)
	`

	touchMemoryStatement = `
	UPDATE memories SET updated_at = ? WHERE id = ?
	`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// NormalizeTags trims every tag, drops blanks and collapses duplicates
// (case-sensitive), keeping first occurrences in order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ParseTagList splits a comma-separated tag list as typed on the command line.
func ParseTagList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// AllTags is the distinct set of tags across records, sorted so repeated
// calls over the same records present the same order.
func AllTags(records []Memory) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, record := range records {
		for _, tag := range record.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

// TagCount is how many records carry a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCounts tallies tags across records, most used first, ties by name.
func TagCounts(records []Memory) []TagCount {
	counts := make(map[string]int)
	for _, record := range records {
		for _, tag := range record.Tags {
			counts[tag]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// HasAnyTag reports whether record carries at least one of tags.
func HasAnyTag(record Memory, tags []string) bool {
	for _, want := range tags {
		for _, have := range record.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// TagMemory attaches tag to a live memory. Attaching a tag twice is a no-op.
func TagMemory(ctx context.Context, db *sql.DB, memoryID uuid.UUID, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("%w: tag cannot be empty", ErrInvalidInput)
	}

	memory, err := GetMemory(ctx, db, memoryID)
	if err != nil {
		return err
	}
	if memory.Deleted {
		return ErrMemoryNotFound
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := attachTag(ctx, tx, memoryID, tag); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, touchMemoryStatement, time.Now().UnixMilli(), memoryID); err != nil {
		return err
	}

	return tx.Commit()
}

// UntagMemory removes tag from a memory.
func UntagMemory(ctx context.Context, db *sql.DB, memoryID uuid.UUID, tag string) error {
	tag = strings.TrimSpace(tag)

	memory, err := GetMemory(ctx, db, memoryID)
	if err != nil {
		return err
	}
	if memory.Deleted {
		return ErrMemoryNotFound
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, detachTagStatement, memoryID, tag)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, ErrTagNotFound); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, touchMemoryStatement, time.Now().UnixMilli(), memoryID); err != nil {
		return err
	}

	return tx.Commit()
}

func ListTagsForMemory(ctx context.Context, db *sql.DB, memoryID uuid.UUID) ([]Tag, error) {
	if _, err := GetMemory(ctx, db, memoryID); err != nil {
		return nil, err
	}
	return queryTags(ctx, db, listTagsForMemoryStatement, memoryID)
}

// ListTags retrieves the tags in use across an owner's live memories.
func ListTags(ctx context.Context, db *sql.DB, ownerID uuid.UUID) ([]Tag, error) {
	if _, err := GetUser(ctx, db, ownerID); err != nil {
		return nil, err
	}
	return queryTags(ctx, db, listTagsForOwnerStatement, ownerID)
}

// DeleteTag removes tag from every memory of ownerID. The tag row itself is
// dropped once no memory of any owner uses it.
func DeleteTag(ctx context.Context, db *sql.DB, ownerID uuid.UUID, tag string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, detachTagFromOwnerStatement, tag, ownerID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res, ErrTagNotFound); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, dropUnusedTagStatement, tag, tag); err != nil {
		return err
	}

	return tx.Commit()
}

func queryTags(ctx context.Context, q queryer, statement string, arg any) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, statement, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var (
			t                              Tag
			createdAtFloat, updatedAtFloat float64
		)
		if err := rows.Scan(&t.Tag, &createdAtFloat, &updatedAtFloat); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		t.CreatedAt = unixFloatToTime(createdAtFloat)
		t.UpdatedAt = unixFloatToTime(updatedAtFloat)
		tags = append(tags, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return tags, nil
}

func unixFloatToTime(f float64) time.Time {
	return time.Unix(int64(f), int64((f-float64(int64(f)))*1e9))
}

func attachTag(ctx context.Context, q execer, memoryID uuid.UUID, tag string) error {
	if _, err := q.ExecContext(ctx, upsertTagStatement, tag); err != nil {
		return fmt.Errorf("failed to upsert tag '%s': %w", tag, err)
	}
	if _, err := q.ExecContext(ctx, attachTagStatement, memoryID, tag, memoryID); err != nil {
		return fmt.Errorf("failed to attach tag '%s': %w", tag, err)
	}
	return nil
}

// replaceTags swaps the memory's tag set for tags, preserving their order.
func replaceTags(ctx context.Context, q execer, memoryID uuid.UUID, tags []string) error {
	if _, err := q.ExecContext(ctx, clearMemoryTagsStatement, memoryID); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := attachTag(ctx, q, memoryID, tag); err != nil {
			return err
		}
	}
	return nil
}

// attachTags loads the tags of every memory in batch, in place.
func attachTags(ctx context.Context, q queryer, batch []Memory) error {
	if len(batch) == 0 {
		return nil
	}

	index := make(map[uuid.UUID]int, len(batch))
	for i := range batch {
		index[batch[i].ID] = i
	}

	for start := 0; start < len(batch); start += tagBatchSize {
		end := min(start+tagBatchSize, len(batch))

		args := make([]any, 0, end-start)
		for _, memory := range batch[start:end] {
			args = append(args, memory.ID)
		}
		placeholders := strings.Repeat("?,", len(args)-1) + "?"

		query := fmt.Sprintf(`
		SELECT memory_id, tag
		FROM memory_tags
		WHERE memory_id IN (%s)
		ORDER BY memory_id, position ASC
		`, placeholders)

		if err := scanMemoryTags(ctx, q, query, args, batch, index); err != nil {
			return err
		}
	}

	return nil
}

func scanMemoryTags(ctx context.Context, q queryer, query string, args []any, batch []Memory, index map[uuid.UUID]int) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load memory tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			memoryID uuid.UUID
			tag      string
		)
		if err := rows.Scan(&memoryID, &tag); err != nil {
			return fmt.Errorf("failed to scan memory tag row: %w", err)
		}
		if i, ok := index[memoryID]; ok {
			batch[i].Tags = append(batch[i].Tags, tag)
		}
	}

	return rows.Err()
}
