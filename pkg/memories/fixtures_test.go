package memories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/memorynet/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err, "open in-memory database")
	require.NoError(t, db.InitializeSchema(testDB, db.TargetSchemaVersion), "initialize schema")

	t.Cleanup(func() { testDB.Close() })
	return testDB
}

func setupTestDBWithUser(t *testing.T) (*sql.DB, uuid.UUID) {
	t.Helper()

	testDB := setupTestDB(t)
	user, err := CreateUser(context.Background(), testDB, "Alex Thompson", "alex@memorynet.test")
	require.NoError(t, err, "create test user")

	return testDB, user.ID
}

func createTestMemory(t *testing.T, ctx context.Context, db *sql.DB, ownerID uuid.UUID, in NewMemory) Memory {
	t.Helper()

	memory, err := CreateMemory(ctx, db, ownerID, in)
	require.NoError(t, err, "CreateMemory failed in createTestMemory")
	return memory
}

func day(year int, month time.Month, d, hour, minute int) time.Time {
	return time.Date(year, month, d, hour, minute, 0, 0, time.UTC)
}

// timelineRecords is the sample collection shown on the timeline page.
func timelineRecords() []Memory {
	return []Memory{
		{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			Title:     "Lessons from Father",
			Content:   "I remembered the way my father used to speak about fear. He would say that courage isn't the absence of fear, but feeling fear and choosing to act anyway.",
			CreatedAt: day(2025, time.January, 15, 14, 30),
			Emotion:   EmotionReflective,
			Tags:      []string{"family", "wisdom", "courage"},
			Kind:      KindReflection,
		},
		{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000002"),
			Title:     "Learning to Let Go",
			Content:   "Today I learned something profound about letting go. It's not about forgetting or dismissing what happened, but about choosing not to carry the weight of it anymore.",
			CreatedAt: day(2025, time.January, 14, 9, 15),
			Emotion:   EmotionCalm,
			Tags:      []string{"growth", "mindfulness", "healing"},
			Kind:      KindInsight,
		},
		{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000003"),
			Title:     "Parenting Philosophy",
			Content:   "My thoughts on raising children with courage and kindness. I want my kids to know that they are loved unconditionally.",
			CreatedAt: day(2025, time.January, 12, 20, 45),
			Emotion:   EmotionLoving,
			Tags:      []string{"parenting", "values", "love"},
			Kind:      KindPhilosophy,
		},
		{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000004"),
			Title:     "First Day Fears",
			Content:   "I remembered how scared I was on my first day of school. My mom packed my lunch with a little note that said 'You are braver than you believe.'",
			CreatedAt: day(2025, time.January, 10, 16, 20),
			Emotion:   EmotionNostalgic,
			Tags:      []string{"childhood", "anxiety", "mother", "courage"},
			Kind:      KindMemory,
		},
		{
			ID:        uuid.MustParse("00000000-0000-0000-0000-000000000005"),
			Title:     "Work and Purpose",
			Content:   "Reflecting on what work means to me. Real work is about contributing something meaningful to the world, even if it's small.",
			CreatedAt: day(2025, time.January, 8, 11, 30),
			Emotion:   EmotionMotivated,
			Tags:      []string{"work", "purpose", "meaning"},
			Kind:      KindReflection,
		},
	}
}
