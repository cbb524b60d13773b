package brain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/memorynet/pkg/memories"
)

func record(n byte, title, content string, created time.Time, kind memories.Kind, tags ...string) memories.Memory {
	id := uuid.UUID{}
	id[15] = n
	return memories.Memory{ID: id, Title: title, Content: content, CreatedAt: created, Kind: kind, Tags: tags}
}

func collection() []memories.Memory {
	jan := func(d int) time.Time { return time.Date(2025, time.January, d, 12, 0, 0, 0, time.UTC) }
	return []memories.Memory{
		record(1, "Lessons from Father", "He would say that courage isn't the absence of fear.", jan(15), memories.KindReflection, "family", "wisdom", "courage"),
		record(2, "Learning to Let Go", "Today I learned something profound about letting go.", jan(14), memories.KindInsight, "growth", "mindfulness", "healing"),
		record(3, "Parenting Philosophy", "My thoughts on raising children with courage and kindness.", jan(12), memories.KindPhilosophy, "parenting", "values", "love"),
		record(4, "First Day Fears", "I remembered how scared I was on my first day of school.", jan(10), memories.KindMemory, "childhood", "anxiety", "mother", "courage"),
		record(5, "Work and Purpose", "Reflecting on what work means to me.", jan(8), memories.KindReflection, "work", "purpose", "meaning"),
	}
}

func labels(reply Reply) []string {
	out := make([]string, 0, len(reply.Citations))
	for _, c := range reply.Citations {
		out = append(out, c.Label)
	}
	return out
}

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		question string
		want     string
	}{
		{"What do I believe about fear?", BucketFearAndCourage},
		{"WHAT DO I BELIEVE ABOUT FEAR", BucketFearAndCourage},
		{"...fear!!!", BucketFearAndCourage},
		{"How do I feel about my children?", BucketParenting},
		{"Thoughts on parenting", BucketParenting},
		{"What was my biggest lesson in 2024?", BucketGrowth},
		{"What did I learn this year?", BucketGrowth},
		{"Do I fear what my child will learn?", BucketFearAndCourage},
		{"Tell me about my week", BucketGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.question).Name)
		})
	}
}

func TestRespond_FearBucket(t *testing.T) {
	s := NewSynthesizer(0, time.UTC)

	reply, err := s.Respond("What do I believe about fear?", collection())
	require.NoError(t, err)

	assert.Equal(t, BucketFearAndCourage, reply.Bucket)
	assert.Contains(t, reply.Text, "courage isn't the absence of fear")
	assert.Equal(t, []string{
		"Reflection: January 2025 - 'Lessons from Father'",
		"Philosophy: January 2025 - 'Parenting Philosophy'",
		"Memory: January 2025 - 'First Day Fears'",
	}, labels(reply))
}

func TestRespond_GrowthAndParentingCiteOverlappingRecords(t *testing.T) {
	s := NewSynthesizer(5, time.UTC)

	reply, err := s.Respond("What was my biggest lesson?", collection())
	require.NoError(t, err)
	assert.Equal(t, BucketGrowth, reply.Bucket)
	assert.Equal(t, []string{
		"Reflection: January 2025 - 'Lessons from Father'",
		"Insight: January 2025 - 'Learning to Let Go'",
	}, labels(reply))

	reply, err = s.Respond("How should I raise my children?", collection())
	require.NoError(t, err)
	assert.Equal(t, BucketParenting, reply.Bucket)
	assert.Equal(t, []string{
		"Reflection: January 2025 - 'Lessons from Father'",
		"Philosophy: January 2025 - 'Parenting Philosophy'",
	}, labels(reply))
}

func TestRespond_CitationsNewestFirstAndCapped(t *testing.T) {
	records := collection()
	// Input order must not matter.
	records[0], records[3] = records[3], records[0]

	reply, err := NewSynthesizer(1, time.UTC).Respond("fear", records)
	require.NoError(t, err)
	require.Len(t, reply.Citations, 1)
	assert.Equal(t, "Lessons from Father", reply.Citations[0].Title)
	assert.Equal(t, records[3].ID, reply.Citations[0].ID)
}

func TestRespond_Generic(t *testing.T) {
	s := NewSynthesizer(3, time.UTC)

	reply, err := s.Respond("Tell me about my week", collection())
	require.NoError(t, err)
	assert.Equal(t, BucketGeneric, reply.Bucket)
	assert.Contains(t, reply.Text, "themes of courage, anxiety and childhood.")
	assert.Empty(t, reply.Citations)
	assert.NotNil(t, reply.Citations)

	reply, err = s.Respond("Tell me about my week", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "finding meaning in everyday moments")
}

func TestRespond_Deterministic(t *testing.T) {
	s := NewSynthesizer(3, time.UTC)

	for _, q := range []string{"fear?", "my child", "a lesson", "anything else"} {
		first, err := s.Respond(q, collection())
		require.NoError(t, err)
		second, err := s.Respond(q, collection())
		require.NoError(t, err)
		assert.Equal(t, first, second, q)
	}
}

func TestRespond_BlankQuestion(t *testing.T) {
	_, err := NewSynthesizer(3, time.UTC).Respond("   ", collection())
	assert.ErrorIs(t, err, memories.ErrInvalidInput)
}

type fixedClassifier struct{ bucket Bucket }

func (f fixedClassifier) Classify(string) Bucket { return f.bucket }

func TestRespond_SwappableClassifier(t *testing.T) {
	s := &Synthesizer{
		Classifier: fixedClassifier{Bucket{Name: "work", Tags: []string{"work"}, Reply: "You care about meaningful work."}},
		Location:   time.UTC,
	}

	reply, err := s.Respond("anything", collection())
	require.NoError(t, err)
	assert.Equal(t, "work", reply.Bucket)
	assert.Equal(t, "You care about meaningful work.", reply.Text)
	assert.Equal(t, []string{"Reflection: January 2025 - 'Work and Purpose'"}, labels(reply))
}

func TestCitationLabel(t *testing.T) {
	m := memories.Memory{CreatedAt: time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Memory: December 2024 - 'Untitled'", CitationLabel(m, time.UTC))
	assert.Equal(t, "Memory: January 2025 - 'Untitled'", CitationLabel(m, time.FixedZone("CET", 3600)))
}
