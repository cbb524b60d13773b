package memories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	records := timelineRecords()
	records[0].Visibility = VisibilityLegacyShared
	records[0].Origin = OriginVoice
	records = append(records, Memory{Title: "february", Kind: KindOther, Origin: OriginWrite, CreatedAt: day(2025, time.February, 2, 10, 0)})

	stats := Summarize(records, day(2025, time.January, 20, 12, 0), time.UTC)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.Shared)
	assert.Equal(t, 5, stats.ThisMonth)
	assert.Equal(t, 15, stats.DistinctTags)
	assert.Equal(t, 2, stats.ByKind[KindReflection])
	assert.Equal(t, 1, stats.ByKind[KindOther])
	assert.Equal(t, 1, stats.ByOrigin[OriginVoice])
	assert.Len(t, stats.TopTags, 5)
	assert.Equal(t, "courage", stats.TopTags[0].Tag)
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(nil, time.Now(), nil)
	assert.Zero(t, stats.Total)
	assert.Empty(t, stats.TopTags)
}
