package brain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/memorynet/pkg/memories"
)

// DefaultMaxCitations caps Reply.Citations when Synthesizer.MaxCitations is unset.
const DefaultMaxCitations = 3

// genericThemeCount is how many top tags the generic reply names.
const genericThemeCount = 3

// RecordRef points at a memory a reply drew from.
type RecordRef struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Kind      memories.Kind `json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
	Label     string        `json:"label"`
}

// Reply is the synthesizer's answer to one question.
type Reply struct {
	Bucket    string      `json:"bucket"`
	Text      string      `json:"text"`
	Citations []RecordRef `json:"citations"`
}

// Synthesizer answers questions about a memory collection. It holds no state
// between calls: the same question over the same records gives the same Reply.
type Synthesizer struct {
	Classifier   Classifier
	MaxCitations int
	// Location renders citation months. Nil means time.Local.
	Location *time.Location
}

func NewSynthesizer(maxCitations int, loc *time.Location) *Synthesizer {
	return &Synthesizer{
		Classifier:   NewRuleClassifier(),
		MaxCitations: maxCitations,
		Location:     loc,
	}
}

// Respond classifies question and cites the records in the chosen bucket's
// territory, newest first.
func (s *Synthesizer) Respond(question string, records []memories.Memory) (Reply, error) {
	if strings.TrimSpace(question) == "" {
		return Reply{}, fmt.Errorf("%w: question cannot be empty", memories.ErrInvalidInput)
	}

	classifier := s.Classifier
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	bucket := classifier.Classify(question)

	reply := Reply{
		Bucket:    bucket.Name,
		Text:      bucket.Reply,
		Citations: []RecordRef{},
	}
	if bucket.Reply == "" {
		reply.Text = genericReply(records)
	}

	limit := s.MaxCitations
	if limit <= 0 {
		limit = DefaultMaxCitations
	}
	for _, record := range citedRecords(bucket, records) {
		if len(reply.Citations) == limit {
			break
		}
		reply.Citations = append(reply.Citations, s.ref(record))
	}

	return reply, nil
}

func (s *Synthesizer) ref(record memories.Memory) RecordRef {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return RecordRef{
		ID:        record.ID,
		Title:     record.Title,
		Kind:      record.Kind,
		CreatedAt: record.CreatedAt,
		Label:     CitationLabel(record, loc),
	}
}

// CitationLabel renders a record as "Reflection: January 2025 - 'Title'".
func CitationLabel(record memories.Memory, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	kind := string(record.Kind)
	if kind == "" {
		kind = string(memories.KindMemory)
	}
	title := record.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("%s: %s - '%s'",
		strings.ToUpper(kind[:1])+kind[1:],
		record.CreatedAt.In(loc).Format("January 2006"),
		title)
}

// citedRecords returns the records overlapping bucket, newest first. Ties
// keep input order.
func citedRecords(bucket Bucket, records []memories.Memory) []memories.Memory {
	words := make([]string, 0, len(bucket.Triggers)+len(bucket.Keywords))
	words = append(words, bucket.Triggers...)
	words = append(words, bucket.Keywords...)
	if len(words) == 0 && len(bucket.Tags) == 0 {
		return nil
	}

	var cited []memories.Memory
	for _, record := range records {
		if memories.HasAnyTag(record, bucket.Tags) || mentionsAny(record, words) {
			cited = append(cited, record)
		}
	}

	sort.SliceStable(cited, func(i, j int) bool {
		return cited[i].CreatedAt.After(cited[j].CreatedAt)
	})
	return cited
}

func mentionsAny(record memories.Memory, words []string) bool {
	title := strings.ToLower(record.Title)
	content := strings.ToLower(record.Content)
	for _, word := range words {
		if strings.Contains(title, word) || strings.Contains(content, word) {
			return true
		}
	}
	return false
}

func genericReply(records []memories.Memory) string {
	const (
		opening = "I've been thinking about your question based on everything you've shared with me. "
		closing = " Would you like me to explore any of these areas more deeply?"
	)

	counts := memories.TagCounts(records)
	if len(counts) == 0 {
		return opening + "Your thoughts often center around finding meaning in everyday moments." + closing
	}
	if len(counts) > genericThemeCount {
		counts = counts[:genericThemeCount]
	}

	themes := make([]string, 0, len(counts))
	for _, c := range counts {
		themes = append(themes, c.Tag)
	}
	return opening + "Your thoughts often center around themes of " + joinThemes(themes) + "." + closing
}

func joinThemes(themes []string) string {
	switch len(themes) {
	case 1:
		return themes[0]
	case 2:
		return themes[0] + " and " + themes[1]
	default:
		return strings.Join(themes[:len(themes)-1], ", ") + " and " + themes[len(themes)-1]
	}
}
