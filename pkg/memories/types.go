package memories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput is returned when a caller passes arguments the core cannot act on.
var ErrInvalidInput = errors.New("invalid input")

// Emotion is the optional mood attached to a memory. The zero value means none.
type Emotion string

const (
	EmotionNone       Emotion = ""
	EmotionHappy      Emotion = "happy"
	EmotionCalm       Emotion = "calm"
	EmotionReflective Emotion = "reflective"
	EmotionNeutral    Emotion = "neutral"
	EmotionSad        Emotion = "sad"
	EmotionLoving     Emotion = "loving"
	EmotionNostalgic  Emotion = "nostalgic"
	EmotionMotivated  Emotion = "motivated"
)

var emotions = []Emotion{
	EmotionHappy, EmotionCalm, EmotionReflective, EmotionNeutral,
	EmotionSad, EmotionLoving, EmotionNostalgic, EmotionMotivated,
}

// Emotions lists the accepted emotion values.
func Emotions() []Emotion {
	return append([]Emotion(nil), emotions...)
}

// ParseEmotion validates s. An empty string yields EmotionNone.
func ParseEmotion(s string) (Emotion, error) {
	if s == "" {
		return EmotionNone, nil
	}
	for _, e := range emotions {
		if string(e) == s {
			return e, nil
		}
	}
	return EmotionNone, fmt.Errorf("%w: unknown emotion %q", ErrInvalidInput, s)
}

// Kind classifies what sort of record a memory is.
type Kind string

const (
	KindReflection Kind = "reflection"
	KindInsight    Kind = "insight"
	KindPhilosophy Kind = "philosophy"
	KindMemory     Kind = "memory"
	KindOther      Kind = "other"
)

var kinds = []Kind{KindReflection, KindInsight, KindPhilosophy, KindMemory, KindOther}

// Kinds lists the accepted kinds in display order.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind validates s. An empty string yields KindMemory.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindMemory, nil
	}
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, s)
}

// Visibility controls whether a memory is exposed through a legacy portal.
type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityLegacyShared Visibility = "legacy-shared"
)

// Origin records which capture path produced a memory.
type Origin string

const (
	OriginWrite  Origin = "write"
	OriginVoice  Origin = "voice"
	OriginImport Origin = "import"
)

// ParseOrigin validates s. An empty string yields OriginWrite.
func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case "":
		return OriginWrite, nil
	case OriginWrite, OriginVoice, OriginImport:
		return Origin(s), nil
	}
	return "", fmt.Errorf("%w: unknown origin %q", ErrInvalidInput, s)
}

// User owns a set of memories.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Memory is a single stored record of personal content.
type Memory struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Title      string     `json:"title,omitempty"`
	Content    string     `json:"content,omitempty"`
	Emotion    Emotion    `json:"emotion,omitempty"`
	Kind       Kind       `json:"kind"`
	Visibility Visibility `json:"visibility"`
	Origin     Origin     `json:"origin"`
	Tags       []string   `json:"tags,omitempty"`
	Deleted    bool       `json:"deleted,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Shared reports whether the memory is exposed to the owner's legacy portal.
func (m Memory) Shared() bool {
	return m.Visibility == VisibilityLegacyShared
}

// NewMemory carries the fields accepted when a memory is first captured.
type NewMemory struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content,omitempty"`
	Emotion Emotion  `json:"emotion,omitempty"`
	Kind    Kind     `json:"kind,omitempty"`
	Origin  Origin   `json:"origin,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	// CreatedAt is honored for imports; zero means now.
	CreatedAt time.Time `json:"created_at"`
}

// Patch lists the editable fields of a memory. Nil fields are left untouched.
type Patch struct {
	Title   *string
	Content *string
	Emotion *Emotion
	Tags    *[]string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Emotion == nil && p.Tags == nil
}

// Tag represents a keyword or label that can be associated with memories.
type Tag struct {
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
