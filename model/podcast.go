package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PodcastStatus is the pipeline state persisted on a podcast record.
// Transitions are strictly forward; ready and error are terminal.
type PodcastStatus string

const (
	StatusPending                 PodcastStatus = "pending"
	StatusGeneratingStructure     PodcastStatus = "generating_structure"
	StatusGeneratingTranscription PodcastStatus = "generating_transcription"
	StatusGeneratingAudio         PodcastStatus = "generating_audio"
	StatusReady                   PodcastStatus = "ready"
	StatusError                   PodcastStatus = "error"
)

// IsTerminal reports whether the pipeline performs no further writes
// once this status is reached.
func (s PodcastStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// SupportedLanguages 支持的播客语言集合
var SupportedLanguages = []string{"en", "es", "pt"}

// IsSupportedLanguage validates a caller-supplied language code.
func IsSupportedLanguage(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// TopicSlot is one entry of the five-slot podcast outline.
// Empty topic/description strings are valid content.
type TopicSlot struct {
	Topic       string `json:"topic"`
	Description string `json:"description"`
}

// Structure maps the ordinal slots "1".."5" to their outline entries.
// It is stored as a JSON column and immutable once set.
type Structure map[string]TopicSlot

// Value implements driver.Valuer so GORM can persist the map as JSON.
func (s Structure) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (s *Structure) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into Structure", value)
	}
}

// Round maps a speaker slot ("speaker0", "speaker1", ...) to its spoken line.
type Round map[string]string

// Transcription is the ordered dialogue committed by the transcription stage.
type Transcription struct {
	Rounds []Round `json:"rounds"`
}

// Value implements driver.Valuer.
func (t *Transcription) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *Transcription) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("cannot scan %T into Transcription", value)
	}
}

// Podcast is the persisted job record for one generation request.
// The pipeline is the only writer of the stage-owned fields; readers
// poll the record by id.
type Podcast struct {
	ID                string         `json:"id" gorm:"primaryKey;size:36"`
	UserID            int64          `json:"userId" gorm:"index;not null"`
	Prompt            string         `json:"prompt" gorm:"type:text;not null"`
	Language          string         `json:"language" gorm:"size:8;not null"`
	Status            PodcastStatus  `json:"status" gorm:"size:32;not null;index"`
	ErrorMessage      string         `json:"errorMessage,omitempty" gorm:"type:text"`
	Structure         Structure      `json:"structure,omitempty" gorm:"type:json"`
	Transcription     *Transcription `json:"transcription,omitempty" gorm:"type:json"`
	CoverArtPath      string         `json:"coverArtPath,omitempty" gorm:"size:767"`
	CompiledAudioPath string         `json:"compiledAudioPath,omitempty" gorm:"size:767"`
	SubtitlePath      string         `json:"subtitlePath,omitempty" gorm:"size:767"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of pluralization rules.
func (Podcast) TableName() string {
	return "podcasts"
}

// PodcastSummary is the trimmed listing view returned by the podcasts index.
type PodcastSummary struct {
	ID     string        `json:"id"`
	Status PodcastStatus `json:"status"`
	Prompt string        `json:"prompt"`
}
