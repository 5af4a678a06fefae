package podcast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"podforge/model"
)

// The generators this pipeline depends on return free text that is supposed
// to be JSON but frequently is not: fenced in markdown, wrapped in prose, or
// structurally wrong. Parsing is therefore an explicit ordered chain of
// fallible strategies rather than a single unmarshal.

// fallbackTruncateRunes is how much of a raw reply survives into the
// degenerate single-round transcription fallback.
const fallbackTruncateRunes = 1000

// stripCodeFence removes surrounding markdown code fence markers, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-3])
	}
	return s
}

// extractJSONObject returns the substring between the first '{' and the
// last '}' of s.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// decodeStructure performs a strict decode plus shape validation: keys
// "1".."5" all present, each an object carrying both "topic" and
// "description". Empty strings are valid content; fewer than five valid
// slots is a hard parse failure, never a partial accept.
func decodeStructure(data string) (model.Structure, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &outer); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	structure := make(model.Structure, 5)
	for i := 1; i <= 5; i++ {
		key := strconv.Itoa(i)
		raw, ok := outer[key]
		if !ok {
			return nil, fmt.Errorf("missing slot %q", key)
		}

		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("slot %q is not an object: %w", key, err)
		}

		topicRaw, hasTopic := entry["topic"]
		descRaw, hasDesc := entry["description"]
		if !hasTopic || !hasDesc {
			return nil, fmt.Errorf("slot %q is missing topic or description", key)
		}

		var slot model.TopicSlot
		if err := json.Unmarshal(topicRaw, &slot.Topic); err != nil {
			return nil, fmt.Errorf("slot %q has a non-string topic: %w", key, err)
		}
		if err := json.Unmarshal(descRaw, &slot.Description); err != nil {
			return nil, fmt.Errorf("slot %q has a non-string description: %w", key, err)
		}
		structure[key] = slot
	}
	return structure, nil
}

// ParseStructure salvages the five-slot outline from a raw model reply.
// Strategy order: fence strip + strict parse, then the first-'{' / last-'}'
// substring. Any result must pass shape validation.
func ParseStructure(raw string) (model.Structure, error) {
	cleaned := stripCodeFence(raw)

	structure, strictErr := decodeStructure(cleaned)
	if strictErr == nil {
		return structure, nil
	}

	if sub, ok := extractJSONObject(cleaned); ok {
		if structure, err := decodeStructure(sub); err == nil {
			return structure, nil
		}
	}

	return nil, fmt.Errorf("failed to parse structure response: %w", strictErr)
}

// decodeTranscription requires a top-level object with a "rounds" sequence
// of speaker-slot maps.
func decodeTranscription(data string) (*model.Transcription, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &outer); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}

	roundsRaw, ok := outer["rounds"]
	if !ok {
		return nil, fmt.Errorf("missing rounds")
	}

	var rounds []model.Round
	if err := json.Unmarshal(roundsRaw, &rounds); err != nil {
		return nil, fmt.Errorf("rounds is not a sequence of speaker maps: %w", err)
	}
	return &model.Transcription{Rounds: rounds}, nil
}

// fallbackTranscription degrades a completely unparsable reply to a single
// round with speaker0 carrying the truncated raw text.
func fallbackTranscription(raw string) *model.Transcription {
	runes := []rune(raw)
	if len(runes) > fallbackTruncateRunes {
		runes = runes[:fallbackTruncateRunes]
	}
	return &model.Transcription{
		Rounds: []model.Round{{"speaker0": string(runes)}},
	}
}

// ParseTranscription salvages the dialogue from a raw model reply. Unlike
// the structure stage this never fails: strict parse, then brace-substring
// parse, then the degenerate single-round fallback.
func ParseTranscription(raw string) *model.Transcription {
	if t, err := decodeTranscription(raw); err == nil {
		return t
	}

	if sub, ok := extractJSONObject(raw); ok {
		if t, err := decodeTranscription(sub); err == nil {
			return t
		}
	}

	return fallbackTranscription(raw)
}
