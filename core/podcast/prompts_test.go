package podcast

import (
	"strings"
	"testing"
)

func TestBuildStructureMessages(t *testing.T) {
	messages := BuildStructureMessages("es", "the space race")

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[1].Role != "user" {
		t.Errorf("roles = %s/%s, want system/user", messages[0].Role, messages[1].Role)
	}

	system := messages[0].Content
	if strings.Contains(system, "{LANGUAGE}") || strings.Contains(system, "{THEME}") {
		t.Error("placeholders left unsubstituted in system prompt")
	}
	if !strings.Contains(system, "must be in es") {
		t.Error("language not injected into system prompt")
	}
	if !strings.Contains(system, `"the space race"`) {
		t.Error("theme not injected into system prompt")
	}
	if messages[1].Content != "the space race" {
		t.Errorf("user message = %q", messages[1].Content)
	}
}

func TestBuildTranscriptionMessages(t *testing.T) {
	messages := BuildTranscriptionMessages("pt", "Sputnik")

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}

	system := messages[0].Content
	if strings.Contains(system, "{LANGUAGE}") || strings.Contains(system, "{TOPIC}") {
		t.Error("placeholders left unsubstituted in system prompt")
	}
	if !strings.Contains(system, `"Sputnik"`) {
		t.Error("topic not injected into system prompt")
	}
	if messages[1].Content != "Sputnik" {
		t.Errorf("user message = %q", messages[1].Content)
	}
}
