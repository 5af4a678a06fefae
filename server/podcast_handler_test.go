package server

import (
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:02,000
speaker0: Welcome to the show.

2
00:00:02,000 --> 00:00:03,500
speaker1: Happy to join.

`

func TestSRTToWebVTT(t *testing.T) {
	out, err := srtToWebVTT(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatalf("srtToWebVTT failed: %v", err)
	}

	vtt := string(out)
	if !strings.HasPrefix(vtt, "WEBVTT") {
		t.Errorf("output missing WEBVTT header:\n%s", vtt)
	}
	// 说话人前缀在展示时要去掉
	if strings.Contains(vtt, "speaker0:") || strings.Contains(vtt, "speaker1:") {
		t.Errorf("speaker prefixes not stripped:\n%s", vtt)
	}
	if !strings.Contains(vtt, "Welcome to the show.") {
		t.Errorf("cue text missing:\n%s", vtt)
	}
	if !strings.Contains(vtt, "00:00:02.000") {
		t.Errorf("WebVTT timestamp missing:\n%s", vtt)
	}
}

func TestSRTToWebVTTKeepsLinesWithoutPrefix(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:01,000\nJust a line.\n\n"

	out, err := srtToWebVTT(strings.NewReader(srt))
	if err != nil {
		t.Fatalf("srtToWebVTT failed: %v", err)
	}
	if !strings.Contains(string(out), "Just a line.") {
		t.Errorf("line without prefix was altered:\n%s", out)
	}
}
