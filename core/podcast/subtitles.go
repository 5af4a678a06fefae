package podcast

import (
	"bytes"
	"fmt"
	"time"

	"github.com/asticode/go-astisub"
)

// Clip is one synthesized dialogue line, held only for the lifetime of a
// single pipeline run.
type Clip struct {
	Round int
	Slot  string
	Text  string
	Path  string
}

// TimedClip pairs a clip with its decoded duration.
type TimedClip struct {
	Clip
	Duration time.Duration
}

// BuildSubtitles lays the clips end to end on a running time cursor: entry i
// spans [sum(d0..d(i-1)), +di) and is labeled "slot: text". The total
// subtitle span therefore equals the compiled audio duration exactly.
func BuildSubtitles(clips []TimedClip) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	cursor := time.Duration(0)

	for _, clip := range clips {
		item := &astisub.Item{
			StartAt: cursor,
			EndAt:   cursor + clip.Duration,
			Lines: []astisub.Line{{
				Items: []astisub.LineItem{{
					Text: fmt.Sprintf("%s: %s", clip.Slot, clip.Text),
				}},
			}},
		}
		subs.Items = append(subs.Items, item)
		cursor += clip.Duration
	}
	return subs
}

// RenderSRT serializes the subtitles in SRT format.
func RenderSRT(subs *astisub.Subtitles) ([]byte, error) {
	var buf bytes.Buffer
	if err := subs.WriteToSRT(&buf); err != nil {
		return nil, fmt.Errorf("failed to render SRT: %w", err)
	}
	return buf.Bytes(), nil
}
