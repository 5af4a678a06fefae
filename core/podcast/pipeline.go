package podcast

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"podforge/core/art"
	"podforge/core/audio"
	"podforge/core/tts"
	"podforge/logger"
	"podforge/model"
	"podforge/repository"
)

// structureMaxAttempts bounds the parse-and-retry loop of the structure
// stage. The transcription stage deliberately has no such loop: it degrades
// to a fallback instead of retrying.
const structureMaxAttempts = 5

// TextGenerator produces free text from an ordered message list. Replies
// may be malformed; transport failures surface as errors.
type TextGenerator interface {
	Chat(ctx context.Context, messages []model.OpenAIChatMessage) (string, error)
}

// SpeechSynthesizer renders one line of dialogue to raw audio bytes.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, error)
}

// ImageGenerator produces image bytes for a prompt. A (nil, nil) return
// means the provider had no result.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// AssetStore persists finished artifacts (cover art, compiled audio,
// subtitles) under stable names.
type AssetStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// Pipeline executes the five generation stages for one podcast record:
// cover art, structure, transcription, speech synthesis, compilation.
// Stages run strictly in sequence and each stage commits its fields to the
// record before the next one starts. Any unrecoverable failure writes the
// terminal error status; nothing is ever rolled back.
type Pipeline struct {
	repo    repository.PodcastRepository
	assets  AssetStore
	text    TextGenerator
	speech  SpeechSynthesizer
	images  ImageGenerator
	audio   audio.Processor
	workDir string
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(
	repo repository.PodcastRepository,
	assets AssetStore,
	text TextGenerator,
	speech SpeechSynthesizer,
	images ImageGenerator,
	processor audio.Processor,
	workDir string,
) *Pipeline {
	return &Pipeline{
		repo:    repo,
		assets:  assets,
		text:    text,
		speech:  speech,
		images:  images,
		audio:   processor,
		workDir: workDir,
	}
}

// voiceForSlot picks the synthesis voice for a speaker slot. speaker0 is
// always the host voice, every other slot the guest voice, regardless of
// the podcast language.
func voiceForSlot(slot string) string {
	if slot == "speaker0" {
		return tts.DefaultHostVoice
	}
	return tts.DefaultGuestVoice
}

// Run drives one podcast job to a terminal state. Failures are written to
// the record and never propagate: a broken job must not take the worker
// down with it.
func (p *Pipeline) Run(ctx context.Context, podcastID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Pipeline] 任务发生 panic",
				logger.String("podcastId", podcastID),
				logger.Any("panic", r))
			p.fail(podcastID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	record, err := p.repo.GetPodcastByID(podcastID)
	if err != nil {
		logger.Error("[Pipeline] 读取任务记录失败", logger.String("podcastId", podcastID), logger.ErrorField(err))
		return
	}
	if record == nil {
		logger.Error("[Pipeline] 任务记录不存在", logger.String("podcastId", podcastID))
		return
	}

	logger.Info("[Pipeline] 开始生成播客",
		logger.String("podcastId", record.ID),
		logger.String("language", record.Language))

	if err := p.runCoverArt(ctx, record); err != nil {
		p.fail(record.ID, err.Error())
		return
	}

	structure, err := p.runStructure(ctx, record)
	if err != nil {
		p.fail(record.ID, err.Error())
		return
	}

	transcription, err := p.runTranscription(ctx, record, structure)
	if err != nil {
		p.fail(record.ID, err.Error())
		return
	}

	clips, err := p.runSynthesis(ctx, record, transcription)
	if err != nil {
		p.fail(record.ID, err.Error())
		return
	}

	if err := p.runCompilation(ctx, record, clips); err != nil {
		p.fail(record.ID, err.Error())
		return
	}

	logger.Info("[Pipeline] 播客生成完成", logger.String("podcastId", record.ID))
}

// fail writes the terminal error status. Fields committed by earlier stages
// are kept for diagnostics.
func (p *Pipeline) fail(podcastID, message string) {
	logger.Error("[Pipeline] 任务失败",
		logger.String("podcastId", podcastID),
		logger.String("reason", message))

	err := p.repo.UpdatePodcast(podcastID, map[string]interface{}{
		"status":        model.StatusError,
		"error_message": message,
	})
	if err != nil {
		logger.Error("[Pipeline] 写入失败状态出错", logger.String("podcastId", podcastID), logger.ErrorField(err))
	}
}

// runCoverArt generates, resizes and commits the cover image. This is the
// only stage that can halt the pipeline before any dialogue content exists.
func (p *Pipeline) runCoverArt(ctx context.Context, record *model.Podcast) error {
	prompt := "Podcast cover art for topic: " + record.Prompt

	img, err := p.images.Generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("failed to generate cover art: %v", err)
	}
	if len(img) == 0 {
		return fmt.Errorf("failed to generate cover art: provider returned no image")
	}

	if _, err := p.assets.Save(ctx, fmt.Sprintf("covers/%s_original.png", record.ID), img, "image/png"); err != nil {
		return fmt.Errorf("failed to save cover art: %v", err)
	}

	resized, err := art.Resize(img, art.CoverWidth, art.CoverHeight)
	if err != nil {
		return fmt.Errorf("failed to resize cover art: %v", err)
	}

	coverPath, err := p.assets.Save(ctx, fmt.Sprintf("covers/%s_cover.png", record.ID), resized, "image/png")
	if err != nil {
		return fmt.Errorf("failed to save resized cover art: %v", err)
	}

	return p.repo.UpdatePodcast(record.ID, map[string]interface{}{
		"cover_art_path": coverPath,
		"status":         model.StatusGeneratingStructure,
	})
}

// runStructure obtains the five-topic outline within a bounded attempt
// budget. Invalid replies are discarded and retried; a transport failure is
// not retried.
func (p *Pipeline) runStructure(ctx context.Context, record *model.Podcast) (model.Structure, error) {
	messages := BuildStructureMessages(record.Language, record.Prompt)

	var lastErr error
	for attempt := 1; attempt <= structureMaxAttempts; attempt++ {
		raw, err := p.text.Chat(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("structure generation failed: %v", err)
		}

		structure, err := ParseStructure(raw)
		if err != nil {
			lastErr = err
			logger.Warn("[Pipeline] 结构解析失败，准备重试",
				logger.String("podcastId", record.ID),
				logger.Int("attempt", attempt),
				logger.ErrorField(err))
			continue
		}

		if err := p.repo.UpdatePodcast(record.ID, map[string]interface{}{
			"structure": structure,
			"status":    model.StatusGeneratingTranscription,
		}); err != nil {
			return nil, fmt.Errorf("failed to commit structure: %v", err)
		}
		return structure, nil
	}

	return nil, fmt.Errorf("failed to generate podcast structure after %d attempts: %v", structureMaxAttempts, lastErr)
}

// runTranscription obtains the dialogue for the first outline topic. Parse
// problems degrade to a fallback and never fail the job; only the
// generation call itself can.
func (p *Pipeline) runTranscription(ctx context.Context, record *model.Podcast, structure model.Structure) (*model.Transcription, error) {
	firstTopic := structure["1"].Topic
	messages := BuildTranscriptionMessages(record.Language, firstTopic)

	raw, err := p.text.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("transcription generation failed: %v", err)
	}

	transcription := ParseTranscription(raw)

	if err := p.repo.UpdatePodcast(record.ID, map[string]interface{}{
		"transcription": transcription,
		"status":        model.StatusGeneratingAudio,
	}); err != nil {
		return nil, fmt.Errorf("failed to commit transcription: %v", err)
	}
	return transcription, nil
}

// runSynthesis renders one clip per populated speaker slot, one call at a
// time, in round order with deterministic slot order inside a round. A
// single synthesis failure aborts the stage; clips already written stay on
// disk for diagnostics.
func (p *Pipeline) runSynthesis(ctx context.Context, record *model.Podcast, transcription *model.Transcription) ([]Clip, error) {
	jobDir := filepath.Join(p.workDir, record.ID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %v", err)
	}

	var clips []Clip
	for i, round := range transcription.Rounds {
		slots := make([]string, 0, len(round))
		for slot := range round {
			slots = append(slots, slot)
		}
		sort.Strings(slots)

		for _, slot := range slots {
			text := round[slot]
			audioBytes, err := p.speech.Synthesize(ctx, text, voiceForSlot(slot), record.Language)
			if err != nil {
				return nil, fmt.Errorf("speech synthesis failed for round %d slot %s: %v", i, slot, err)
			}

			clipPath := filepath.Join(jobDir, fmt.Sprintf("%d_%s.wav", i, slot))
			if err := os.WriteFile(clipPath, audioBytes, 0644); err != nil {
				return nil, fmt.Errorf("failed to save audio clip: %v", err)
			}

			clips = append(clips, Clip{Round: i, Slot: slot, Text: text, Path: clipPath})
		}
	}

	logger.Info("[Pipeline] 语音合成完成",
		logger.String("podcastId", record.ID),
		logger.Int("clips", len(clips)))
	return clips, nil
}

// runCompilation concatenates the clips into one track, emits the
// time-aligned subtitles, commits both asset references together with the
// ready status, and only then deletes the per-clip files.
func (p *Pipeline) runCompilation(ctx context.Context, record *model.Podcast, clips []Clip) error {
	if len(clips) == 0 {
		return fmt.Errorf("failed to compile audio: no clips produced")
	}

	timed := make([]TimedClip, 0, len(clips))
	inputs := make([]string, 0, len(clips))
	for _, clip := range clips {
		seconds, err := p.audio.GetAudioDuration(clip.Path)
		if err != nil {
			return fmt.Errorf("failed to read clip duration: %v", err)
		}
		timed = append(timed, TimedClip{Clip: clip, Duration: secondsToDuration(seconds)})
		inputs = append(inputs, clip.Path)
	}

	jobDir := filepath.Join(p.workDir, record.ID)
	compiledLocal := filepath.Join(jobDir, "compiled.wav")
	if err := p.audio.ConcatWAV(inputs, compiledLocal); err != nil {
		return fmt.Errorf("failed to compile audio: %v", err)
	}

	srtData, err := RenderSRT(BuildSubtitles(timed))
	if err != nil {
		return fmt.Errorf("failed to build subtitles: %v", err)
	}

	compiledData, err := os.ReadFile(compiledLocal)
	if err != nil {
		return fmt.Errorf("failed to read compiled audio: %v", err)
	}

	audioPath, err := p.assets.Save(ctx, fmt.Sprintf("audio/%s_compiled.wav", record.ID), compiledData, "audio/wav")
	if err != nil {
		return fmt.Errorf("failed to save compiled audio: %v", err)
	}

	subtitlePath, err := p.assets.Save(ctx, fmt.Sprintf("subtitles/%s_subtitles.srt", record.ID), srtData, "application/x-subrip")
	if err != nil {
		return fmt.Errorf("failed to save subtitles: %v", err)
	}

	if err := p.repo.UpdatePodcast(record.ID, map[string]interface{}{
		"compiled_audio_path": audioPath,
		"subtitle_path":       subtitlePath,
		"status":              model.StatusReady,
	}); err != nil {
		return fmt.Errorf("failed to commit compiled assets: %v", err)
	}

	// Clip files are deleted only on the success path.
	if err := os.RemoveAll(jobDir); err != nil {
		logger.Warn("[Pipeline] 清理临时目录失败", logger.String("dir", jobDir), logger.ErrorField(err))
	}
	return nil
}

func secondsToDuration(seconds float32) time.Duration {
	return time.Duration(float64(seconds) * float64(time.Second))
}
