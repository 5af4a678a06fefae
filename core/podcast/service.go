package podcast

import (
	"context"
	"fmt"
	"strings"

	"podforge/logger"
	"podforge/model"
	"podforge/repository"

	"github.com/google/uuid"
)

// ErrUnsupportedLanguage is returned when the requested language is not in
// the allowed set. No job record is created in that case.
var ErrUnsupportedLanguage = fmt.Errorf("unsupported language, must be one of: %s", strings.Join(model.SupportedLanguages, ", "))

// promptSanitizer strips prompt-injection bait words from user input before
// it reaches the generation prompts.
var promptSanitizer = strings.NewReplacer("ignore", "", "instructions", "")

// SanitizePrompt returns the cleaned form of a user prompt.
func SanitizePrompt(prompt string) string {
	return promptSanitizer.Replace(prompt)
}

// Service exposes the outward job boundary: validate, charge, persist the
// record, dispatch the pipeline, return the id immediately.
type Service struct {
	repo       repository.PodcastRepository
	users      repository.UserRepository
	dispatcher *Dispatcher
	cost       float64
}

// NewService creates the podcast service on top of a pipeline and a worker
// pool of the given size.
func NewService(repo repository.PodcastRepository, users repository.UserRepository, pipeline *Pipeline, workers int, cost float64) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		dispatcher: NewDispatcher(workers, pipeline.Run),
		cost:       cost,
	}
}

// Start launches the background workers.
func (s *Service) Start(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// Stop drains the queue and waits for running jobs.
func (s *Service) Stop() {
	s.dispatcher.Stop()
}

// StartJob validates the request, deducts the generation cost, creates the
// job record in the pending state and enqueues the pipeline. It returns as
// soon as the record is persisted; progress is observed by polling the
// record.
func (s *Service) StartJob(ctx context.Context, userID int64, prompt, language string) (string, error) {
	if !model.IsSupportedLanguage(language) {
		return "", ErrUnsupportedLanguage
	}

	cleaned := SanitizePrompt(prompt)

	if err := s.users.DeductCredits(userID, s.cost); err != nil {
		return "", err
	}

	record := &model.Podcast{
		ID:       uuid.NewString(),
		UserID:   userID,
		Prompt:   cleaned,
		Language: language,
		Status:   model.StatusPending,
	}

	if err := s.repo.CreatePodcast(record); err != nil {
		return "", fmt.Errorf("failed to create podcast record: %w", err)
	}

	logger.Info("[Podcast] 任务已创建",
		logger.String("podcastId", record.ID),
		logger.Int64("userId", userID),
		logger.String("language", language))

	s.dispatcher.Enqueue(record.ID)
	return record.ID, nil
}
