package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podforge/cache"
	"podforge/core/podcast"
	"podforge/logger"
	"podforge/model"
	"podforge/repository"

	"github.com/asticode/go-astisub"
	"github.com/gorilla/mux"
)

// GeneratePodcastRequest 生成播客的请求体
type GeneratePodcastRequest struct {
	Content  string `json:"content"`
	Language string `json:"language"`
}

// GeneratePodcastHandler accepts a generation request, starts the background
// job and returns the job id immediately. Progress is observed by polling
// GET /api/podcasts/{id}.
func (h *APIHandler) GeneratePodcastHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req GeneratePodcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	id, err := h.podcastService.StartJob(r.Context(), userID, req.Content, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, podcast.ErrUnsupportedLanguage):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repository.ErrInsufficientCredits):
			http.Error(w, "Insufficient credits", http.StatusForbidden)
		default:
			logger.Error("[Podcast] 创建任务失败", logger.ErrorField(err))
			http.Error(w, "Failed to start podcast generation", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetUserPodcastsHandler returns a trimmed listing of the caller's podcasts,
// newest first.
func (h *APIHandler) GetUserPodcastsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.podcastRepo.GetPodcastsByUserID(userID)
	if err != nil {
		logger.Error("[Podcast] 查询用户播客列表失败", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	summaries := make([]model.PodcastSummary, 0, len(records))
	for _, p := range records {
		summaries = append(summaries, model.PodcastSummary{
			ID:     p.ID,
			Status: p.Status,
			Prompt: p.Prompt,
		})
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetStructuresHandler returns a prompt -> outline map across the caller's
// podcasts that have reached the structure stage.
func (h *APIHandler) GetStructuresHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.podcastRepo.GetPodcastsByUserID(userID)
	if err != nil {
		logger.Error("[Podcast] 查询播客结构失败", logger.Int64("userId", userID), logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	structures := make(map[string]model.Structure)
	for _, p := range records {
		if p.Structure != nil {
			structures[p.Prompt] = p.Structure
		}
	}

	writeJSON(w, http.StatusOK, structures)
}

// loadPodcast fetches a record by id with the cache in front of the
// database, enforcing that the caller owns it. A nil record with a nil
// error means not found (or not owned, which is reported identically).
func (h *APIHandler) loadPodcast(r *http.Request, userID int64) (*model.Podcast, error) {
	id := mux.Vars(r)["id"]
	if id == "" {
		return nil, nil
	}

	if cached, err := cache.GetPodcast(r.Context(), id); err != nil {
		logger.Warn("[Podcast] 读取缓存失败", logger.String("podcastId", id), logger.ErrorField(err))
	} else if cached != nil {
		if cached.UserID != userID {
			return nil, nil
		}
		return cached, nil
	}

	record, err := h.podcastRepo.GetPodcastByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil || record.UserID != userID {
		return nil, nil
	}

	// 终态记录写入缓存，后续轮询直接命中
	if err := cache.SetPodcast(r.Context(), record); err != nil {
		logger.Warn("[Podcast] 写入缓存失败", logger.String("podcastId", record.ID), logger.ErrorField(err))
	}
	return record, nil
}

// GetPodcastHandler returns the full job record for polling.
func (h *APIHandler) GetPodcastHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.loadPodcast(r, userID)
	if err != nil {
		logger.Error("[Podcast] 查询播客失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// StreamAudioHandler streams the compiled audio of a ready podcast.
func (h *APIHandler) StreamAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.loadPodcast(r, userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if record.Status != model.StatusReady || record.CompiledAudioPath == "" {
		http.Error(w, "Podcast audio is not ready", http.StatusConflict)
		return
	}

	object, err := h.assets.Open(r.Context(), record.CompiledAudioPath)
	if err != nil {
		logger.Error("[Podcast] 打开音频对象失败",
			logger.String("podcastId", record.ID),
			logger.String("path", record.CompiledAudioPath),
			logger.ErrorField(err))
		http.Error(w, "Failed to open audio", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Accept-Ranges", "bytes")
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("[Podcast] 音频传输中断", logger.String("podcastId", record.ID), logger.ErrorField(err))
	}
}

// GetCoverHandler serves the podcast cover image.
func (h *APIHandler) GetCoverHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.loadPodcast(r, userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if record.CoverArtPath == "" {
		http.Error(w, "Podcast has no cover art", http.StatusNotFound)
		return
	}

	object, err := h.assets.Open(r.Context(), record.CoverArtPath)
	if err != nil {
		logger.Error("[Podcast] 打开封面对象失败", logger.String("podcastId", record.ID), logger.ErrorField(err))
		http.Error(w, "Failed to open cover art", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", "image/png")
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("[Podcast] 封面传输中断", logger.String("podcastId", record.ID), logger.ErrorField(err))
	}
}

// GetSubtitleHandler serves the subtitles of a ready podcast converted to
// WebVTT, with the "speakerN: " prefixes stripped for on-screen display.
func (h *APIHandler) GetSubtitleHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	record, err := h.loadPodcast(r, userID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Podcast not found", http.StatusNotFound)
		return
	}
	if record.Status != model.StatusReady || record.SubtitlePath == "" {
		http.Error(w, "Podcast subtitles are not ready", http.StatusConflict)
		return
	}

	object, err := h.assets.Open(r.Context(), record.SubtitlePath)
	if err != nil {
		logger.Error("[Podcast] 打开字幕对象失败", logger.String("podcastId", record.ID), logger.ErrorField(err))
		http.Error(w, "Failed to open subtitles", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	vtt, err := srtToWebVTT(object)
	if err != nil {
		logger.Error("[Podcast] 字幕转换失败", logger.String("podcastId", record.ID), logger.ErrorField(err))
		http.Error(w, "Failed to convert subtitles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.vtt", record.ID))
	w.Write(vtt)
}

// srtToWebVTT converts stored SRT subtitles to WebVTT and removes the
// speaker slot prefix from each cue line.
func srtToWebVTT(src io.Reader) ([]byte, error) {
	subs, err := astisub.ReadFromSRT(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse srt: %w", err)
	}

	for _, item := range subs.Items {
		for i := range item.Lines {
			for j := range item.Lines[i].Items {
				text := item.Lines[i].Items[j].Text
				if idx := strings.Index(text, ": "); idx >= 0 {
					item.Lines[i].Items[j].Text = text[idx+2:]
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := subs.WriteToWebVTT(&buf); err != nil {
		return nil, fmt.Errorf("failed to write webvtt: %w", err)
	}
	return buf.Bytes(), nil
}
