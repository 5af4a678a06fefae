package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"podforge/config"
	"podforge/core/auth"
	"podforge/core/podcast"
	"podforge/repository"
	"podforge/storage"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	userRepo       repository.UserRepository
	podcastRepo    repository.PodcastRepository
	podcastService *podcast.Service
	assets         *storage.MinioStore
	cfg            *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	podcastRepo repository.PodcastRepository,
	podcastService *podcast.Service,
	assets *storage.MinioStore,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:       userRepo,
		podcastRepo:    podcastRepo,
		podcastService: podcastService,
		assets:         assets,
		cfg:            cfg,
	}
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Add user info to the request context
		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext 从请求上下文中取出登录用户ID
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
