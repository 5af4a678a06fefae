package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podforge/cache"
	"podforge/config"
	"podforge/core/ai"
	"podforge/core/art"
	"podforge/core/audio"
	"podforge/core/auth"
	"podforge/core/podcast"
	"podforge/core/tts"
	"podforge/db"
	"podforge/logger"
	"podforge/model"
	"podforge/repository"
	"podforge/storage"

	"github.com/gorilla/mux"
)

// Start initializes all collaborators and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	auth.InitJWT(cfg.JWTSecret)

	// 初始化 MinIO 客户端
	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database via GORM: %v", err)
	}
	defer db.CloseGormDB()

	// Connect to Redis
	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.Podcast{}); err != nil {
		log.Fatalf("Failed to migrate database models: %v", err)
	}

	// Scratch directory for per-job audio clips
	ensureDirExists(cfg.WorkDir)

	userRepo := repository.NewMySQLUserRepository(db.DB)
	podcastRepo := repository.NewGormPodcastRepository(db.GormDB)

	assets := storage.NewMinioStore()
	audioProcessor := audio.NewFFmpegProcessor(cfg.FFmpegPath)
	textClient := ai.NewClient(&ai.Config{
		APIBaseURL: cfg.OpenAIAPIURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
	})
	speechClient := tts.NewClient(cfg.TTSAPIURL)
	imageClient := art.NewClient(&art.Config{
		APIBaseURL: cfg.ReplicateAPIURL,
		Token:      cfg.ReplicateToken,
		Model:      cfg.ReplicateModel,
	})

	pipeline := podcast.NewPipeline(podcastRepo, assets, textClient, speechClient, imageClient, audioProcessor, cfg.WorkDir)
	podcastService := podcast.NewService(podcastRepo, userRepo, pipeline, cfg.PipelineWorkers, cfg.PodcastCost)

	// 后台流水线 worker 的生命周期跟随进程
	serviceCtx, cancelService := context.WithCancel(context.Background())
	podcastService.Start(serviceCtx)

	// 初始化处理器
	apiHandler := NewAPIHandler(userRepo, podcastRepo, podcastService, assets, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// 播客相关的API端点
	// 固定路径要先于 {id} 注册，否则会被参数路由吞掉
	router.HandleFunc("/api/podcasts", apiHandler.AuthMiddleware(apiHandler.GeneratePodcastHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/podcasts", apiHandler.AuthMiddleware(apiHandler.GetUserPodcastsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/podcasts/structures", apiHandler.AuthMiddleware(apiHandler.GetStructuresHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/podcasts/{id}", apiHandler.AuthMiddleware(apiHandler.GetPodcastHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/podcasts/{id}/audio", apiHandler.AuthMiddleware(apiHandler.StreamAudioHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/podcasts/{id}/subtitle", apiHandler.AuthMiddleware(apiHandler.GetSubtitleHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/podcasts/{id}/cover", apiHandler.AuthMiddleware(apiHandler.GetCoverHandler)).Methods(http.MethodGet)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Generate podcasts via POST to /api/podcasts")
		log.Println("Poll job progress via GET from /api/podcasts/{id}")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号
	<-stop
	log.Println("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// 停止后台流水线，等待在途任务收尾
	cancelService()
	podcastService.Stop()

	log.Println("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
