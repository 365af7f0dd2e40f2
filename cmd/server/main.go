package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"foldercast/internal/cache"
	"foldercast/internal/db"
	"foldercast/internal/feed"
	"foldercast/internal/handlers"
	"foldercast/internal/metadata"
	"foldercast/internal/middleware"
	"foldercast/internal/store"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	db.InitDB()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}
	storagePath := os.Getenv("STORAGE_PATH")
	if storagePath == "" {
		storagePath = "data"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	cacheTTL := time.Hour
	if v := os.Getenv("FEED_CACHE_TTL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cacheTTL = time.Duration(secs) * time.Second
		}
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer client.Close()

	fileStore := store.NewDisk(storagePath)
	extractor := metadata.NewExtractor(fileStore)
	renderer := feed.NewRenderer(fileStore, extractor, baseURL)
	feedCache := cache.NewRedis(redisAddr)

	h := handlers.New(fileStore, feedCache, renderer, extractor, client, cacheTTL)

	r := mux.NewRouter()
	r.HandleFunc("/feed/{token}", h.GetFeed).Methods(http.MethodGet)
	r.HandleFunc("/feed/{token}/audio/{fileId:[0-9]+}", h.ServeAudio).Methods(http.MethodGet)
	r.HandleFunc("/feed/{token}/logo", h.ServeLogo).Methods(http.MethodGet)
	r.HandleFunc("/feed/{token}/cover/{fileId:[0-9]+}", h.ServeCover).Methods(http.MethodGet)

	rl := middleware.NewRateLimiterMiddleware(rate.Limit(5), 10)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware, rl.Middleware)
	api.HandleFunc("/feeds", h.ListFeeds).Methods(http.MethodGet)
	api.HandleFunc("/feeds", h.CreateFeed).Methods(http.MethodPost)
	api.HandleFunc("/feeds/{id:[0-9]+}", h.UpdateFeed).Methods(http.MethodPut)
	api.HandleFunc("/feeds/{id:[0-9]+}", h.DeleteFeed).Methods(http.MethodDelete)
	api.HandleFunc("/feeds/{id:[0-9]+}/logo", h.UploadLogo).Methods(http.MethodPost)

	log.Printf("Starting server on :%s (commit: %s)", port, CommitSHA)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}
