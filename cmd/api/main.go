package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowsmith/api/internal/app"
	"flowsmith/api/internal/catalog"
	"flowsmith/api/internal/config"
	"flowsmith/api/internal/genai"
	"flowsmith/api/internal/history"
	"flowsmith/api/internal/search"
	"flowsmith/api/internal/session"
	"flowsmith/api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("storage setup failed: %v", err)
	}
	defer cleanup()

	docs := store.NewDocumentStore(backend)

	var revocation session.RevocationStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for token revocation")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		revocation = redisStore
	} else {
		log.Printf("Using in-memory token revocation")
		revocation = session.NewMemoryStore()
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewScan(docs))

	if strings.TrimSpace(cfg.ModelAPIKey) == "" {
		log.Fatalf("OPENAI_API_KEY is required")
	}
	model, err := genai.NewOpenAIModel(ctx, genai.ModelConfig{
		APIKey:  cfg.ModelAPIKey,
		BaseURL: cfg.ModelBaseURL,
		Model:   cfg.ModelName,
	})
	if err != nil {
		log.Fatalf("model setup failed: %v", err)
	}
	gateway := genai.NewGateway(genai.DefaultConfig(), model, docs)

	templates := catalog.New(cfg.TemplatesDir, cfg.RoleTemplates, docs)
	historyIndex := history.NewIndex(docs)

	service := app.New(cfg, docs, gateway, templates, historyIndex, searchService, revocation)
	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Flowsmith API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// openBackend selects the document store backend from configuration.
func openBackend(ctx context.Context, cfg config.Config) (store.Backend, func(), error) {
	switch cfg.Storage {
	case "minio":
		backend, err := store.NewMinioBackend(ctx, store.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	default:
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		backend := store.NewPostgresBackend(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return backend, func() { db.Close() }, nil
	}
}
