// Package main is the agora debate-engine server: it wires persistence,
// the provider registry, the quality pipeline, the per-debate orchestrator,
// and the HTTP surface into one running process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agora-debate/agora/pkg/api"
	"github.com/agora-debate/agora/pkg/config"
	"github.com/agora-debate/agora/pkg/database"
	"github.com/agora-debate/agora/pkg/embedder"
	"github.com/agora-debate/agora/pkg/embedder/openaiembedder"
	"github.com/agora-debate/agora/pkg/embedder/stubembedder"
	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/orchestrator"
	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/provider/anthropicprovider"
	"github.com/agora-debate/agora/pkg/provider/googleprovider"
	"github.com/agora-debate/agora/pkg/provider/mistralprovider"
	"github.com/agora-debate/agora/pkg/provider/openaiprovider"
	"github.com/agora-debate/agora/pkg/provider/stubprovider"
	"github.com/agora-debate/agora/pkg/quality"
	"github.com/agora-debate/agora/pkg/store"
	"github.com/agora-debate/agora/pkg/vectorstore"
	"github.com/agora-debate/agora/pkg/vectorstore/memstore"
	"github.com/agora-debate/agora/pkg/vectorstore/qdrantstore"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	configPath := flag.String("config", getEnv("AGORA_CONFIG_FILE", ""), "Path to the agora.yaml configuration file")
	flag.Parse()

	addr := ":" + getEnv("HTTP_PORT", "8080")

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	slog.Info("connected to database")

	conversations := store.NewConversationStore(dbClient)
	messages := store.NewMessageStore(dbClient)
	judges := store.NewJudgeStore(dbClient)
	contradictions := store.NewContradictionStore(dbClient)
	loops := store.NewLoopStore(dbClient)
	healthStore := store.NewHealthStore(dbClient)
	eventStore := store.NewEventStore(dbClient)
	citations := store.NewCitationStore(dbClient)
	embeddings := store.NewEmbeddingStore(dbClient)

	providers := buildProviderRegistry(ctx, cfg)
	emb := buildEmbedder()
	vs := buildVectorStore()
	defer func() {
		if err := vs.Close(); err != nil {
			slog.Error("failed to close vector store", "error", err)
		}
	}()

	judgeCompleter := judgeCompletionProvider(providers)

	pipeline := quality.NewPipeline(
		&quality.ContradictionAnalyzer{
			Embedder:       emb,
			VectorStore:    vs,
			EmbeddingStore: embeddings,
			Contradictions: contradictions,
			Completer:      judgeCompleter,
		},
		&quality.LoopAnalyzer{
			Loops:     loops,
			Completer: judgeCompleter,
		},
		&quality.HealthScorer{
			Contradictions: contradictions,
			Loops:          loops,
			Citations:      citations,
			Health:         healthStore,
			Conversations:  conversations,
			Weights:        cfg.Health,
		},
	)

	eventRegistry := events.NewRegistry()

	manager := orchestrator.NewManager(orchestrator.Deps{
		Conversations: conversations,
		Messages:      messages,
		Judges:        judges,
		Events:        eventStore,
		EventRegistry: eventRegistry,
		Providers:     providers,
		Pipeline:      pipeline,
		TurnDeadline:  cfg.Runtime.TurnDeadline,
	})

	server := api.NewServer(api.Deps{
		DB:             dbClient,
		Conversations:  conversations,
		Messages:       messages,
		Judges:         judges,
		Contradictions: contradictions,
		Loops:          loops,
		Health:         healthStore,
		Events:         eventStore,
		EventRegistry:  eventRegistry,
		Orchestrator:   manager,
	})
	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("server wiring incomplete: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- server.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	case <-sigCh:
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}
}

// buildProviderRegistry constructs one backend per configured provider
// entry. A backend that fails to construct (e.g. a Google provider whose
// client setup errors) is logged and skipped rather than aborting startup,
// since a debate that never routes to it will simply never be created.
func buildProviderRegistry(ctx context.Context, cfg *config.Config) *provider.Registry {
	registry := provider.NewRegistry()
	for name, p := range cfg.Providers {
		backend, err := buildProviderBackend(ctx, p)
		if err != nil {
			slog.Error("skipping provider", "provider", name, "error", err)
			continue
		}
		registry.Register(name, backend, p.ModelPrefixes...)
	}
	return registry
}

func buildProviderBackend(ctx context.Context, p config.ProviderConfig) (provider.Provider, error) {
	var apiKey string
	if p.APIKeyEnv != "" {
		apiKey = os.Getenv(p.APIKeyEnv)
	}
	var baseURL string
	if p.BaseURLEnv != "" {
		baseURL = os.Getenv(p.BaseURLEnv)
	}

	switch p.Type {
	case "openai":
		if baseURL != "" {
			return openaiprovider.NewWithBaseURL(apiKey, baseURL), nil
		}
		return openaiprovider.New(apiKey), nil
	case "anthropic":
		return anthropicprovider.New(apiKey), nil
	case "google":
		return googleprovider.New(ctx, apiKey)
	case "mistral":
		if baseURL != "" {
			return mistralprovider.NewWithBaseURL(apiKey, baseURL), nil
		}
		return mistralprovider.New(apiKey), nil
	case "stub":
		return stubprovider.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", p.Type)
	}
}

// judgeCompletionProvider resolves the fixed, cheap model the quality
// pipeline's opposition and loop-intervention checks run against. Falling
// back to the stub provider keeps the pipeline itself functional (loops
// and health still score without it) when no matching backend is
// configured, rather than failing every turn's quality pass outright.
func judgeCompletionProvider(providers *provider.Registry) provider.Provider {
	const judgeModel = "gpt-4o-mini"
	p, err := providers.Resolve(judgeModel)
	if err != nil {
		slog.Warn("no provider registered for the quality pipeline's judge model; falling back to the stub provider",
			"model", judgeModel, "error", err)
		return stubprovider.New()
	}
	return p
}

func buildEmbedder() embedder.Embedder {
	if getEnv("AGORA_EMBEDDER_BACKEND", "stub") == "openai" {
		return openaiembedder.New(os.Getenv("AGORA_OPENAI_API_KEY"))
	}
	return stubembedder.New()
}

func buildVectorStore() vectorstore.VectorStore {
	if getEnv("AGORA_VECTORSTORE_BACKEND", "memory") == "qdrant" {
		dsn := getEnv("AGORA_QDRANT_DSN", "localhost:6334")
		collection := getEnv("AGORA_QDRANT_COLLECTION", "agora_messages")
		vs, err := qdrantstore.New(dsn, collection, embedder.Dimension, "cosine")
		if err != nil {
			log.Fatalf("failed to connect to qdrant: %v", err)
		}
		return vs
	}
	return memstore.New(embedder.Dimension)
}
