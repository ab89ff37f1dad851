// Package main News Highlight API
// @title News Highlight API
// @version 1.0
// @description Selects notable sentences from news articles with several LLM providers and merges them by consensus
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @license.name Apache 2.0
// @license.url https://opensource.org/licenses/Apache-2.0
// @BasePath /
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"

	_ "github.com/DjordjeVuckovic/news-highlight/docs"
	"github.com/DjordjeVuckovic/news-highlight/internal/embedding"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/router"
	"github.com/DjordjeVuckovic/news-highlight/internal/server"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
	pkgserver "github.com/DjordjeVuckovic/news-highlight/pkg/server"
)

func main() {
	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	cfg, err := NewAppConfig().Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)

	providers, err := llm.NewFactory(cfg.LLM).CreateAll()
	if err != nil {
		slog.Error("Failed to create LLM providers", "error", err)
		os.Exit(1)
	}
	if len(providers) == 0 {
		slog.Warn("No LLM provider is configured, analysis endpoints will fail")
	}
	slog.Info("LLM providers ready", "providers", cfg.LLM.Configured())

	providersReady := pkgserver.HealthCheckFunc(func(context.Context) bool {
		return len(providers) > 0
	})

	embedder, err := embedding.NewFromConfig(cfg.EmbeddingConfig)
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)
		os.Exit(1)
	}

	s := server.New(sCfg, providersReady).
		SetupMiddlewares().
		SetupErrorHandler().
		SetupHealthChecks("/health").
		SetupOpenApi("/swagger/*")

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "News Highlight API is running")
	})

	routerOpts := []router.HighlightRouterOption{
		router.WithThresholds(cfg.Thresholds),
		router.WithAnalyzeProvider(cfg.LLM.Default),
		router.WithPromptStore(llm.NewPromptStore(cfg.PromptDirs)),
		router.WithRequestTimeout(s.RequestTimeout()),
	}

	if embedder != nil {
		scorer := similarity.NewSemanticScorer(
			similarity.NewCachedEmbedder(embedder),
			similarity.WithBands(cfg.Bands),
		)
		routerOpts = append(routerOpts, router.WithSemanticMatcher(scorer))
		slog.Info("Semantic similarity enabled", "backend", cfg.EmbeddingConfig.Backend, "model", embedder.Model())
	} else {
		slog.Info("Semantic similarity disabled")
	}

	router.NewHighlightRouter(s.Echo, providers, routerOpts...).Bind()

	go func() {
		<-s.ShutdownSignal()
		slog.Info("Shutdown started, cleaning up resources...")
	}()

	if err := s.Start(); err != nil {
		slog.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
