package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"seo-agent/ai"
	"seo-agent/cache"
	"seo-agent/config"
	"seo-agent/crawler"
	"seo-agent/logging"
	"seo-agent/tools"
)

// chatAgent answers one chat message.
type chatAgent interface {
	Run(ctx context.Context, message string) (*ai.Result, error)
}

type Server struct {
	router   *gin.Engine
	settings *config.Settings
	agent    chatAgent
	registry *tools.Registry
	cache    *cache.Store
	logger   logging.Logger
}

func main() {
	logger := logging.NewLogger()
	config.LoadEnv(logger)
	settings := config.Load()

	server, err := buildServer(settings, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.WithError(err).Fatal("Server stopped with error")
	}
}

// buildServer wires fetchers, the crawler, the tool registry and the agent
// from settings.
func buildServer(settings *config.Settings, logger logging.Logger) (*Server, error) {
	fetcher := crawler.NewHTTPFetcher(crawler.FetcherOptions{
		UserAgent:      settings.Crawler.UserAgent,
		Timeout:        settings.Crawler.Timeout,
		MaxAttempts:    settings.Crawler.MaxRetries,
		RetryBaseDelay: settings.Crawler.RetryBaseDelay,
		MaxBodyBytes:   settings.Crawler.MaxBodyBytes,
		Limiter:        crawler.NewHostLimiter(settings.Crawler.RequestsPerSecond, 1),
		Logger:         logger,
	})
	siteCrawler, err := crawler.New(fetcher, crawlerConfig(settings.Crawler), crawler.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("crawler: %w", err)
	}

	store, err := cache.NewStore(settings.Cache.Dir, settings.Cache.TTL, settings.Cache.Enabled, logger)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	store.CleanExpired()

	pageFetcher := crawler.NewPageFetcherWithBackend(
		settings.Scraper.UseColly,
		settings.Scraper.UserAgent,
		settings.Scraper.Timeout,
		crawler.CollyConfig{
			UserAgent:   settings.Colly.UserAgent,
			Delay:       settings.Colly.Delay,
			RandomDelay: settings.Colly.RandomDelay,
			Parallelism: settings.Colly.Parallelism,
			DomainGlob:  settings.Colly.DomainGlob,
			DebugMode:   settings.Colly.DebugMode,
		},
	)

	registry := tools.NewRegistry(logger)
	if err := registry.Register(tools.NewScrapers(pageFetcher, settings.Scraper.Timeout, logger).Tools()...); err != nil {
		return nil, err
	}
	if err := registry.Register(
		tools.NewSSLChecker(settings.Scraper.Timeout, logger).Tool(),
		tools.NewClassifiedCrawl(siteCrawler, store, logger).Tool(),
	); err != nil {
		return nil, err
	}

	if settings.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY / GEMINI_API_KEY not set; chat requests will fail upstream")
	}
	provider, err := ai.NewProvider(ai.Config{
		Provider: settings.LLM.Provider,
		Model:    settings.LLM.Model,
		APIKey:   settings.LLM.APIKey,
		APIURL:   settings.LLM.APIURL,
		Timeout:  settings.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	agent, err := ai.NewAgent(ai.AgentConfig{
		Provider:      provider,
		Toolbox:       registry,
		Logger:        logger,
		MaxRounds:     settings.LLM.MaxToolRounds,
		MaxToolOutput: settings.LLM.MaxToolOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	return NewServer(settings, agent, registry, store, logger), nil
}

func crawlerConfig(settings config.CrawlerConfig) crawler.Config {
	cfg := crawler.DefaultConfig()
	cfg.BatchSize = settings.BatchSize
	cfg.DelayMin = settings.DelayMin
	cfg.DelayMax = settings.DelayMax
	cfg.MaxPages = settings.MaxPages
	cfg.MaxDuration = settings.MaxDuration
	cfg.RecordFailures = settings.RecordFailures
	if len(settings.ExcludePatterns) > 0 {
		cfg.ExcludePatterns = settings.ExcludePatterns
	}
	if len(settings.FileExtensions) > 0 {
		cfg.FileExtensions = settings.FileExtensions
	}
	return cfg
}

func NewServer(settings *config.Settings, agent chatAgent, registry *tools.Registry, store *cache.Store, logger logging.Logger) *Server {
	if settings.Server.GinMode != "" {
		gin.SetMode(settings.Server.GinMode)
	}

	r := gin.New()
	r.Use(requestIDMiddleware())
	r.Use(loggingMiddleware(logger))
	r.Use(recoveryMiddleware(logger))
	r.Use(corsMiddleware())

	s := &Server{
		router:   r,
		settings: settings,
		agent:    agent,
		registry: registry,
		cache:    store,
		logger:   logger,
	}
	s.SetupRoutes()
	return s
}

func (s *Server) SetupRoutes() {
	s.router.GET("/", s.infoHandler)
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api")
	api.GET("/chat", s.infoHandler)
	api.POST("/chat", s.chatHandler)
	api.GET("/tools", s.listToolsHandler)
	api.POST("/tools/:name", s.invokeToolHandler)
}

// Run serves until ctx is canceled, then drains in-flight requests for up to
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.settings.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.settings.Server.ReadTimeout,
		WriteTimeout: s.settings.Server.WriteTimeout,
		IdleTimeout:  s.settings.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logging.Fields{
			"port":  s.settings.Server.Port,
			"tools": s.registry.Names(),
		}).Info("Starting SEO agent server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}
