package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cellscraper/config"
	"cellscraper/internal/export"
	"cellscraper/internal/fetch"
	"cellscraper/internal/listing"
	"cellscraper/internal/parse"
	"cellscraper/logger"
	"cellscraper/services/cache"
	"cellscraper/services/pipeline"
	"cellscraper/services/publisher"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("search_url", cfg.SearchURL).
		Bool("scrape_links", cfg.ScrapeLinks).
		Bool("refresh_prices", cfg.RefreshPrices).
		Msg("Starting scraper")

	// Set up context cancelled by shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services := initializeServices(ctx, &cfg)
	defer services.Cleanup()

	fetcher := fetch.NewFetcher(cfg.FetchTimeout, cfg.BlockTime, services.Cache)
	parser := parse.NewPageParser(&cfg)
	exporter := export.NewExporter(cfg.OutputDir)

	p := pipeline.New(&cfg, fetcher.Fetch, parser, exporter, services.Publisher)

	var browser listing.Browser
	if cfg.ScrapeLinks {
		browser = listing.NewChromeBrowser(ctx, &cfg)
	}

	if err := p.Run(ctx, browser); err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}

	log.Info().Msg("Done")
}

// Services holds the optional external services
type Services struct {
	Cache     cache.CacheService
	Publisher pipeline.RecordPublisher
}

// Cleanup closes service connections
func (s *Services) Cleanup() {
	if closer, ok := s.Publisher.(publisher.Publisher); ok {
		closer.Close()
	}
}

// initializeServices wires the cache and the optional publisher. Both fall
// back gracefully: an in-memory cache when memcached is not configured, no
// publisher when Redis is not configured.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		services.Cache = cache.NewMemoryService()
		logger.Info("Using in-process cache")
	}

	if cfg.RedisAddr != "" {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Publishing records to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services
}
