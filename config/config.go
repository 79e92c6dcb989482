package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Selectors holds the CSS class names the target site currently uses. This is
// the one surface of the scraper that is coupled to the vendor's markup.
type Selectors struct {
	// Listing / search results page
	ResultCard   string
	CardName     string
	CardLink     string
	NextWrapper  string
	NextButton   string
	CookieButton string

	// Product page
	BasicInfoCol  string
	InfoTitle     string
	InfoData      string
	AccordionItem string
	InfoList      string
	ImageGallery  string
	PriceCurrent  string
}

// DefaultSelectors returns the selector table for the vendor site as of the
// last markup audit.
func DefaultSelectors() Selectors {
	return Selectors{
		ResultCard:   "coveo-list-layout",
		CardName:     "product-search-listing-card__name",
		CardLink:     "CoveoResultLink",
		NextWrapper:  "pagination__page--next",
		NextButton:   "pagination__button",
		CookieButton: "Use necessary cookies",

		BasicInfoCol:  "pdp-page-two-columns__col-1",
		InfoTitle:     "product-information__title",
		InfoData:      "product-information__data",
		AccordionItem: "generic-accordion__item-title-text",
		InfoList:      "product-information__list",
		ImageGallery:  "modal-image-gallery__open-modal",
		PriceCurrent:  "product-pricing__current-price",
	}
}

// Config represents the application configuration
type Config struct {
	// Target site
	BaseURL      string
	SearchURL    string
	CellsPerPage int
	Selectors    Selectors

	// Timeouts and waits
	PageLoadTimeout time.Duration
	StandardWait    time.Duration
	LastPageWait    time.Duration
	FetchTimeout    time.Duration

	// Output paths
	LinksFile  string
	OutputDir  string
	MergedFile string

	// Run behavior
	ScrapeLinks   bool
	ForceRefresh  bool
	RefreshPrices bool
	ResumeFrom    string
	Headless      bool

	// Fetch block cache (optional memcache)
	MemcacheAddr string
	BlockTime    time.Duration

	// Record publisher (optional redis stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	baseURL := getEnv("BASE_URL", "https://www.atcc.org")
	perPage, _ := strconv.Atoi(getEnv("CELLS_PER_PAGE", "48"))
	pageLoadTimeout, _ := strconv.Atoi(getEnv("PAGE_LOAD_TIMEOUT_SECONDS", "10"))
	standardWait, _ := strconv.Atoi(getEnv("STANDARD_WAIT_SECONDS", "10"))
	lastPageWait, _ := strconv.Atoi(getEnv("LAST_PAGE_WAIT_SECONDS", "60"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "10"))
	blockTime, _ := strconv.Atoi(getEnv("BLOCK_SECONDS", "300"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	redisStreamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))

	defaultSearch := fmt.Sprintf(
		"%s/cell-products/animal-cells#t=productTab&numberOfResults=%d&f:Productcategory=[Animal%%20cells]",
		baseURL, perPage,
	)

	return Config{
		BaseURL:      baseURL,
		SearchURL:    getEnv("SEARCH_URL", defaultSearch),
		CellsPerPage: perPage,
		Selectors:    DefaultSelectors(),

		PageLoadTimeout: time.Duration(pageLoadTimeout) * time.Second,
		StandardWait:    time.Duration(standardWait) * time.Second,
		LastPageWait:    time.Duration(lastPageWait) * time.Second,
		FetchTimeout:    time.Duration(fetchTimeout) * time.Second,

		LinksFile:  getEnv("LINKS_FILE", "output_data/cell_names_links.json"),
		OutputDir:  getEnv("OUTPUT_DIR", "output_data/cell_protocols"),
		MergedFile: getEnv("MERGED_FILE", "output_data/cell_protocols.json"),

		ScrapeLinks:   getEnvBool("SCRAPE_LINKS", true),
		ForceRefresh:  getEnvBool("FORCE_REFRESH", false),
		RefreshPrices: getEnvBool("REFRESH_PRICES", false),
		ResumeFrom:    getEnv("RESUME_FROM", ""),
		Headless:      getEnvBool("HEADLESS", true),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),
		BlockTime:    time.Duration(blockTime) * time.Second,

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "cellprotocols"),
		RedisStreamCount:     redisStreamCount,
		RedisStreamMaxLength: redisStreamMaxLen,

		Environment: getEnv("CELLSCRAPER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the run cannot proceed without.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL must not be empty")
	}
	if c.SearchURL == "" {
		return fmt.Errorf("SEARCH_URL must not be empty")
	}
	if c.CellsPerPage <= 0 {
		return fmt.Errorf("CELLS_PER_PAGE must be positive, got %d", c.CellsPerPage)
	}
	if c.LinksFile == "" || c.OutputDir == "" || c.MergedFile == "" {
		return fmt.Errorf("output paths must not be empty")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
