package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Settings struct {
	Server  ServerConfig
	Crawler CrawlerConfig
	Scraper ScraperConfig
	Colly   CollyConfig
	LLM     LLMConfig
	Cache   CacheConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	ChatTimeout     time.Duration
	DegradedReplies bool
	GinMode         string
}

type CrawlerConfig struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	BatchSize         int
	DelayMin          time.Duration
	DelayMax          time.Duration
	MaxPages          int
	MaxDuration       time.Duration
	MaxBodyBytes      int64
	RequestsPerSecond float64
	RecordFailures    bool
	ExcludePatterns   []string
	FileExtensions    []string
}

type ScraperConfig struct {
	UserAgent string
	Timeout   time.Duration
	UseColly  bool
}

type CollyConfig struct {
	UserAgent   string
	Delay       time.Duration
	RandomDelay time.Duration
	Parallelism int
	DomainGlob  string
	DebugMode   bool
}

type LLMConfig struct {
	Provider      string
	Model         string
	APIKey        string
	APIURL        string
	Timeout       time.Duration
	MaxToolRounds int
	MaxToolOutput int
}

type CacheConfig struct {
	Enabled bool
	Dir     string
	TTL     time.Duration
}

// LoadEnv loads .env files from the working directory, later files
// overriding earlier ones. Missing files are ignored.
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env", ".env.local"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
		return
	}
	logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
}

func Load() *Settings {
	return &Settings{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8081"),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 11*time.Minute),
			IdleTimeout:     getDurationEnv("IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
			ChatTimeout:     getDurationEnv("CHAT_TIMEOUT", 10*time.Minute),
			DegradedReplies: getBoolEnv("CHAT_DEGRADED_REPLIES", false),
			GinMode:         getEnv("GIN_MODE", "release"),
		},
		Crawler: CrawlerConfig{
			UserAgent:         getEnv("CRAWL_USER_AGENT", "Mozilla/5.0 (compatible; SEOAgentBot/1.0)"),
			Timeout:           getDurationEnv("CRAWL_TIMEOUT", 10*time.Second),
			MaxRetries:        getIntEnv("CRAWL_MAX_RETRIES", 3),
			RetryBaseDelay:    getDurationEnv("CRAWL_RETRY_BASE_DELAY", time.Second),
			BatchSize:         getIntEnv("CRAWL_BATCH_SIZE", 50),
			DelayMin:          getDurationEnv("CRAWL_DELAY_MIN", time.Second),
			DelayMax:          getDurationEnv("CRAWL_DELAY_MAX", 3*time.Second),
			MaxPages:          getIntEnv("CRAWL_MAX_PAGES", 500),
			MaxDuration:       getDurationEnv("CRAWL_MAX_DURATION", 5*time.Minute),
			MaxBodyBytes:      int64(getIntEnv("CRAWL_MAX_BODY_BYTES", 5*1024*1024)),
			RequestsPerSecond: getFloatEnv("CRAWL_REQUESTS_PER_SECOND", 0),
			RecordFailures:    getBoolEnv("CRAWL_RECORD_FAILURES", false),
			ExcludePatterns:   getListEnv("CRAWL_EXCLUDE_PATTERNS", nil),
			FileExtensions:    getListEnv("CRAWL_FILE_EXTENSIONS", nil),
		},
		Scraper: ScraperConfig{
			UserAgent: getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (compatible; SEOAgentBot/1.0)"),
			Timeout:   getDurationEnv("SCRAPER_TIMEOUT", 10*time.Second),
			UseColly:  getBoolEnv("COLLY_ENABLED", false),
		},
		Colly: CollyConfig{
			UserAgent:   getEnv("COLLY_USER_AGENT", "Mozilla/5.0 (compatible; SEOAgentBot-Colly/1.0)"),
			Delay:       getDurationEnv("COLLY_DELAY", 0),
			RandomDelay: getDurationEnv("COLLY_RANDOM_DELAY", 0),
			Parallelism: getIntEnv("COLLY_PARALLELISM", 1),
			DomainGlob:  getEnv("COLLY_DOMAIN_GLOB", "*"),
			DebugMode:   getBoolEnv("COLLY_DEBUG", false),
		},
		LLM: LLMConfig{
			Provider:      getEnv("LLM_PROVIDER", "gemini"),
			Model:         getEnv("LLM_MODEL", "gemini-2.0-flash"),
			APIKey:        getEnv("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
			APIURL:        getEnv("LLM_API_URL", ""),
			Timeout:       getDurationEnv("LLM_TIMEOUT", 60*time.Second),
			MaxToolRounds: getIntEnv("LLM_MAX_TOOL_ROUNDS", 6),
			MaxToolOutput: getIntEnv("LLM_MAX_TOOL_OUTPUT", 20000),
		},
		Cache: CacheConfig{
			Enabled: getBoolEnv("CACHE_ENABLED", true),
			Dir:     getEnv("CACHE_DIR", "./cache"),
			TTL:     getDurationEnv("CACHE_TTL", time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
