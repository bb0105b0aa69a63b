package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v2"
)

// Config carries every tunable. Defaults first, then an optional yaml file,
// then environment variables on top.
type Config struct {
	Port     string `yaml:"port"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`

	UploadDir string `yaml:"upload_dir"`
	BatchSize int    `yaml:"batch_size"`

	LowDetailZoom  int   `yaml:"low_detail_zoom"`
	HighDetailZoom int   `yaml:"high_detail_zoom"`
	MaxResults     int64 `yaml:"max_results"`
	DefaultResults int64 `yaml:"default_results"`

	RateLimitPerMin  int `yaml:"rate_limit_per_min"`
	StatsCacheTTLMin int `yaml:"stats_cache_ttl_min"`
}

func defaults() Config {
	return Config{
		Port:             "8080",
		MongoURI:         "mongodb://localhost:27017",
		MongoDB:          "villagemap",
		UploadDir:        os.TempDir(),
		BatchSize:        500,
		LowDetailZoom:    8,
		HighDetailZoom:   12,
		MaxResults:       1000,
		DefaultResults:   200,
		RateLimitPerMin:  120,
		StatsCacheTTLMin: 30,
	}
}

// Load assembles the runtime configuration.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	cfg := defaults()
	path := envOr("CONFIG_FILE", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("config file %s ignored: %v", path, err)
			cfg = defaults()
		} else {
			log.Printf("loaded config from %s", path)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.MongoURI = envOr("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = envOr("MONGO_DB_NAME", cfg.MongoDB)
	cfg.UploadDir = envOr("UPLOAD_DIR", cfg.UploadDir)
	cfg.BatchSize = envIntOr("INGEST_BATCH_SIZE", cfg.BatchSize)
	cfg.LowDetailZoom = envIntOr("LOW_DETAIL_ZOOM", cfg.LowDetailZoom)
	cfg.HighDetailZoom = envIntOr("HIGH_DETAIL_ZOOM", cfg.HighDetailZoom)
	cfg.MaxResults = int64(envIntOr("QUERY_MAX_RESULTS", int(cfg.MaxResults)))
	cfg.DefaultResults = int64(envIntOr("QUERY_DEFAULT_RESULTS", int(cfg.DefaultResults)))
	cfg.RateLimitPerMin = envIntOr("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin)
	cfg.StatsCacheTTLMin = envIntOr("STATS_CACHE_TTL_MIN", cfg.StatsCacheTTLMin)
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
