package params

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Engine struct {
	// Asset is the single symbol this node's book trades.
	Asset string
	// SnapshotDepth bounds book depth snapshots and default trade listings.
	SnapshotDepth int
}

type API struct {
	ListenAddr     string
	AllowedOrigins []string
}

type Storage struct {
	// TradeDB is the pebble directory trade history is persisted to.
	TradeDB string
}

type Config struct {
	Engine  Engine
	API     API
	Storage Storage
	LogFile string
}

func Default() Config {
	return Config{
		Engine: Engine{
			Asset:         "BTC-USD",
			SnapshotDepth: 10,
		},
		API: API{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Storage: Storage{
			TradeDB: "data/trades.db",
		},
		LogFile: "data/node.log",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Engine.Asset = getEnv("ASSET", cfg.Engine.Asset)
	cfg.API.ListenAddr = getEnv("API_ADDR", cfg.API.ListenAddr)
	cfg.Storage.TradeDB = getEnv("TRADE_DB", cfg.Storage.TradeDB)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if depth := os.Getenv("SNAPSHOT_DEPTH"); depth != "" {
		if n, err := strconv.Atoi(depth); err == nil && n > 0 {
			cfg.Engine.SnapshotDepth = n
		}
	}

	if origins := os.Getenv("API_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = strings.Split(origins, ",")
	}

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
