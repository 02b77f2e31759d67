package config

import (
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Port        string
	DataDir     string  // Directory holding the JSON artifacts
	DBPath      string  // SQLite mirror, preferred when the file exists
	JWTSecret   string  // Empty disables the admin routes
	AliasFile   string  // Optional TOML column alias overrides
	SourceName  string  // Overrides meta.source
	GridSpacing float64 // Default retention grid spacing in plane units
	RateLimit   float64 // Requests per second per client
	RateBurst   int
	TokenTTL    time.Duration
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/flowmap"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/flowmap/flowmap.db"
	}

	return &Config{
		Port:        port,
		DataDir:     dataDir,
		DBPath:      dbPath,
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AliasFile:   os.Getenv("ALIAS_FILE"),
		SourceName:  os.Getenv("SOURCE_NAME"),
		GridSpacing: floatEnv("GRID_SPACING", 6),
		RateLimit:   floatEnv("RATE_LIMIT", 30),
		RateBurst:   intEnv("RATE_BURST", 60),
		TokenTTL:    12 * time.Hour,
	}
}

// floatEnv 读取正浮点数环境变量，无效时使用默认值
func floatEnv(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || !(v > 0) {
		return def
	}
	return v
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
