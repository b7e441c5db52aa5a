package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	BasePath string

	// Reconciliation defaults; a run configuration file can override both.
	MatchThreshold  float64
	ReviewThreshold float64
	WorkerCount     int
	RunConfigPath   string

	// Concurrency gate: max tool invocations in flight against shared
	// downstream connectors.
	GatePermits int

	// Source/target connectors (optional; connectors can also be
	// registered programmatically or records supplied inline). Each side
	// is either SQL (DSN + table) or REST (endpoint), never both.
	SourceDSN      string
	SourceTable    string
	SourceEndpoint string
	SourceIDField  string
	TargetDSN      string
	TargetTable    string
	TargetEndpoint string
	TargetIDField  string

	// Database performance settings
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime int // minutes
	DBReadTimeout     time.Duration
	DBWriteTimeout    time.Duration

	// Optional report summarizer (disabled when key is empty)
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAITimeout time.Duration

	// Optional address canonicalization before matching
	GoogleMapsAPIKey string

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Audit sink ("sql" or "none")
	AuditSink string
}

func Load() *Config {
	matchThreshold, _ := strconv.ParseFloat(getEnv("MATCH_THRESHOLD", "90"), 64)
	reviewThreshold, _ := strconv.ParseFloat(getEnv("REVIEW_THRESHOLD", "60"), 64)
	workerCount, _ := strconv.Atoi(getEnv("WORKER_COUNT", "0")) // 0 = use default
	gatePermits, _ := strconv.Atoi(getEnv("GATE_PERMITS", "4"))

	dbMaxOpenConns, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	dbMaxIdleConns, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "10"))
	dbConnMaxLifetime, _ := strconv.Atoi(getEnv("DB_CONN_MAX_LIFETIME_MINUTES", "10"))
	dbReadTO, _ := time.ParseDuration(getEnv("DB_READ_TIMEOUT", "8s"))
	dbWriteTO, _ := time.ParseDuration(getEnv("DB_WRITE_TIMEOUT", "6s"))

	openAITimeoutSec, _ := strconv.Atoi(getEnv("OPENAI_REQUEST_TIMEOUT_SECONDS", "60"))

	return &Config{
		Port:     getEnv("PORT", "8080"),
		BasePath: getEnv("BASE_PATH", "/"),

		MatchThreshold:  matchThreshold,
		ReviewThreshold: reviewThreshold,
		WorkerCount:     workerCount,
		RunConfigPath:   getEnv("RUN_CONFIG_PATH", "reconciliation.yaml"),
		GatePermits:     gatePermits,

		SourceDSN:      getEnv("SOURCE_DSN", ""),
		SourceTable:    getEnv("SOURCE_TABLE", ""),
		SourceEndpoint: getEnv("SOURCE_ENDPOINT", ""),
		SourceIDField:  getEnv("SOURCE_ID_FIELD", "id"),
		TargetDSN:      getEnv("TARGET_DSN", ""),
		TargetTable:    getEnv("TARGET_TABLE", ""),
		TargetEndpoint: getEnv("TARGET_ENDPOINT", ""),
		TargetIDField:  getEnv("TARGET_ID_FIELD", "id"),

		DBMaxOpenConns:    dbMaxOpenConns,
		DBMaxIdleConns:    dbMaxIdleConns,
		DBConnMaxLifetime: dbConnMaxLifetime,
		DBReadTimeout:     dbReadTO,
		DBWriteTimeout:    dbWriteTO,

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: time.Duration(openAITimeoutSec) * time.Second,

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		AuditSink: getEnv("AUDIT_SINK", "none"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
