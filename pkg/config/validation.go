package config

import (
	"fmt"
	"strconv"
	"strings"

	errs "record-reconciliation/pkg/errors"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error for field '%s' with value '%s': %s", e.Field, e.Value, e.Message)
}

type validator struct {
	errors []ValidationError
}

func (v *validator) add(field, value, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: message})
}

// Validate checks the process configuration at startup. Run-configuration
// files have their own validation; this covers only the environment side.
func (c *Config) Validate() error {
	v := &validator{}

	if c.Port == "" {
		v.add("PORT", c.Port, "port is required")
	} else if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		v.add("PORT", c.Port, "invalid port number (must be 1-65535)")
	}

	if c.ReviewThreshold < 0 || c.MatchThreshold > 100 || c.ReviewThreshold > c.MatchThreshold {
		v.add("MATCH_THRESHOLD/REVIEW_THRESHOLD",
			fmt.Sprintf("%.2f/%.2f", c.MatchThreshold, c.ReviewThreshold),
			"thresholds must satisfy 0 <= review <= match <= 100")
	}

	if c.WorkerCount < 0 || c.WorkerCount > 100 {
		v.add("WORKER_COUNT", strconv.Itoa(c.WorkerCount), "worker count must be between 0 and 100")
	}
	if c.GatePermits < 1 || c.GatePermits > 100 {
		v.add("GATE_PERMITS", strconv.Itoa(c.GatePermits), "gate permits must be between 1 and 100")
	}

	if c.RunConfigPath == "" {
		v.add("RUN_CONFIG_PATH", c.RunConfigPath, "run configuration path is required")
	}

	// A SQL connector needs both a DSN and a table; a side is either SQL
	// or REST, never both, since each registers under the same name.
	if (c.SourceDSN == "") != (c.SourceTable == "") {
		v.add("SOURCE_DSN/SOURCE_TABLE", c.SourceTable, "source DSN and table must be set together")
	}
	if (c.TargetDSN == "") != (c.TargetTable == "") {
		v.add("TARGET_DSN/TARGET_TABLE", c.TargetTable, "target DSN and table must be set together")
	}
	if c.SourceDSN != "" && c.SourceEndpoint != "" {
		v.add("SOURCE_DSN/SOURCE_ENDPOINT", c.SourceEndpoint, "source cannot be both SQL and REST")
	}
	if c.TargetDSN != "" && c.TargetEndpoint != "" {
		v.add("TARGET_DSN/TARGET_ENDPOINT", c.TargetEndpoint, "target cannot be both SQL and REST")
	}
	if c.AuditSink == "sql" && c.SourceDSN == "" {
		v.add("AUDIT_SINK", c.AuditSink, "the sql audit sink requires SOURCE_DSN")
	} else if c.AuditSink != "sql" && c.AuditSink != "none" {
		v.add("AUDIT_SINK", c.AuditSink, "audit sink must be 'sql' or 'none'")
	}

	if c.DBMaxOpenConns < 1 || c.DBMaxOpenConns > 1000 {
		v.add("DB_MAX_OPEN_CONNS", strconv.Itoa(c.DBMaxOpenConns), "max open connections must be between 1 and 1000")
	}
	if c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		v.add("DB_MAX_IDLE_CONNS", strconv.Itoa(c.DBMaxIdleConns), "max idle connections must be between 0 and max open connections")
	}
	if c.DBConnMaxLifetime < 1 || c.DBConnMaxLifetime > 60 {
		v.add("DB_CONN_MAX_LIFETIME_MINUTES", strconv.Itoa(c.DBConnMaxLifetime), "connection max lifetime must be between 1 and 60 minutes")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		v.add("LOG_LEVEL", c.LogLevel, "invalid log level (must be one of: debug, info, warn, error)")
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		v.add("LOG_FORMAT", c.LogFormat, "invalid log format (must be 'json' or 'text')")
	}

	if len(v.errors) > 0 {
		msgs := make([]string, len(v.errors))
		for i, e := range v.errors {
			msgs[i] = e.Error()
		}
		return errs.NewConfig("config.Validate", errs.CodeInvalidRuleSet,
			fmt.Sprintf("configuration validation failed:\n%s", strings.Join(msgs, "\n")),
			"fix the listed environment variables and restart")
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Summary returns the configuration for startup logging with credentials
// masked.
func (c *Config) Summary() map[string]interface{} {
	return map[string]interface{}{
		"port":             c.Port,
		"match_threshold":  c.MatchThreshold,
		"review_threshold": c.ReviewThreshold,
		"worker_count":     c.WorkerCount,
		"gate_permits":     c.GatePermits,
		"run_config_path":  c.RunConfigPath,
		"source_dsn":       maskString(c.SourceDSN, 12),
		"source_endpoint":  c.SourceEndpoint,
		"target_dsn":       maskString(c.TargetDSN, 12),
		"target_endpoint":  c.TargetEndpoint,
		"openai_api_key":   maskString(c.OpenAIAPIKey, 6),
		"maps_api_key":     maskString(c.GoogleMapsAPIKey, 6),
		"audit_sink":       c.AuditSink,
		"log_level":        c.LogLevel,
		"log_format":       c.LogFormat,
	}
}

// maskString masks sensitive strings for logging/display
func maskString(s string, keepFirst int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepFirst {
		return strings.Repeat("*", len(s))
	}
	return s[:keepFirst] + strings.Repeat("*", len(s)-keepFirst)
}
