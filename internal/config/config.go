package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"webnotifier/internal/common"
)

const (
	// Monitor defaults
	DefaultCheckIntervalSeconds = 300
	DefaultHTTPTimeoutSeconds   = 30
	DefaultMaxConcurrentChecks  = 5
	DefaultMaxContentSize       = 2 * 1024 * 1024
	DefaultUserAgent            = "webnotifier/1.0"

	// Notifier defaults
	DefaultSMTPPort      = 587
	DefaultSubjectPrefix = "[webnotifier]"

	// Log defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Storage defaults
	DefaultSQLiteDBPath = "data/webnotifier.db"

	// Diff defaults
	DefaultMaxDiffSizeMB = 5
)

// GlobalConfig aggregates all configuration sections.
type GlobalConfig struct {
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	DiffConfig         DiffConfig         `json:"diff_config,omitempty" yaml:"diff_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	LimiterConfig      LimiterConfig      `json:"limiter_config,omitempty" yaml:"limiter_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		MonitorConfig:      NewDefaultMonitorConfig(),
		DiffConfig:         NewDefaultDiffConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		LogConfig:          NewDefaultLogConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		LimiterConfig:      NewDefaultLimiterConfig(),
	}
}

// MonitorConfig controls the polling loop.
type MonitorConfig struct {
	TargetURLs           []string `json:"target_urls,omitempty" yaml:"target_urls,omitempty" validate:"omitempty,dive,url"`
	CheckIntervalSeconds int      `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	HTTPTimeoutSeconds   int      `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxConcurrentChecks  int      `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	MaxContentSize       int      `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"`
	MaxCycles            int      `json:"max_cycles,omitempty" yaml:"max_cycles,omitempty" validate:"omitempty,min=0"`
	InsecureSkipVerify   bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	UserAgent            string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TargetURLs:           []string{},
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		HTTPTimeoutSeconds:   DefaultHTTPTimeoutSeconds,
		MaxConcurrentChecks:  DefaultMaxConcurrentChecks,
		MaxContentSize:       DefaultMaxContentSize,
		MaxCycles:            0,
		InsecureSkipVerify:   false,
		UserAgent:            DefaultUserAgent,
	}
}

// DiffConfig controls diff generation.
type DiffConfig struct {
	EnableLineBasedDiff   bool `json:"enable_line_based_diff" yaml:"enable_line_based_diff"`
	EnableSemanticCleanup bool `json:"enable_semantic_cleanup" yaml:"enable_semantic_cleanup"`
	ContextLines          int  `json:"context_lines,omitempty" yaml:"context_lines,omitempty" validate:"omitempty,min=0"`
	MaxDiffSizeMB         int  `json:"max_diff_size_mb,omitempty" yaml:"max_diff_size_mb,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultDiffConfig() DiffConfig {
	return DiffConfig{
		EnableLineBasedDiff:   true,
		EnableSemanticCleanup: true,
		ContextLines:          3,
		MaxDiffSizeMB:         DefaultMaxDiffSizeMB,
	}
}

// NotificationConfig holds mailer connection parameters and notification toggles.
type NotificationConfig struct {
	SMTPHost          string   `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty" validate:"omitempty,hostname_rfc1123"`
	SMTPPort          int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPUsername      string   `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword      string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	FromAddress       string   `json:"from_address,omitempty" yaml:"from_address,omitempty" validate:"omitempty,email"`
	Recipients        []string `json:"recipients,omitempty" yaml:"recipients,omitempty" validate:"omitempty,dive,email"`
	SubjectPrefix     string   `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	SendHTML          bool     `json:"send_html" yaml:"send_html"`
	NotifyOnChange    bool     `json:"notify_on_change" yaml:"notify_on_change"`
	NotifyOnFailure   bool     `json:"notify_on_failure" yaml:"notify_on_failure"`
	NotifyOnStartStop bool     `json:"notify_on_start_stop" yaml:"notify_on_start_stop"`
}

func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SMTPPort:          DefaultSMTPPort,
		Recipients:        []string{},
		SubjectPrefix:     DefaultSubjectPrefix,
		SendHTML:          true,
		NotifyOnChange:    true,
		NotifyOnFailure:   true,
		NotifyOnStartStop: false,
	}
}

// Enabled reports whether email delivery is configured at all.
func (nc NotificationConfig) Enabled() bool {
	return nc.SMTPHost != "" && nc.FromAddress != "" && len(nc.Recipients) > 0
}

type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       "",
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

type StorageConfig struct {
	SQLiteDBPath     string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty" validate:"required"`
	StoreFullContent bool   `json:"store_full_content" yaml:"store_full_content"`
}

func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SQLiteDBPath:     DefaultSQLiteDBPath,
		StoreFullContent: true,
	}
}

// LimiterConfig controls the memory watchdog.
type LimiterConfig struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	MaxMemoryMB          int64   `json:"max_memory_mb,omitempty" yaml:"max_memory_mb,omitempty" validate:"omitempty,min=1"`
	SystemMemThreshold   float64 `json:"system_mem_threshold,omitempty" yaml:"system_mem_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	CheckIntervalSeconds int     `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Enabled:              false,
		MaxMemoryMB:          512,
		SystemMemThreshold:   0.9,
		CheckIntervalSeconds: 30,
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// The path is resolved via GetConfigPath; YAML is preferred, JSON is accepted
// by extension. A missing file yields the defaults.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		if providedPath != "" {
			return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
		}
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to read config file")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
