package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the entire socsentry configuration.
type Config struct {
	Bus        BusConfig        `yaml:"bus"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Phishing   PhishingConfig   `yaml:"phishing"`
	AuthWatch  AuthWatchConfig  `yaml:"authwatch"`
	Risk       RiskConfig       `yaml:"risk"`
	Collectors CollectorsConfig `yaml:"collectors"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BusConfig holds NATS event bus settings.
type BusConfig struct {
	URL      string `yaml:"url"`
	Embedded bool   `yaml:"embedded"`
	DataDir  string `yaml:"data_dir"`
	Port     int    `yaml:"port"`
}

// AlertConfig holds alert pipeline settings.
type AlertConfig struct {
	MaxStore      int      `yaml:"max_store"`
	EnableConsole bool     `yaml:"enable_console"`
	WebhookURLs   []string `yaml:"webhook_urls"`
	// Dedupe suppresses repeated alerts for the same (kind, source) pair
	// within DedupeTTLSeconds. Off by default: the brute force tracker is a
	// continuous alarm and re-fires on every qualifying failure.
	Dedupe           bool `yaml:"dedupe"`
	DedupeTTLSeconds int  `yaml:"dedupe_ttl_seconds"`
	// RecentEvents caps the live-mode ring buffer of raw auth events.
	RecentEvents int `yaml:"recent_events"`
}

// PhishingConfig holds the phishing scorer's tunables.
type PhishingConfig struct {
	// Brands is the reference list used for impersonation and typosquat checks.
	Brands []string `yaml:"brands"`
	// TyposquatThreshold is the similarity ratio above which a non-exact
	// brand match is flagged. 0.75 matches the original SOC ruleset.
	TyposquatThreshold float64 `yaml:"typosquat_threshold"`
	// Weights overrides individual feature weights by flag name. Unset flags
	// keep their built-in weight; reason order always follows the built-in
	// table order regardless of overrides.
	Weights map[string]int `yaml:"weights"`
}

// AuthWatchConfig holds the tracker thresholds.
type AuthWatchConfig struct {
	BruteForceThreshold  int `yaml:"bruteforce_threshold"`
	WindowSeconds        int `yaml:"window_seconds"`
	CorrelationThreshold int `yaml:"correlation_threshold"`
}

// Window returns the brute force sliding window as a duration.
func (c AuthWatchConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// RiskConfig holds the combined risk scoring weights and tier cutoffs.
type RiskConfig struct {
	PhishingWeight   int `yaml:"phishing_weight"`
	SuspiciousWeight int `yaml:"suspicious_weight"`
	LowRiskWeight    int `yaml:"low_risk_weight"`
	BruteForcePer    int `yaml:"bruteforce_per_alert"`
	BruteForceCap    int `yaml:"bruteforce_cap"`
	Correlation      int `yaml:"correlation_weight"`
	CriticalCutoff   int `yaml:"critical_cutoff"`
	HighCutoff       int `yaml:"high_cutoff"`
	MediumCutoff     int `yaml:"medium_cutoff"`
}

// CollectorConfig holds settings for a single collector instance.
type CollectorConfig struct {
	Type    string `yaml:"type"`     // "authlog"
	LogPath string `yaml:"log_path"` // path to the log file to tail
	Tag     string `yaml:"tag"`      // optional tag for source identification
}

// CollectorsConfig holds the top-level collectors configuration.
type CollectorsConfig struct {
	Enabled bool              `yaml:"enabled"`
	Sources []CollectorConfig `yaml:"sources"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sane defaults — zero-config works out of the box.
func DefaultConfig() *Config {
	return &Config{
		Bus: BusConfig{
			URL:      "nats://127.0.0.1:4222",
			Embedded: true,
			DataDir:  "./data/nats",
			Port:     4222,
		},
		Alerts: AlertConfig{
			MaxStore:         10000,
			EnableConsole:    true,
			Dedupe:           false,
			DedupeTTLSeconds: 60,
			RecentEvents:     200,
		},
		Phishing: PhishingConfig{
			Brands:             []string{"paypal", "facebook", "instagram", "amazon", "microsoft", "google"},
			TyposquatThreshold: 0.75,
		},
		AuthWatch: AuthWatchConfig{
			BruteForceThreshold:  3,
			WindowSeconds:        60,
			CorrelationThreshold: 3,
		},
		Risk: RiskConfig{
			PhishingWeight:   45,
			SuspiciousWeight: 25,
			LowRiskWeight:    10,
			BruteForcePer:    15,
			BruteForceCap:    30,
			Correlation:      30,
			CriticalCutoff:   90,
			HighCutoff:       60,
			MediumCutoff:     30,
		},
		Collectors: CollectorsConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to defaults.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LogLevel returns the parsed log level string.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.Logging.Level)
}

// DedupeTTL returns the alert dedup TTL as a duration.
func (c *Config) DedupeTTL() time.Duration {
	return time.Duration(c.Alerts.DedupeTTLSeconds) * time.Second
}
