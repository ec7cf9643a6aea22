// Package config loads and validates the linking engine configuration.
// Configuration comes from a YAML file with environment variable overrides;
// all linking policy is explicit here and passed into components at
// construction, never read from ambient state.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second

	// anchorDistributionTotal is the required sum of anchor percentages.
	anchorDistributionTotal = 100
)

// Config is the root configuration for the linking engine.
type Config struct {
	Debug    bool   `yaml:"debug"`    // Controls log level and format
	Platform string `yaml:"platform"` // Active platform, selects overrides

	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Search        SearchConfig        `yaml:"search"`
	Notifier      NotifierConfig      `yaml:"notifier"`

	Keywords     KeywordConfig      `yaml:"keywords"`
	Linking      LinkingConfig      `yaml:"linking"`
	Anchors      AnchorConfig       `yaml:"anchors"`
	Authority    AuthorityConfig    `yaml:"authority"`
	Discovery    DiscoveryConfig    `yaml:"discovery"`
	Verification VerificationConfig `yaml:"verification"`

	// Platforms holds per-platform policy overrides, merged onto the base
	// policy once at load time.
	Platforms map[string]PlatformOverride `yaml:"platforms"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis configuration for the cache store.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ElasticsearchConfig holds the content index configuration.
type ElasticsearchConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Index    string `yaml:"index"` // Content item index pattern
}

// SearchConfig holds the external search collaborator configuration.
type SearchConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifierConfig holds the alert notification collaborator configuration.
type NotifierConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Enabled bool          `yaml:"enabled"`
}

// KeywordConfig tunes keyword extraction.
type KeywordConfig struct {
	MinWordLength int           `yaml:"min_word_length"`
	MaxKeywords   int           `yaml:"max_keywords"`
	TitleWeight   float64       `yaml:"title_weight"`
	ContentWeight float64       `yaml:"content_weight"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// LinkingConfig tunes candidate selection, scoring and placement.
type LinkingConfig struct {
	MinLinks          int     `yaml:"min_links"`
	MaxLinks          int     `yaml:"max_links"` // Incoming quota per target item
	MaxExternalLinks  int     `yaml:"max_external_links"`
	CandidatePoolSize int     `yaml:"candidate_pool_size"`
	MinRelevanceScore float64 `yaml:"min_relevance_score"`
	SameCountryBoost  float64 `yaml:"same_country_boost"`
	SameThemeBoost    float64 `yaml:"same_theme_boost"`
	PillarBonus       float64 `yaml:"pillar_bonus"`
	MinParagraphGap   int     `yaml:"min_paragraph_gap"`
	MaxPerParagraph   int     `yaml:"max_per_paragraph"`

	// Excluded zones. Pointers so an unset value can default to true.
	ExcludeFirstParagraph *bool `yaml:"exclude_first_paragraph"`
	ExcludeLastParagraph  *bool `yaml:"exclude_last_paragraph"`
}

// ExcludeFirst reports whether the first paragraph is an excluded zone.
func (c *LinkingConfig) ExcludeFirst() bool {
	return c.ExcludeFirstParagraph == nil || *c.ExcludeFirstParagraph
}

// ExcludeLast reports whether the last paragraph is an excluded zone.
func (c *LinkingConfig) ExcludeLast() bool {
	return c.ExcludeLastParagraph == nil || *c.ExcludeLastParagraph
}

// AnchorConfig holds the target anchor-category distribution in percent.
// Values must sum to 100.
type AnchorConfig struct {
	Distribution map[string]int `yaml:"distribution"`
}

// AuthorityConfig tunes authority propagation.
type AuthorityConfig struct {
	DampingFactor        float64       `yaml:"damping_factor"`
	ConvergenceThreshold float64       `yaml:"convergence_threshold"`
	MaxIterations        int           `yaml:"max_iterations"`
	DebounceDelay        time.Duration `yaml:"debounce_delay"`
	RecomputeSchedule    string        `yaml:"recompute_schedule"` // cron spec safety net
}

// DiscoveryConfig tunes external source discovery.
type DiscoveryConfig struct {
	MaxResultsPerQuery int               `yaml:"max_results_per_query"`
	RetryAttempts      int               `yaml:"retry_attempts"`
	RetryDelay         time.Duration     `yaml:"retry_delay"`
	CacheTTL           time.Duration     `yaml:"cache_ttl"`
	RatePerSecond      float64           `yaml:"rate_per_second"` // External API budget
	RateBurst          int               `yaml:"rate_burst"`
	MinAuthorityScore  int               `yaml:"min_authority_score"`
	SourcePriority     []string          `yaml:"source_priority"`
	QueryTemplates     map[string]string `yaml:"query_templates"` // theme -> template
}

// VerificationConfig tunes the scheduled link verifier.
type VerificationConfig struct {
	Schedule             string        `yaml:"schedule"` // cron spec
	RecheckInterval      time.Duration `yaml:"recheck_interval"`
	ConcurrentChecks     int           `yaml:"concurrent_checks"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	RetryAttempts        int           `yaml:"retry_attempts"`
	RetryDelay           time.Duration `yaml:"retry_delay"`
	ValidStatuses        []int         `yaml:"valid_statuses"`
	BrokenAlertThreshold float64       `yaml:"broken_alert_threshold"`
}

// PlatformOverride carries the per-platform policy deltas. Nil/empty fields
// keep the base value.
type PlatformOverride struct {
	MinRelevanceScore  *float64       `yaml:"min_relevance_score"`
	MinAuthorityScore  *int           `yaml:"min_authority_score"`
	SourcePriority     []string       `yaml:"source_priority"`
	AnchorDistribution map[string]int `yaml:"anchor_distribution"`
}

// Load reads the YAML config, applies defaults, environment overrides, the
// active platform overlay and validates the result.
func Load(path string) (*Config, error) {
	// .env files are optional; missing files are not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.applyPlatformOverride(); err != nil {
		return nil, fmt.Errorf("apply platform override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration fields.
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8085"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}

	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Elasticsearch.Index == "" {
		cfg.Elasticsearch.Index = "content_items"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10 * time.Second
	}
	if cfg.Notifier.Timeout == 0 {
		cfg.Notifier.Timeout = 5 * time.Second
	}

	if cfg.Keywords.MinWordLength == 0 {
		cfg.Keywords.MinWordLength = 3
	}
	if cfg.Keywords.MaxKeywords == 0 {
		cfg.Keywords.MaxKeywords = 30
	}
	if cfg.Keywords.TitleWeight == 0 {
		cfg.Keywords.TitleWeight = 3.0
	}
	if cfg.Keywords.ContentWeight == 0 {
		cfg.Keywords.ContentWeight = 1.0
	}
	if cfg.Keywords.CacheTTL == 0 {
		cfg.Keywords.CacheTTL = 24 * time.Hour
	}

	if cfg.Linking.MinLinks == 0 {
		cfg.Linking.MinLinks = 2
	}
	if cfg.Linking.MaxLinks == 0 {
		cfg.Linking.MaxLinks = 8
	}
	if cfg.Linking.MaxExternalLinks == 0 {
		cfg.Linking.MaxExternalLinks = 3
	}
	if cfg.Linking.CandidatePoolSize == 0 {
		cfg.Linking.CandidatePoolSize = 50
	}
	if cfg.Linking.MinRelevanceScore == 0 {
		cfg.Linking.MinRelevanceScore = 40
	}
	if cfg.Linking.SameCountryBoost == 0 {
		cfg.Linking.SameCountryBoost = 15
	}
	if cfg.Linking.SameThemeBoost == 0 {
		cfg.Linking.SameThemeBoost = 10
	}
	if cfg.Linking.PillarBonus == 0 {
		cfg.Linking.PillarBonus = 5
	}
	if cfg.Linking.MinParagraphGap == 0 {
		cfg.Linking.MinParagraphGap = 2
	}
	if cfg.Linking.MaxPerParagraph == 0 {
		cfg.Linking.MaxPerParagraph = 1
	}

	if len(cfg.Anchors.Distribution) == 0 {
		cfg.Anchors.Distribution = map[string]int{
			"exact_match": 30,
			"long_tail":   25,
			"generic":     20,
			"cta":         15,
			"question":    10,
		}
	}

	if cfg.Authority.DampingFactor == 0 {
		cfg.Authority.DampingFactor = 0.85
	}
	if cfg.Authority.ConvergenceThreshold == 0 {
		cfg.Authority.ConvergenceThreshold = 0.0001
	}
	if cfg.Authority.MaxIterations == 0 {
		cfg.Authority.MaxIterations = 100
	}
	if cfg.Authority.DebounceDelay == 0 {
		cfg.Authority.DebounceDelay = 30 * time.Second
	}
	if cfg.Authority.RecomputeSchedule == "" {
		cfg.Authority.RecomputeSchedule = "@every 6h"
	}

	if cfg.Discovery.MaxResultsPerQuery == 0 {
		cfg.Discovery.MaxResultsPerQuery = 10
	}
	if cfg.Discovery.RetryAttempts == 0 {
		cfg.Discovery.RetryAttempts = 3
	}
	if cfg.Discovery.RetryDelay == 0 {
		cfg.Discovery.RetryDelay = 2 * time.Second
	}
	if cfg.Discovery.CacheTTL == 0 {
		cfg.Discovery.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.Discovery.RatePerSecond == 0 {
		cfg.Discovery.RatePerSecond = 1
	}
	if cfg.Discovery.RateBurst == 0 {
		cfg.Discovery.RateBurst = 3
	}
	if cfg.Discovery.MinAuthorityScore == 0 {
		cfg.Discovery.MinAuthorityScore = 60
	}
	if len(cfg.Discovery.SourcePriority) == 0 {
		cfg.Discovery.SourcePriority = []string{
			"government", "organization", "reference", "news", "authority",
		}
	}

	if cfg.Verification.Schedule == "" {
		cfg.Verification.Schedule = "0 3 * * *"
	}
	if cfg.Verification.RecheckInterval == 0 {
		cfg.Verification.RecheckInterval = 72 * time.Hour
	}
	if cfg.Verification.ConcurrentChecks == 0 {
		cfg.Verification.ConcurrentChecks = 10
	}
	if cfg.Verification.RequestTimeout == 0 {
		cfg.Verification.RequestTimeout = 10 * time.Second
	}
	if cfg.Verification.RetryAttempts == 0 {
		cfg.Verification.RetryAttempts = 3
	}
	if cfg.Verification.RetryDelay == 0 {
		cfg.Verification.RetryDelay = time.Second
	}
	if len(cfg.Verification.ValidStatuses) == 0 {
		cfg.Verification.ValidStatuses = []int{200, 301, 302, 308}
	}
	if cfg.Verification.BrokenAlertThreshold == 0 {
		cfg.Verification.BrokenAlertThreshold = 0.1
	}
}

// overrideWithEnvVars overrides configuration with environment variables.
func overrideWithEnvVars(cfg *Config) {
	if esURL := os.Getenv("ES_URL"); esURL != "" {
		cfg.Elasticsearch.URL = esURL
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPassword := os.Getenv("POSTGRES_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if searchURL := os.Getenv("SEARCH_API_URL"); searchURL != "" {
		cfg.Search.URL = searchURL
	}
	if searchKey := os.Getenv("SEARCH_API_KEY"); searchKey != "" {
		cfg.Search.APIKey = searchKey
	}
	if notifyURL := os.Getenv("NOTIFIER_URL"); notifyURL != "" {
		cfg.Notifier.URL = notifyURL
	}
	if platform := os.Getenv("LINKENGINE_PLATFORM"); platform != "" {
		cfg.Platform = platform
	}
	if port := os.Getenv("LINKENGINE_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
	if appDebug := os.Getenv("APP_DEBUG"); appDebug != "" {
		cfg.Debug = parseBool(appDebug)
	}
}

// applyPlatformOverride merges the active platform's overrides onto the base
// policy. Resolution happens exactly once here; components never branch on
// platform at runtime.
func (c *Config) applyPlatformOverride() error {
	if c.Platform == "" {
		return nil
	}
	override, ok := c.Platforms[c.Platform]
	if !ok {
		return fmt.Errorf("unknown platform %q", c.Platform)
	}

	if override.MinRelevanceScore != nil {
		c.Linking.MinRelevanceScore = *override.MinRelevanceScore
	}
	if override.MinAuthorityScore != nil {
		c.Discovery.MinAuthorityScore = *override.MinAuthorityScore
	}
	if len(override.SourcePriority) > 0 {
		c.Discovery.SourcePriority = override.SourcePriority
	}
	if len(override.AnchorDistribution) > 0 {
		c.Anchors.Distribution = override.AnchorDistribution
	}
	return nil
}

// Validate checks the configuration and returns an error if it is unusable.
func (c *Config) Validate() error {
	if c.Elasticsearch.URL == "" {
		return errors.New("elasticsearch.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}

	if c.Linking.MinLinks > c.Linking.MaxLinks {
		return fmt.Errorf("linking.min_links (%d) exceeds linking.max_links (%d)",
			c.Linking.MinLinks, c.Linking.MaxLinks)
	}
	if c.Linking.MinParagraphGap < 1 {
		return errors.New("linking.min_paragraph_gap must be at least 1")
	}

	total := 0
	for category, pct := range c.Anchors.Distribution {
		if !validAnchorCategory(category) {
			return fmt.Errorf("anchors.distribution: unknown category %q", category)
		}
		if pct < 0 {
			return fmt.Errorf("anchors.distribution[%s] must be non-negative", category)
		}
		total += pct
	}
	if total != anchorDistributionTotal {
		return fmt.Errorf("anchors.distribution must sum to %d, got %d",
			anchorDistributionTotal, total)
	}

	if c.Authority.DampingFactor <= 0 || c.Authority.DampingFactor >= 1 {
		return fmt.Errorf("authority.damping_factor must be in (0, 1), got %v",
			c.Authority.DampingFactor)
	}
	if c.Authority.ConvergenceThreshold <= 0 {
		return errors.New("authority.convergence_threshold must be positive")
	}
	if c.Authority.MaxIterations < 1 {
		return errors.New("authority.max_iterations must be at least 1")
	}

	for _, st := range c.Discovery.SourcePriority {
		if !validSourceType(st) {
			return fmt.Errorf("discovery.source_priority: unknown source type %q", st)
		}
	}

	if c.Verification.BrokenAlertThreshold < 0 || c.Verification.BrokenAlertThreshold > 1 {
		return fmt.Errorf("verification.broken_alert_threshold must be in [0, 1], got %v",
			c.Verification.BrokenAlertThreshold)
	}

	return nil
}

func validAnchorCategory(s string) bool {
	switch s {
	case "exact_match", "long_tail", "generic", "cta", "question":
		return true
	}
	return false
}

func validSourceType(s string) bool {
	switch s {
	case "government", "organization", "reference", "news", "authority":
		return true
	}
	return false
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
