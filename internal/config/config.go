// Package config loads and validates service configuration from a YAML file
// with environment variable overrides for deployment knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/retail-query-kernel/internal/nlu"
)

// Config is the full service configuration. Zero values are filled with
// defaults by Load; Validate runs before anything is constructed so a bad
// deployment fails at startup, not on the first query.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Routing RoutingConfig `yaml:"routing"`
	Auth    AuthConfig    `yaml:"auth"`

	// VocabularyPath points at a keyword override file; empty uses the
	// built-in retail vocabulary.
	VocabularyPath string `yaml:"vocabulary_path"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CatalogConfig holds the product index settings.
type CatalogConfig struct {
	IndexPath      string        `yaml:"index_path"`
	InMemory       bool          `yaml:"in_memory"`
	Fuzziness      int           `yaml:"fuzziness"`
	MaxHits        int           `yaml:"max_hits"`
	SeedPath       string        `yaml:"seed_path"`
	LookupCacheTTL time.Duration `yaml:"lookup_cache_ttl"`
	LookupCacheLen int           `yaml:"lookup_cache_len"`
}

// CacheConfig holds route result cache settings. RedisAddress empty means
// L1-only caching.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxEntries   int64         `yaml:"max_entries"`
	TTL          time.Duration `yaml:"ttl"`
	RedisAddress string        `yaml:"redis_address"`
}

// RoutingConfig holds classifier, extractor and disambiguation tuning.
// Field names mirror the router configuration they feed.
type RoutingConfig struct {
	MinIntentConfidence float64 `yaml:"min_intent_confidence"`
	NegationPenalty     float64 `yaml:"negation_penalty"`
	SmoothingK          float64 `yaml:"smoothing_k"`

	SynonymConfidence   float64 `yaml:"synonym_confidence"`
	FuzzyThreshold      float64 `yaml:"fuzzy_threshold"`
	FuzzyWeight         float64 `yaml:"fuzzy_weight"`
	TrigramThreshold    float64 `yaml:"trigram_threshold"`
	TrigramWeight       float64 `yaml:"trigram_weight"`
	PartialNameCoverage float64 `yaml:"partial_name_coverage"`
	TopCandidates       int     `yaml:"top_candidates"`
	MaxPhraseWords      int     `yaml:"max_phrase_words"`

	AcceptanceThreshold float64 `yaml:"acceptance_threshold"`
	ClosenessThreshold  float64 `yaml:"closeness_threshold"`
}

// AuthConfig guards the catalog admin endpoints. Disabled by default for
// local development.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	routing := nlu.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:         "9100",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Catalog: CatalogConfig{
			IndexPath:      "./data/catalog.bleve",
			InMemory:       false,
			Fuzziness:      2,
			MaxHits:        25,
			LookupCacheTTL: 5 * time.Minute,
			LookupCacheLen: 1024,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 10000,
			TTL:        5 * time.Minute,
		},
		Routing: RoutingConfig{
			MinIntentConfidence: routing.Classifier.MinConfidence,
			NegationPenalty:     routing.Classifier.NegationPenalty,
			SmoothingK:          routing.Classifier.SmoothingK,
			SynonymConfidence:   routing.Extractor.SynonymConfidence,
			FuzzyThreshold:      routing.Extractor.FuzzyThreshold,
			FuzzyWeight:         routing.Extractor.FuzzyWeight,
			TrigramThreshold:    routing.Extractor.TrigramThreshold,
			TrigramWeight:       routing.Extractor.TrigramWeight,
			PartialNameCoverage: routing.Extractor.PartialNameCoverage,
			TopCandidates:       routing.Extractor.TopN,
			MaxPhraseWords:      routing.Extractor.MaxPhraseWords,
			AcceptanceThreshold: routing.AcceptanceThreshold,
			ClosenessThreshold:  routing.ClosenessThreshold,
		},
	}
}

// Load reads the YAML file at path (skipped when empty), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Catalog.IndexPath = getEnv("CATALOG_INDEX_PATH", c.Catalog.IndexPath)
	c.Catalog.SeedPath = getEnv("CATALOG_SEED_PATH", c.Catalog.SeedPath)
	c.Cache.RedisAddress = getEnv("REDIS_URL", c.Cache.RedisAddress)
	c.VocabularyPath = getEnv("VOCABULARY_PATH", c.VocabularyPath)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	if c.Auth.JWTSecret != "" {
		c.Auth.Enabled = true
	}
	var err error
	if v := os.Getenv("CATALOG_IN_MEMORY"); v != "" {
		if c.Catalog.InMemory, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("CATALOG_IN_MEMORY %q is not a boolean", v)
		}
	}
	if v := os.Getenv("ROUTE_CACHE_ENABLED"); v != "" {
		if c.Cache.Enabled, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("ROUTE_CACHE_ENABLED %q is not a boolean", v)
		}
	}
	return nil
}

// Validate checks every tunable before the service starts.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port must not be empty")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server port %q is not numeric", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Catalog.Fuzziness < 0 || c.Catalog.Fuzziness > 2 {
		return fmt.Errorf("catalog fuzziness %d outside [0,2]", c.Catalog.Fuzziness)
	}
	if c.Catalog.MaxHits <= 0 {
		return fmt.Errorf("catalog max hits must be positive")
	}
	if !c.Catalog.InMemory && c.Catalog.IndexPath == "" {
		return fmt.Errorf("catalog index path required for on-disk index")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("route cache ttl must be positive")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled without a jwt secret")
	}
	return c.Routing.ToNLU().Validate()
}

// ToNLU maps the flat routing section onto the router configuration.
func (r RoutingConfig) ToNLU() nlu.Config {
	cfg := nlu.DefaultConfig()
	cfg.Classifier.MinConfidence = r.MinIntentConfidence
	cfg.Classifier.NegationPenalty = r.NegationPenalty
	cfg.Classifier.SmoothingK = r.SmoothingK
	cfg.Extractor.SynonymConfidence = r.SynonymConfidence
	cfg.Extractor.FuzzyThreshold = r.FuzzyThreshold
	cfg.Extractor.FuzzyWeight = r.FuzzyWeight
	cfg.Extractor.TrigramThreshold = r.TrigramThreshold
	cfg.Extractor.TrigramWeight = r.TrigramWeight
	cfg.Extractor.PartialNameCoverage = r.PartialNameCoverage
	cfg.Extractor.TopN = r.TopCandidates
	cfg.Extractor.MaxPhraseWords = r.MaxPhraseWords
	cfg.AcceptanceThreshold = r.AcceptanceThreshold
	cfg.ClosenessThreshold = r.ClosenessThreshold
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
