package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported generative service providers.
const (
	ProviderChatGPT = "chatgpt"
	ProviderOpenAI  = "openai"
	ProviderEcho    = "echo"
)

// Supported cache backends.
const (
	CacheFile     = "file"
	CacheMemory   = "memory"
	CacheValkey   = "valkey"
	CachePostgres = "postgres"
)

// Supported tokenizers.
const (
	TokenizerTiktoken   = "tiktoken"
	TokenizerWhitespace = "whitespace"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Summary   SummaryConfig   `yaml:"summary"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	LLM       LLMConfig       `yaml:"llm"`
	Cache     CacheConfig     `yaml:"cache"`
	Source    SourceConfig    `yaml:"source"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// SummaryConfig defines the budgets of the recursive summarizer.
type SummaryConfig struct {
	ContextSize   int     `yaml:"contextSize"`
	TargetSizes   []int   `yaml:"targetSizes"`
	DivisionPoint string  `yaml:"divisionPoint"`
	MaxAttempts   int     `yaml:"maxAttempts"`
	MaxDepth      int     `yaml:"maxDepth"`
	CostPerToken  float64 `yaml:"costPerToken"`
	Tokenizer     string  `yaml:"tokenizer"`
}

// SynthesisConfig selects the model that merges per-target summaries.
type SynthesisConfig struct {
	Model       string `yaml:"model"`
	ContextSize int    `yaml:"contextSize"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig selects where memoized results live.
type CacheConfig struct {
	Backend  string         `yaml:"backend"`
	File     string         `yaml:"file"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// SourceConfig controls how book sources are fetched.
type SourceConfig struct {
	TrimGutenberg bool          `yaml:"trimGutenberg"`
	MaxBytes      int64         `yaml:"maxBytes"`
	HTTPTimeout   time.Duration `yaml:"httpTimeout"`
	S3            S3Config      `yaml:"s3"`
}

// S3Config points at an S3-compatible object store.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides is Load with a final adjustment, such as command line
// flags, applied before validation.
func LoadWithOverrides(apply func(*Config)) (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	if apply != nil {
		apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_WRITE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = parsed
		}
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("SUMMARY_CONTEXT_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.ContextSize = parsed
		}
	}
	if v := os.Getenv("SUMMARY_TARGET_SIZES"); v != "" {
		if parsed, err := ParseSizes(v); err == nil {
			cfg.Summary.TargetSizes = parsed
		}
	}
	if v := os.Getenv("SUMMARY_DIVISION_POINT"); v != "" {
		cfg.Summary.DivisionPoint = v
	}
	if v := os.Getenv("SUMMARY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("SUMMARY_MAX_DEPTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Summary.MaxDepth = parsed
		}
	}
	if v := os.Getenv("SUMMARY_TOKENIZER"); v != "" {
		cfg.Summary.Tokenizer = strings.ToLower(v)
	}
	if v := os.Getenv("SYNTHESIS_MODEL"); v != "" {
		cfg.Synthesis.Model = v
	}
	if v := os.Getenv("SYNTHESIS_CONTEXT_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Synthesis.ContextSize = parsed
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("CACHE_FILE"); v != "" {
		cfg.Cache.File = v
	}
	if v := os.Getenv("CACHE_VALKEY_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("CACHE_POSTGRES_DSN"); v != "" {
		cfg.Cache.Postgres.DSN = v
	}
	if v := os.Getenv("SOURCE_TRIM_GUTENBERG"); v != "" {
		cfg.Source.TrimGutenberg = parseBool(v)
	}
	if v := os.Getenv("SOURCE_S3_ENDPOINT"); v != "" {
		cfg.Source.S3.Endpoint = v
	}
	if v := os.Getenv("SOURCE_S3_ACCESS_KEY"); v != "" {
		cfg.Source.S3.AccessKey = v
	}
	if v := os.Getenv("SOURCE_S3_SECRET_KEY"); v != "" {
		cfg.Source.S3.SecretKey = v
	}
	if v := os.Getenv("SOURCE_S3_REGION"); v != "" {
		cfg.Source.S3.Region = v
	}
}

// ParseSizes reads a comma separated list of positive integers.
func ParseSizes(raw string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse size %q: %w", part, err)
		}
		if size <= 0 {
			return nil, fmt.Errorf("size %d must be positive", size)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return nil, errors.New("no sizes given")
	}
	return sizes, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Summary: SummaryConfig{
			ContextSize:   16000,
			TargetSizes:   []int{500, 750, 1000},
			DivisionPoint: ".",
			MaxAttempts:   3,
			MaxDepth:      16,
			CostPerToken:  0.001 / 1000,
			Tokenizer:     TokenizerTiktoken,
		},
		Synthesis: SynthesisConfig{
			Model:       "gpt-4",
			ContextSize: 8192,
		},
		LLM: LLMConfig{
			Provider:    ProviderChatGPT,
			Model:       "gpt-3.5-turbo-16k",
			Temperature: 0,
			Timeout:     120 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			File:    "data/summary_cache.json",
			Valkey: ValkeyConfig{
				Prefix: "booksum:cache",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Source: SourceConfig{
			TrimGutenberg: true,
			MaxBytes:      32 << 20,
			HTTPTimeout:   30 * time.Second,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Summary.ContextSize <= 0 {
		return errors.New("summary.contextSize must be positive")
	}
	if len(c.Summary.TargetSizes) == 0 {
		return errors.New("summary.targetSizes cannot be empty")
	}
	for _, size := range c.Summary.TargetSizes {
		if size <= 0 || size >= c.Summary.ContextSize {
			return fmt.Errorf("summary.targetSizes entry %d must be positive and below the context size", size)
		}
	}
	if c.Summary.DivisionPoint == "" {
		return errors.New("summary.divisionPoint cannot be empty")
	}
	if c.Summary.MaxAttempts <= 0 {
		return errors.New("summary.maxAttempts must be positive")
	}
	if c.Summary.MaxDepth <= 0 {
		return errors.New("summary.maxDepth must be positive")
	}
	if c.Summary.CostPerToken < 0 {
		return errors.New("summary.costPerToken cannot be negative")
	}
	switch c.Summary.Tokenizer {
	case TokenizerTiktoken, TokenizerWhitespace:
	default:
		return fmt.Errorf("summary.tokenizer %q is not supported", c.Summary.Tokenizer)
	}
	if strings.TrimSpace(c.Synthesis.Model) == "" {
		return errors.New("synthesis.model cannot be empty")
	}
	if c.Synthesis.ContextSize <= 0 {
		return errors.New("synthesis.contextSize must be positive")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	switch c.LLM.Provider {
	case ProviderChatGPT, ProviderOpenAI, ProviderEcho:
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	switch c.Cache.Backend {
	case CacheFile:
		if strings.TrimSpace(c.Cache.File) == "" {
			return errors.New("cache.file cannot be empty for the file backend")
		}
	case CacheMemory:
	case CacheValkey:
		if strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
			return errors.New("cache.valkey.addr cannot be empty for the valkey backend")
		}
	case CachePostgres:
		if strings.TrimSpace(c.Cache.Postgres.DSN) == "" {
			return errors.New("cache.postgres.dsn cannot be empty for the postgres backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Source.MaxBytes < 0 {
		return errors.New("source.maxBytes cannot be negative")
	}
	return nil
}
