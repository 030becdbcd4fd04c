package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/cachestore"
	"github.com/yanqian/booksum/internal/infra/config"
	"github.com/yanqian/booksum/internal/infra/llm"
	"github.com/yanqian/booksum/internal/infra/llm/chatgpt"
	"github.com/yanqian/booksum/internal/infra/source"
	"github.com/yanqian/booksum/internal/infra/tokenizer"
)

// ProvideSummaryConfig maps runtime config onto the summarizer domain.
func ProvideSummaryConfig(cfg *config.Config) summarizer.Config {
	return summarizer.Config{
		Model:                cfg.LLM.Model,
		Temperature:          cfg.LLM.Temperature,
		ContextSize:          cfg.Summary.ContextSize,
		TargetSizes:          cfg.Summary.TargetSizes,
		DivisionPoint:        cfg.Summary.DivisionPoint,
		MaxAttempts:          cfg.Summary.MaxAttempts,
		MaxDepth:             cfg.Summary.MaxDepth,
		SynthesisModel:       cfg.Synthesis.Model,
		SynthesisContextSize: cfg.Synthesis.ContextSize,
		CostPerToken:         cfg.Summary.CostPerToken,
	}
}

// ProvideTokenizer returns the tokenizer matching the summarization model.
func ProvideTokenizer(cfg *config.Config) (summarizer.Tokenizer, error) {
	if cfg.Summary.Tokenizer == config.TokenizerWhitespace {
		return tokenizer.Whitespace{}, nil
	}
	tok, err := tokenizer.NewTiktoken(cfg.LLM.Model)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// ProvideCompleter builds the generative service client for the configured
// provider.
func ProvideCompleter(cfg *config.Config, logger *slog.Logger) (summarizer.Completer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		completer, err := llm.NewOpenAICompleter(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		return completer, nil
	case config.ProviderEcho:
		logger.Warn("using offline echo completer, summaries are truncations")
		return llm.EchoCompleter{}, nil
	default:
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, err
		}
		return llm.NewChatGPTCompleter(client), nil
	}
}

// ProvideRetryPolicy builds the retry policy shared by every model call.
func ProvideRetryPolicy(cfg summarizer.Config, logger *slog.Logger) *summarizer.RetryPolicy {
	return summarizer.NewRetryPolicy(cfg.MaxAttempts, logger)
}

// ProvideMemoizer wraps the cache store with the default key derivation.
func ProvideMemoizer(store cachestore.Store, logger *slog.Logger) *summarizer.Memoizer {
	return summarizer.NewMemoizer(store, summarizer.DefaultKey, logger)
}

// ProvideSourceLoader builds the loader for file, URL and object sources.
func ProvideSourceLoader(cfg *config.Config, logger *slog.Logger) (summarizer.SourceLoader, error) {
	loader, err := source.NewLoader(source.Config{
		TrimGutenberg: cfg.Source.TrimGutenberg,
		MaxBytes:      cfg.Source.MaxBytes,
		HTTPTimeout:   cfg.Source.HTTPTimeout,
		S3: source.S3Config{
			Endpoint:  cfg.Source.S3.Endpoint,
			AccessKey: cfg.Source.S3.AccessKey,
			SecretKey: cfg.Source.S3.SecretKey,
			Region:    cfg.Source.S3.Region,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return loader, nil
}

// ProvideCacheStore opens the configured cache backend. The returned cleanup
// releases its connections. A backend that cannot be reached is an error:
// falling back to memory would silently discard paid-for results.
func ProvideCacheStore(cfg *config.Config, logger *slog.Logger) (cachestore.Store, func(), error) {
	noop := func() {}
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		logger.Info("summary cache in memory, results are lost on exit")
		return cachestore.NewMemoryStore(), noop, nil
	case config.CacheValkey:
		return provideValkeyStore(cfg, logger)
	case config.CachePostgres:
		return providePostgresStore(cfg, logger)
	default:
		store, err := cachestore.OpenFileStore(cfg.Cache.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("summary cache file opened", "path", store.Path())
		return store, noop, nil
	}
}

func provideValkeyStore(cfg *config.Config, logger *slog.Logger) (cachestore.Store, func(), error) {
	opt, err := buildValkeyOptions(cfg.Cache.Valkey.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid valkey configuration: %w", err)
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, nil, fmt.Errorf("create valkey client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("valkey ping failed: %w", err)
	}
	logger.Info("summary cache valkey store enabled", "addr", cfg.Cache.Valkey.Addr)
	return cachestore.NewValkeyStore(client, cfg.Cache.Valkey.Prefix), client.Close, nil
}

func providePostgresStore(cfg *config.Config, logger *slog.Logger) (cachestore.Store, func(), error) {
	poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.Cache.Postgres.DSN))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.Cache.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Cache.Postgres.MaxConns
	}
	if cfg.Cache.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Cache.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	store, err := cachestore.NewPostgresStore(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("summary cache postgres store enabled")
	return store, pool.Close, nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
