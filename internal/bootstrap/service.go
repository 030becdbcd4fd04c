package bootstrap

import (
	"log/slog"

	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/cachestore"
	"github.com/yanqian/booksum/internal/infra/config"
)

// Summarizer bundles the service with the cache it writes to.
type Summarizer struct {
	Service summarizer.Service
	Cache   cachestore.Store
	Config  summarizer.Config
}

// BuildSummarizer assembles the summarizer from cfg for command line use.
// Call the returned cleanup once done.
func BuildSummarizer(cfg *config.Config, logger *slog.Logger) (*Summarizer, func(), error) {
	store, cleanup, err := ProvideCacheStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	svc, err := buildService(cfg, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &Summarizer{Service: svc, Cache: store, Config: ProvideSummaryConfig(cfg)}, cleanup, nil
}

func buildService(cfg *config.Config, store cachestore.Store, logger *slog.Logger) (summarizer.Service, error) {
	summaryConfig := ProvideSummaryConfig(cfg)
	tok, err := ProvideTokenizer(cfg)
	if err != nil {
		return nil, err
	}
	completer, err := ProvideCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	loader, err := ProvideSourceLoader(cfg, logger)
	if err != nil {
		return nil, err
	}
	retry := ProvideRetryPolicy(summaryConfig, logger)
	memo := ProvideMemoizer(store, logger)
	engine := summarizer.NewEngine(summaryConfig, tok, completer, retry, memo, logger)
	synth := summarizer.NewSynthesizer(summaryConfig, tok, completer, retry, memo, logger)
	return summarizer.NewService(summaryConfig, tok, engine, synth, loader, logger), nil
}
