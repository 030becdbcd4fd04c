//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/booksum/internal/bootstrap"
	"github.com/yanqian/booksum/internal/domain/summarizer"
	"github.com/yanqian/booksum/internal/infra/cachestore"
	"github.com/yanqian/booksum/internal/infra/config"
	httpiface "github.com/yanqian/booksum/internal/interface/http"
	"github.com/yanqian/booksum/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.ProvideSummaryConfig,
		bootstrap.ProvideTokenizer,
		bootstrap.ProvideCompleter,
		bootstrap.ProvideRetryPolicy,
		bootstrap.ProvideCacheStore,
		bootstrap.ProvideMemoizer,
		bootstrap.ProvideSourceLoader,
		summarizer.NewEngine,
		summarizer.NewSynthesizer,
		summarizer.NewService,
		wire.Bind(new(httpiface.CacheInspector), new(cachestore.Store)),
		httpiface.NewSummaryHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
