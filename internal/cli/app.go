package cli

import (
	"fmt"

	"github.com/nroshak/marketcheck/internal/api"
	"github.com/nroshak/marketcheck/internal/cache"
	"github.com/nroshak/marketcheck/internal/catalog"
	"github.com/nroshak/marketcheck/internal/evidence"
	"github.com/nroshak/marketcheck/internal/index"
	"github.com/nroshak/marketcheck/internal/ingest"
	"github.com/nroshak/marketcheck/internal/kalshi"
	"github.com/nroshak/marketcheck/internal/llm"
	"github.com/nroshak/marketcheck/internal/logger"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/pipeline"
	"github.com/nroshak/marketcheck/internal/polymarket"
	"github.com/nroshak/marketcheck/internal/score"
	"github.com/nroshak/marketcheck/internal/sidechannel"
	"github.com/nroshak/marketcheck/internal/snapshot"
	"github.com/nroshak/marketcheck/internal/util"
	"github.com/nroshak/marketcheck/internal/worker"
)

// app holds the wired component graph for one process. Commands build it
// lazily so config/version never touch storage or the network.
type app struct {
	cfg      *model.Config
	store    *catalog.Store
	gamma    *polymarket.GammaClient
	embedder *llm.Embedder
	pipeline *pipeline.Pipeline
	ingester *ingest.Ingester
	server   *api.Server
}

func buildApp(cfg *model.Config) (*app, error) {
	store, err := catalog.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	var c cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	} else {
		c = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
	}

	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.Burst)

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}
	embedder := llm.NewEmbedder(llmClient, c, logger.For("embed"))

	gamma := polymarket.NewGammaClient(cfg.Polymarket, c, limiter, logger.For("gamma"))
	clob := polymarket.NewClobClient(cfg.Polymarket, c, limiter, logger.For("clob"))
	kalshiClient := kalshi.NewClient(cfg.Kalshi, c, limiter, logger.For("kalshi"))

	retriever := index.NewAccessor(store, logger.For("index"))
	enricher := evidence.NewFetcher(gamma, clob, cfg.Concurrency.EnrichWorkers, logger.For("evidence"))
	scorer := score.NewScorer(store, logger.For("score"))
	recorder := snapshot.NewRecorder(store, logger.For("snapshot"))

	p := pipeline.New(cfg.Pipeline, pipeline.Deps{
		Parser:    llmClient,
		Embedder:  embedder,
		Retriever: retriever,
		Reranker:  llmClient,
		Enricher:  enricher,
		Scorer:    scorer,
		Synth:     llmClient,
		Snapshots: recorder,
		Expiring:  store,
		QueryLog:  store,
		Channels:  sideChannels(cfg, embedder, kalshiClient),
	}, logger.For("pipeline"))

	ingester := ingest.New(gamma, store, embedder, cfg.LLM.EmbedModel, 0, logger.For("ingest"))
	server := api.NewServer(p, store, logger.For("api"))

	return &app{
		cfg:      cfg,
		store:    store,
		gamma:    gamma,
		embedder: embedder,
		pipeline: p,
		ingester: ingester,
		server:   server,
	}, nil
}

// ingesterWithCap rebuilds the ingester with a market cap, for partial runs.
func (a *app) ingesterWithCap(maxMarkets int) *ingest.Ingester {
	return ingest.New(a.gamma, a.store, a.embedder, a.cfg.LLM.EmbedModel, maxMarkets, logger.For("ingest"))
}

func sideChannels(cfg *model.Config, embedder *llm.Embedder, kalshiClient *kalshi.Client) []sidechannel.Retriever {
	robots := util.NewRobotsChecker(cfg.News.UserAgent, cfg.News.Timeout)
	return []sidechannel.Retriever{
		sidechannel.NewNews(cfg.News, robots, embedder, logger.For("news")),
		sidechannel.NewReddit(cfg.Social, logger.For("reddit")),
		sidechannel.NewTwitter(cfg.Social, logger.For("twitter")),
		sidechannel.NewTrends(cfg.Social, logger.For("trends")),
		sidechannel.NewKalshi(kalshiClient),
	}
}

func (a *app) Close() error {
	return a.store.Close()
}
