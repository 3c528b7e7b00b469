package model

import "time"

// Config is the full application configuration, constructed once at process
// start and passed by reference into every component that needs it. No
// component reads ambient globals.
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Polymarket  PolymarketConfig  `yaml:"polymarket" mapstructure:"polymarket"`
	Kalshi      KalshiConfig      `yaml:"kalshi" mapstructure:"kalshi"`
	News        NewsConfig        `yaml:"news" mapstructure:"news"`
	Social      SocialConfig      `yaml:"social" mapstructure:"social"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Storage     StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// LLMConfig configures the OpenAI-compatible endpoint used for claim parsing,
// reranking, answer synthesis, and embeddings.
type LLMConfig struct {
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"` // Empty = api.openai.com
	ChatModel    string        `yaml:"chat_model" mapstructure:"chat_model"`
	EmbedModel   string        `yaml:"embed_model" mapstructure:"embed_model"`
	ParseTimeout time.Duration `yaml:"parse_timeout" mapstructure:"parse_timeout"`
	RankTimeout  time.Duration `yaml:"rank_timeout" mapstructure:"rank_timeout"`
	SynthTimeout time.Duration `yaml:"synth_timeout" mapstructure:"synth_timeout"`
	EmbedTimeout time.Duration `yaml:"embed_timeout" mapstructure:"embed_timeout"`
}

// PolymarketConfig holds endpoints and cache TTLs for the Gamma and CLOB APIs
type PolymarketConfig struct {
	GammaBaseURL string        `yaml:"gamma_base_url" mapstructure:"gamma_base_url"`
	ClobBaseURL  string        `yaml:"clob_base_url" mapstructure:"clob_base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MarketsTTL   time.Duration `yaml:"markets_ttl" mapstructure:"markets_ttl"`
	PriceTTL     time.Duration `yaml:"price_ttl" mapstructure:"price_ttl"`
}

// KalshiConfig holds the secondary market platform endpoint
type KalshiConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// NewsConfig configures the RSS/NewsAPI news retriever
type NewsConfig struct {
	Feeds      []string      `yaml:"feeds" mapstructure:"feeds"`
	NewsAPIKey string        `yaml:"newsapi_key" mapstructure:"newsapi_key"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// SocialConfig configures the social side channels
type SocialConfig struct {
	TwitterBearerToken string        `yaml:"twitter_bearer_token" mapstructure:"twitter_bearer_token"`
	RedditUserAgent    string        `yaml:"reddit_user_agent" mapstructure:"reddit_user_agent"`
	Timeout            time.Duration `yaml:"timeout" mapstructure:"timeout"`
	TTL                time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// CacheConfig controls the layered read-through cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StorageConfig locates the SQLite catalog database
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PipelineConfig tunes the orchestrator
type PipelineConfig struct {
	RetrievalTopK    int           `yaml:"retrieval_top_k" mapstructure:"retrieval_top_k"`
	EnrichTopK       int           `yaml:"enrich_top_k" mapstructure:"enrich_top_k"`
	ExpiringLimit    int           `yaml:"expiring_limit" mapstructure:"expiring_limit"`
	ExpiringDayRange int           `yaml:"expiring_day_range" mapstructure:"expiring_day_range"`
	SideChannelLimit int           `yaml:"side_channel_limit" mapstructure:"side_channel_limit"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ConcurrencyConfig bounds fan-out
type ConcurrencyConfig struct {
	EnrichWorkers     int     `yaml:"enrich_workers" mapstructure:"enrich_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// HTTPConfig configures the serve command
type HTTPConfig struct {
	BindAddr string `yaml:"bind_addr" mapstructure:"bind_addr"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the configuration defaults. The CLI overlays config
// file, environment, and flag values on top of this.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			ChatModel:    "gpt-4o-mini",
			EmbedModel:   "text-embedding-3-small",
			ParseTimeout: 30 * time.Second,
			RankTimeout:  60 * time.Second,
			SynthTimeout: 45 * time.Second,
			EmbedTimeout: 30 * time.Second,
		},
		Polymarket: PolymarketConfig{
			GammaBaseURL: "https://gamma-api.polymarket.com",
			ClobBaseURL:  "https://clob.polymarket.com",
			Timeout:      15 * time.Second,
			MarketsTTL:   6 * time.Hour,
			PriceTTL:     30 * time.Second,
		},
		Kalshi: KalshiConfig{
			BaseURL: "https://api.elections.kalshi.com/trade-api/v2",
			Timeout: 10 * time.Second,
			TTL:     5 * time.Minute,
		},
		News: NewsConfig{
			Feeds: []string{
				"https://feeds.bbci.co.uk/news/world/rss.xml",
				"https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
				"https://feeds.reuters.com/reuters/topNews",
			},
			UserAgent: "marketcheck/0.1 (+https://github.com/nroshak/marketcheck)",
			Timeout:   10 * time.Second,
			TTL:       10 * time.Minute,
		},
		Social: SocialConfig{
			RedditUserAgent: "marketcheck/0.1",
			Timeout:         10 * time.Second,
			TTL:             10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 5 * time.Minute,
			DiskTTL:   6 * time.Hour,
		},
		Storage: StorageConfig{
			Path: "marketcheck.db",
		},
		Pipeline: PipelineConfig{
			RetrievalTopK:    100,
			EnrichTopK:       15,
			ExpiringLimit:    20,
			ExpiringDayRange: 1,
			SideChannelLimit: 10,
			Timeout:          2 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			EnrichWorkers:     5,
			RequestsPerSecond: 4,
			Burst:             5,
		},
		HTTP: HTTPConfig{
			BindAddr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
