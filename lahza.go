package lahza

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/ai/gemini"
	"github.com/poiesic/lahza/ai/openai"
	"github.com/poiesic/lahza/cache"
	"github.com/poiesic/lahza/ingestion"
	"github.com/poiesic/lahza/reindex"
	"github.com/poiesic/lahza/search"
	"github.com/poiesic/lahza/server"
	"github.com/poiesic/lahza/storage"
	"github.com/poiesic/lahza/storage/badger"
	"github.com/poiesic/lahza/storage/postgres"
)

// App owns the store, the embedding provider and the optional query cache,
// and builds the services that use them.
type App struct {
	config   *Config
	store    storage.Store
	provider ai.AIProvider
	cleaner  ai.TranscriptCleaner
	cache    *cache.Redis
	logger   *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	provider ai.AIProvider
	cleaner  ai.TranscriptCleaner
	store    storage.Store
}

// WithProvider uses provider instead of building one from the AI config.
func WithProvider(provider ai.AIProvider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// WithCleaner uses cleaner for ingestion instead of building one from the
// AI config.
func WithCleaner(cleaner ai.TranscriptCleaner) AppOption {
	return func(o *appOptions) {
		o.cleaner = cleaner
	}
}

// WithStore uses store instead of opening one from the config.
func WithStore(store storage.Store) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// NewProvider builds the embedding provider named by config.Provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	switch config.Provider {
	case ai.ProviderGemini:
		return gemini.NewProvider(config)
	case ai.ProviderOpenAI:
		return openai.NewProvider(config)
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ai.ErrInvalidConfig, config.Provider)
}

// NewCleaner builds the transcript cleaner, or returns nil when
// config.CleanerModel is empty.
func NewCleaner(config *ai.Config) (ai.TranscriptCleaner, error) {
	if config == nil || config.CleanerModel == "" {
		return nil, nil
	}
	return openai.NewCleaner(config)
}

// OpenStore opens Postgres when a database URL is configured, else badger.
func OpenStore(ctx context.Context, config *Config) (storage.Store, error) {
	if config.DatabaseURL != "" {
		return postgres.NewStore(ctx, config.DatabaseURL)
	}
	if config.BadgerPath != "" {
		return badger.NewStore(config.BadgerPath)
	}
	return nil, fmt.Errorf("%w: database url or badger path required", ErrMissingConfig)
}

// Open assembles an App from config.
func Open(ctx context.Context, config *Config, opts ...AppOption) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.provider == nil || options.store == nil {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(config.AI)
		if err != nil {
			return nil, err
		}
	}

	cleaner := options.cleaner
	if cleaner == nil {
		var err error
		cleaner, err = NewCleaner(config.AI)
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	store := options.store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, config)
		if err != nil {
			provider.Close()
			return nil, err
		}
	}

	app := &App{
		config:   config,
		store:    store,
		provider: provider,
		cleaner:  cleaner,
		logger:   slog.Default().With("component", "app"),
	}

	if config.RedisURL != "" {
		c, err := cache.Connect(ctx, config.RedisURL, provider.Model())
		if err != nil {
			// Search still works without the cache
			app.logger.Warn("query cache disabled", "err", err)
		} else {
			app.cache = c
		}
	}

	return app, nil
}

// Close releases the cache, the provider and the store.
func (a *App) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("error closing query cache", "err", err)
		}
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

func (a *App) Store() storage.Store {
	return a.store
}

func (a *App) Provider() ai.AIProvider {
	return a.provider
}

// NewProcessor builds a reindex processor over the app's store.
func (a *App) NewProcessor(opts ...reindex.Option) (*reindex.Processor, error) {
	if a.config.ItemDelay > 0 {
		opts = append([]reindex.Option{reindex.WithItemDelay(a.config.ItemDelay)}, opts...)
	}
	return reindex.NewProcessor(a.store, a.store, a.provider.Embedder(), opts...)
}

// NewSearcher builds a searcher, using the query cache when one is connected.
func (a *App) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if a.cache != nil {
		opts = append([]search.Option{search.WithCache(a.cache)}, opts...)
	}
	return search.NewSearcher(a.store, a.provider.Embedder(), opts...)
}

// NewIngestionPipeline builds the ingestion pipeline, cleaning chunks when a
// cleaner is configured.
func (a *App) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if a.cleaner != nil {
		opts = append([]ingestion.Option{ingestion.WithCleaner(a.cleaner)}, opts...)
	}
	return ingestion.NewPipeline(a.store, a.store, a.provider.Embedder(), opts...)
}

// NewServer builds the HTTP server.
func (a *App) NewServer(opts ...server.Option) (*server.Server, error) {
	searcher, err := a.NewSearcher()
	if err != nil {
		return nil, err
	}
	processor, err := a.NewProcessor()
	if err != nil {
		return nil, err
	}
	opts = append([]server.Option{
		server.WithCronSecret(a.config.CronSecret),
		server.WithMaxBatchLimit(a.config.MaxBatchLimit),
	}, opts...)
	return server.New(searcher, processor, opts...), nil
}

// NewLocalDriver builds a driver that runs batches in process and keeps its
// cursor in the app's store.
func (a *App) NewLocalDriver(config reindex.DriverConfig, opts ...reindex.DriverOption) (*reindex.Driver, error) {
	processor, err := a.NewProcessor()
	if err != nil {
		return nil, err
	}
	opts = append([]reindex.DriverOption{reindex.WithCheckpoints(a.store)}, opts...)
	return reindex.NewDriver(processor, config, opts...), nil
}
