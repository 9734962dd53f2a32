package di

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-wallet-query/cache"
	"github.com/goliatone/go-wallet-query/querycache"
	"github.com/goliatone/go-wallet-query/servicecache"
	"github.com/goliatone/go-wallet-query/wallet"
)

// Container builds and owns the wallet query stack: the response cache in
// front of the wallet services, the query cache and client, and the wallet
// API registered on them. Every getter returns the same instance.
type Container struct {
	config Config

	logger        *zap.Logger
	registry      *prometheus.Registry
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	boundary      *servicecache.CachedBoundary
	store         *querycache.Cache
	client        *querycache.Client
	api           *wallet.API
}

// Option overrides a container dependency.
type Option func(*Container)

// WithLogger replaces the logger built from Config.Log.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithRegistry registers the cache metrics on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Container) {
		c.registry = registry
	}
}

// NewContainer validates config and wires every component around boundary,
// the wallet services.
func NewContainer(config Config, boundary wallet.Boundary, opts ...Option) (*Container, error) {
	if boundary == nil {
		return nil, goerrors.New("wallet boundary is required", goerrors.CategoryBadInput).
			WithTextCode("BOUNDARY_REQUIRED")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Container{config: config}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		logger, err := NewLogger(config.Log)
		if err != nil {
			return nil, err
		}
		c.logger = logger
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}

	cacheService, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, err
	}
	c.cacheService = cacheService
	c.keySerializer = cache.NewDefaultKeySerializer()
	c.boundary = servicecache.New(boundary, c.cacheService, c.keySerializer,
		servicecache.WithLogger(c.logger.Named("servicecache")))

	queryConfig := config.Query
	queryConfig.Logger = c.logger
	queryConfig.Registerer = c.registry
	store, err := querycache.NewCache(queryConfig)
	if err != nil {
		return nil, err
	}
	c.store = store
	c.client = querycache.NewClient(store,
		querycache.WithKeySerializer(c.keySerializer),
		querycache.WithStrictDependencies(config.Query.StrictDependencies),
	)

	api, err := wallet.NewAPI(c.client, c.boundary,
		wallet.WithConfig(config.Wallet),
		wallet.WithLogger(c.logger),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	c.api = api

	c.logger.Debug("wallet query container ready",
		zap.Duration("keep_unused_data_for", queryConfig.KeepUnusedDataFor),
		zap.Bool("strict_dependencies", config.Query.StrictDependencies),
	)
	return c, nil
}

// NewContainerWithDefaults wires boundary with DefaultConfig.
func NewContainerWithDefaults(boundary wallet.Boundary, opts ...Option) (*Container, error) {
	return NewContainer(DefaultConfig(), boundary, opts...)
}

// NewContainerFromFile loads a YAML config file and wires boundary with it.
func NewContainerFromFile(path string, boundary wallet.Boundary, opts ...Option) (*Container, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return NewContainer(config, boundary, opts...)
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Registry exposes the metrics registry for scraping.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// CacheService returns the response cache used by the boundary decorator.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the serializer shared by the response cache and the
// query client.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Boundary returns the cached wallet services.
func (c *Container) Boundary() *servicecache.CachedBoundary {
	return c.boundary
}

func (c *Container) QueryCache() *querycache.Cache {
	return c.store
}

func (c *Container) Client() *querycache.Client {
	return c.client
}

// API returns the wallet endpoints.
func (c *Container) API() *wallet.API {
	return c.api
}

// Close waits for in-flight fetches, drops the query cache and flushes the
// logger.
func (c *Container) Close() {
	c.store.Wait()
	c.store.Close()
	_ = c.logger.Sync()
}
