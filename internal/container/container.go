package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foody/indexer/internal/browser"
	"foody/indexer/internal/config"
	"foody/indexer/internal/crawler"
	"foody/indexer/internal/domain"
	"foody/indexer/internal/domain/task"
	"foody/indexer/internal/extract"
	"foody/indexer/internal/indexsync"
	"foody/indexer/internal/proxy"
	"foody/indexer/internal/queue"
	"foody/indexer/internal/search"
	"foody/indexer/internal/server"
	"foody/indexer/internal/service"
	"foody/indexer/internal/state"
	"foody/indexer/internal/store"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// ErrQueueDisabled is returned by queue-backed operations when redis is off.
var ErrQueueDisabled = errors.New("sync queue requires redis.enabled")

// Container holds all initialized components
type Container struct {
	Config   *config.Config
	Store    store.DocumentStore
	Search   *search.Client
	Parser   *extract.Parser
	Pipeline *indexsync.Pipeline

	// Nil when redis is disabled.
	Queue   queue.Queue
	Service *service.Service

	redis *redis.Client
}

// New connects the store, the search client and, when enabled, redis.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	docs, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	c.Store = docs

	if cfg.Redis.Enabled {
		if err := c.connectRedis(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	c.Search = search.NewClient(search.Config{
		URL:        cfg.Search.URL,
		Index:      cfg.Search.Index,
		Username:   cfg.Search.Username,
		Password:   cfg.Search.Password,
		Timeout:    config.Seconds(cfg.Search.Timeout),
		MaxRetries: cfg.Search.MaxRetries,
	})
	c.Pipeline = indexsync.NewPipeline(c.Store, c.Search)
	c.Parser = extract.NewParser(cfg.Crawl.BaseURL, cfg.Crawl.Selectors)

	if c.Queue != nil {
		c.Service = service.NewService(c.Pipeline, c.Queue, config.Seconds(cfg.Redis.MinIdleTime))
	}

	return c, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.DocumentStore, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := store.ConnectPostgres(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		log.Infof("✅ Connected to Postgres at %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
		return pg, nil
	case "sqlite":
		db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infof("✅ Opened SQLite store %s", cfg.SQLitePath)
		return db, nil
	case "memory":
		log.Warn("⚠️ Using in-memory store, documents are lost on exit")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, cfg.Driver)
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")
	c.redis = rdb

	c.Store = store.NewCachedStore(c.Store, state.NewRedisSeenSet(rdb, cfg.KeyPrefix))

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg, task.SyncTaskType)
	if err != nil {
		return err
	}
	c.Queue = redisQueue
	return nil
}

// RunCrawl launches the listing and detail browsers and crawls the site.
// With redis enabled, a crawl that captured anything queues a sync.
func (c *Container) RunCrawl(ctx context.Context) (*domain.CrawlStats, error) {
	cfg := c.Config

	proxies, err := proxy.NewPool(ctx, cfg.Browser.Proxies, cfg.Browser.ProxyCheckURL, config.Seconds(cfg.Browser.ProxyCheckTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy pool: %w", err)
	}
	if len(cfg.Browser.Proxies) > 0 && proxies.Len() == 0 {
		log.Warn("⚠️ No configured proxy works, browsing directly")
	}

	listing, err := browser.Launch(ctx, c.browserOptions(proxies.Next()))
	if err != nil {
		return nil, fmt.Errorf("failed to launch listing browser: %w", err)
	}
	detail, err := browser.Launch(ctx, c.browserOptions(proxies.Next()))
	if err != nil {
		_ = listing.Close()
		return nil, fmt.Errorf("failed to launch detail browser: %w", err)
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.Crawl.MaxRequestsPerSecond > 0 {
		limiter = ratelimit.New(cfg.Crawl.MaxRequestsPerSecond)
	}

	stats, err := crawler.New(listing, detail, c.Store, c.Parser, limiter, c.crawlOptions()).Run(ctx)
	if err != nil {
		return stats, err
	}

	if c.Service != nil && stats.Captured > 0 {
		if _, err := c.Service.RequestSync(ctx, &task.SyncTask{
			Reason:     "crawl",
			CrawlRunID: stats.RunID,
			Crawl:      stats,
		}); err != nil {
			log.Warnf("⚠️ Crawl finished but sync was not queued: %v", err)
		}
	}
	return stats, nil
}

func (c *Container) browserOptions(proxyURL string) browser.Options {
	cfg := c.Config.Browser
	return browser.Options{
		Headless:      cfg.Headless,
		UserAgent:     cfg.UserAgent,
		ProxyURL:      proxyURL,
		WindowWidth:   cfg.WindowWidth,
		WindowHeight:  cfg.WindowHeight,
		ActionTimeout: config.Seconds(cfg.ActionTimeout),
	}
}

func (c *Container) crawlOptions() crawler.Options {
	cfg := c.Config.Crawl
	return crawler.Options{
		StartURL:        cfg.StartURL,
		CategoryCount:   cfg.CategoryCount,
		MaxPages:        cfg.MaxPages,
		TabSelector:     cfg.TabSelector,
		ListReady:       cfg.ListReady,
		NextPage:        c.Parser.Selectors().NextPage,
		DetailReady:     cfg.DetailReady,
		PageTimeout:     config.Seconds(cfg.PageTimeout),
		DetailTimeout:   config.Seconds(cfg.DetailTimeout),
		ScrollStep:      cfg.ScrollStep,
		ScrollPause:     time.Duration(cfg.ScrollPauseMs) * time.Millisecond,
		MaxScrollPasses: cfg.MaxScrollPasses,
	}
}

// RunSync pushes the whole store into the search index now.
func (c *Container) RunSync(ctx context.Context) (*domain.SyncReport, error) {
	return c.Pipeline.Run(ctx)
}

// RequestSync queues a sync for a running worker.
func (c *Container) RequestSync(ctx context.Context, reason string) (string, error) {
	if c.Service == nil {
		return "", ErrQueueDisabled
	}
	return c.Service.RequestSync(ctx, &task.SyncTask{Reason: reason})
}

// RunWorker serves queued sync requests until ctx is done.
func (c *Container) RunWorker(ctx context.Context) error {
	if c.Service == nil {
		return ErrQueueDisabled
	}
	return c.Service.RunWorkers(ctx)
}

func (c *Container) SearchText(ctx context.Context, text string) (*search.SearchResult, error) {
	query, err := search.TextQuery(text)
	if err != nil {
		return nil, err
	}
	return c.Search.Search(ctx, query)
}

// Serve runs the HTTP front-end until ctx is done.
func (c *Container) Serve(ctx context.Context) error {
	return server.New(c.Config.Server.Addr(), c.Search).Start(ctx)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.Search != nil {
		errs = append(errs, c.Search.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Info("Container shut down successfully")
	return errors.Join(errs...)
}
