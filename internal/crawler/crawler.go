// Package crawler drives the listing and detail sessions through category
// tabs, paginated lists and infinite-scroll detail pages, writing each new
// item to the document store.
package crawler

import (
	"context"
	"fmt"
	"time"

	"foody/indexer/internal/browser"
	"foody/indexer/internal/domain"
	"foody/indexer/internal/extract"
	"foody/indexer/internal/fingerprint"
	"foody/indexer/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

type Options struct {
	StartURL      string
	CategoryCount int
	MaxPages      int

	// TabSelector is a format string taking the 1-based category position.
	TabSelector string
	ListReady   string
	NextPage    string
	DetailReady string

	PageTimeout   time.Duration
	DetailTimeout time.Duration

	ScrollStep      int
	ScrollPause     time.Duration
	MaxScrollPasses int
}

func DefaultOptions() Options {
	return Options{
		StartURL:        "https://www.foody.vn/ha-noi",
		CategoryCount:   7,
		MaxPages:        50,
		TabSelector:     "#box-delivery > div.n-header > div.nav-box > ul > li:nth-child(%d)",
		ListReady:       "#box-delivery > div:nth-of-type(2) > ul > li a.avatar img",
		NextPage:        extract.DefaultSelectors().NextPage,
		DetailReady:     "#scroll-spy > div > div:nth-of-type(1)",
		PageTimeout:     30 * time.Second,
		DetailTimeout:   30 * time.Second,
		ScrollStep:      2000,
		ScrollPause:     1500 * time.Millisecond,
		MaxScrollPasses: 200,
	}
}

// Crawler runs one sequential crawl over two exclusive sessions: listing
// keeps the category and page position while detail loads item pages.
// A Crawler is not safe for concurrent use.
type Crawler struct {
	listing browser.Session
	detail  browser.Session
	store   store.DocumentStore
	parser  *extract.Parser
	limiter ratelimit.Limiter
	opts    Options

	stats  domain.CrawlStats
	logger *log.Entry
}

// New takes ownership of both sessions; Run closes them.
func New(
	listing browser.Session,
	detail browser.Session,
	store store.DocumentStore,
	parser *extract.Parser,
	limiter ratelimit.Limiter,
	opts Options,
) *Crawler {
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	if opts.MaxScrollPasses <= 0 {
		opts.MaxScrollPasses = DefaultOptions().MaxScrollPasses
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultOptions().MaxPages
	}

	return &Crawler{
		listing: listing,
		detail:  detail,
		store:   store,
		parser:  parser,
		limiter: limiter,
		opts:    opts,
		logger:  log.NewEntry(log.StandardLogger()),
	}
}

// Run crawls every category and returns what it did. Per-page and per-item
// failures are logged and skipped; a dead session, a store failure or ctx
// cancellation ends the run with an error. Both sessions are closed before
// Run returns.
func (c *Crawler) Run(ctx context.Context) (*domain.CrawlStats, error) {
	defer c.release()

	c.stats = domain.CrawlStats{RunID: uuid.NewString()}
	c.logger = log.WithField("run_id", c.stats.RunID)
	c.logger.Infof("🚀 Starting crawl of %s (%d categories)", c.opts.StartURL, c.opts.CategoryCount)

	c.limiter.Take()
	if err := c.listing.Open(ctx, c.opts.StartURL); err != nil {
		return c.snapshot(), fmt.Errorf("failed to open start page: %w", err)
	}

	for _, category := range domain.CategoryRefs(c.opts.CategoryCount) {
		if err := ctx.Err(); err != nil {
			return c.snapshot(), err
		}
		if err := c.crawlCategory(ctx, category); err != nil {
			c.logger.Errorf("❌ Crawl aborted in %s: %v", category, err)
			return c.snapshot(), err
		}
	}

	s := c.snapshot()
	c.logger.Infof("✅ Crawl finished: %d pages, %d items seen, %d captured, %d skipped, %d failed",
		s.Pages, s.Seen, s.Captured, s.Skipped, s.Failed)
	return s, nil
}

func (c *Crawler) crawlCategory(ctx context.Context, category domain.CategoryRef) error {
	tab := fmt.Sprintf(c.opts.TabSelector, int(category))

	c.limiter.Take()
	if err := c.listing.Click(ctx, tab); err != nil {
		if isFatal(ctx, err) {
			return err
		}
		c.logger.Warnf("⚠️ Could not select %s, skipping it: %v", category, err)
		return nil
	}
	c.stats.Categories++
	c.logger.Infof("🔄 Processing %s", category)

	for page := 1; page <= c.opts.MaxPages; page++ {
		more, err := c.crawlPage(ctx, category, page)
		if err != nil {
			return err
		}
		if !more {
			c.logger.Infof("Last page of %s is %d", category, page)
			return nil
		}

		c.limiter.Take()
		if err := c.listing.Click(ctx, c.opts.NextPage); err != nil {
			if isFatal(ctx, err) {
				return err
			}
			c.logger.Infof("No more pages in %s after page %d", category, page)
			return nil
		}
	}

	c.logger.Warnf("⚠️ Stopped %s at the %d page limit", category, c.opts.MaxPages)
	return nil
}

// crawlPage reports whether the page showed a next-page control. A page that
// could not be read counts as having one, so the click decides.
func (c *Crawler) crawlPage(ctx context.Context, category domain.CategoryRef, page int) (bool, error) {
	if err := c.listing.WaitFor(ctx, c.opts.ListReady, c.opts.PageTimeout); err != nil {
		if isFatal(ctx, err) {
			return false, err
		}
		c.stats.PageTimeouts++
		c.logger.Warnf("⏱️ Time out while waiting for page %d of %s: %v", page, category, err)
		return true, nil
	}

	html, err := c.listing.Markup(ctx)
	if err != nil {
		if isFatal(ctx, err) {
			return false, err
		}
		c.logger.Warnf("⚠️ Could not read page %d of %s: %v", page, category, err)
		return true, nil
	}

	listing, err := c.parser.ParseListingPage(html)
	if err != nil {
		c.logger.Warnf("⚠️ Could not parse page %d of %s: %v", page, category, err)
		return true, nil
	}
	c.stats.Pages++
	c.logger.Debugf("Page %d of %s has %d items", page, category, len(listing.Items))

	for _, item := range listing.Items {
		if err := c.captureItem(ctx, item); err != nil {
			return false, err
		}
	}
	return listing.HasNext, nil
}

// captureItem returns an error only when the whole run must stop.
func (c *Crawler) captureItem(ctx context.Context, item domain.ItemSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.stats.Seen++

	id := fingerprint.Compute(item.Name, item.Address)
	logger := c.logger.WithFields(log.Fields{"id": id, "name": item.Name})

	exists, err := c.store.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check item %s: %w", id, err)
	}
	if exists {
		c.stats.Skipped++
		logger.Debug("Already captured, skipping")
		return nil
	}

	if item.Link == "" {
		c.stats.Failed++
		logger.Warn("⚠️ Item has no detail link, skipping")
		return nil
	}

	detail, err := c.captureDetail(ctx, id, item)
	if err != nil {
		if isFatal(ctx, err) {
			return err
		}
		c.stats.Failed++
		logger.Warnf("⚠️ Abandoned item: %v", err)
		return nil
	}

	if err := c.store.Upsert(ctx, detail); err != nil {
		return fmt.Errorf("failed to save item %s: %w", id, err)
	}
	c.stats.Captured++
	logger.Infof("✅ Captured %q with %d menu lines", item.Name, len(detail.Menu))
	return nil
}

func (c *Crawler) captureDetail(ctx context.Context, id string, item domain.ItemSummary) (*domain.ItemDetail, error) {
	c.limiter.Take()
	if err := c.detail.Open(ctx, item.Link); err != nil {
		return nil, err
	}

	if err := c.detail.WaitFor(ctx, c.opts.DetailReady, c.opts.DetailTimeout); err != nil {
		return nil, fmt.Errorf("menu did not load: %w", err)
	}

	tag, menu, err := c.accumulateMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read menu: %w", err)
	}

	return &domain.ItemDetail{
		ID: id,
		ItemBody: domain.ItemBody{
			Name:    item.Name,
			Link:    item.Link,
			Avatar:  item.Avatar,
			Address: item.Address,
			Tag:     tag,
			Menu:    menu,
		},
	}, nil
}

func (c *Crawler) release() {
	if err := c.listing.Close(); err != nil {
		c.logger.Warnf("⚠️ Failed to close listing session: %v", err)
	}
	if err := c.detail.Close(); err != nil {
		c.logger.Warnf("⚠️ Failed to close detail session: %v", err)
	}
}

func (c *Crawler) snapshot() *domain.CrawlStats {
	s := c.stats
	return &s
}

func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || browser.IsFatal(err)
}
