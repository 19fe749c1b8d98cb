package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

var _ Session = (*Chrome)(nil)

// Options configures a headless Chrome session.
type Options struct {
	Headless      bool
	UserAgent     string
	ProxyURL      string
	WindowWidth   int
	WindowHeight  int
	ActionTimeout time.Duration
}

// Chrome is a Session backed by one chromedp browser and tab.
type Chrome struct {
	ctx           context.Context
	cancel        context.CancelFunc
	allocCancel   context.CancelFunc
	actionTimeout time.Duration
	closeOnce     sync.Once
}

// Launch starts a browser process. The returned session owns it until Close.
func Launch(ctx context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ProxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyURL))
		log.Infof("🔗 Browser using proxy: %s", opts.ProxyURL)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Chrome{
		ctx:           browserCtx,
		cancel:        cancel,
		allocCancel:   allocCancel,
		actionTimeout: timeout,
	}, nil
}

func (c *Chrome) Open(ctx context.Context, url string) error {
	if err := c.run(ctx, c.actionTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to open %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	present, err := c.exists(ctx, selector)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	if err := c.run(ctx, c.actionTimeout, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (c *Chrome) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return c.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (c *Chrome) Markup(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, c.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read markup: %w", err)
	}
	return html, nil
}

func (c *Chrome) ScrollBy(ctx context.Context, px int) error {
	script := fmt.Sprintf("window.scrollBy(0, %d);", px)
	if err := c.run(ctx, c.actionTimeout, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

func (c *Chrome) ScrollHeight(ctx context.Context) (int64, error) {
	var height float64
	if err := c.run(ctx, c.actionTimeout, chromedp.Evaluate("document.body.scrollHeight", &height)); err != nil {
		return 0, fmt.Errorf("failed to read scroll height: %w", err)
	}
	return int64(height), nil
}

// Close releases the tab and the browser process. It is safe to call twice.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.allocCancel()
	})
	return nil
}

func (c *Chrome) exists(ctx context.Context, selector string) (bool, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return false, fmt.Errorf("failed to quote selector: %w", err)
	}

	var present bool
	script := fmt.Sprintf("document.querySelector(%s) !== null", quoted)
	if err := c.run(ctx, c.actionTimeout, chromedp.Evaluate(script, &present)); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return present, nil
}

// run executes actions on the session under timeout and maps failures onto
// the package errors. ctx cancellation interrupts the action.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if c.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}

	switch {
	case c.ctx.Err() != nil,
		errors.Is(err, chromedp.ErrChannelClosed),
		errors.Is(err, chromedp.ErrInvalidTarget):
		return fmt.Errorf("%w: %v", ErrSessionClosed, err)
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return err
}
