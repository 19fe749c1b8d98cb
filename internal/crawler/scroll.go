package crawler

import (
	"context"
	"time"

	"foody/indexer/internal/domain"
)

// accumulateMenu reads the detail page, scrolling down until the document
// stops growing, and returns the first tag seen with every distinct menu
// line. A name seen in an earlier pass keeps its first price and picture.
// Heights are compared once the scrolled distance reaches the last known
// height, so a page that does not grow ends after one pass when ScrollStep
// is at least its height, and after ceil(height/ScrollStep) passes
// otherwise. MaxScrollPasses bounds every case.
func (c *Crawler) accumulateMenu(ctx context.Context) (string, []domain.MenuLine, error) {
	lines := make(map[string]domain.MenuLine)
	var tag string

	lastHeight, err := c.detail.ScrollHeight(ctx)
	if err != nil {
		return "", nil, err
	}

	var offset int64
	for pass := 1; ; pass++ {
		html, err := c.detail.Markup(ctx)
		if err != nil {
			return "", nil, err
		}
		page, err := c.parser.ParseDetailPage(html)
		if err != nil {
			return "", nil, err
		}
		if tag == "" {
			tag = page.Tag
		}
		added := mergeMenu(lines, page.Menu)
		c.logger.Debugf("Scroll pass %d added %d menu lines (%d total)", pass, added, len(lines))

		if pass >= c.opts.MaxScrollPasses {
			c.logger.Warnf("⚠️ Menu still growing after %d scroll passes, keeping %d lines", pass, len(lines))
			break
		}

		if err := c.detail.ScrollBy(ctx, c.opts.ScrollStep); err != nil {
			return "", nil, err
		}
		offset += int64(c.opts.ScrollStep)
		if err := pause(ctx, c.opts.ScrollPause); err != nil {
			return "", nil, err
		}

		// Heights are compared only once the cumulative scroll has reached
		// the last known bottom.
		if offset < lastHeight {
			continue
		}
		height, err := c.detail.ScrollHeight(ctx)
		if err != nil {
			return "", nil, err
		}
		if height <= lastHeight {
			break
		}
		lastHeight = height
	}

	return tag, domain.MenuFromMap(lines), nil
}

// mergeMenu adds lines whose name acc does not hold yet and returns how many
// it added.
func mergeMenu(acc map[string]domain.MenuLine, lines []domain.MenuLine) int {
	added := 0
	for _, line := range lines {
		if _, ok := acc[line.Name]; ok {
			continue
		}
		acc[line.Name] = line
		added++
	}
	return added
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
