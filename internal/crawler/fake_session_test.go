package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foody/indexer/internal/browser"
	"foody/indexer/internal/domain"
)

// nextControl matches the default next-page selector.
const nextControl = `<div class="n-listitems"><i class="li-page fa fa-angle-right"></i></div>`

// fakeListing serves pages[category][page-1] and follows tab and next clicks.
// Every page but the last of a category carries a next control, unless
// hideNext is set.
type fakeListing struct {
	pages    map[int][]string
	waitErrs map[[2]int]error
	clickErr error
	hideNext bool

	category int
	page     int
	opened   []string
	clicks   []string
	closed   bool
}

func (f *fakeListing) Open(_ context.Context, url string) error {
	f.opened = append(f.opened, url)
	return nil
}

func (f *fakeListing) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.clicks = append(f.clicks, selector)
	if f.clickErr != nil {
		return f.clickErr
	}

	var category int
	if _, err := fmt.Sscanf(selector, "tab-%d", &category); err == nil {
		if _, ok := f.pages[category]; !ok {
			return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
		}
		f.category, f.page = category, 1
		return nil
	}

	if selector == "next" && f.page < len(f.pages[f.category]) {
		f.page++
		return nil
	}
	return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
}

func (f *fakeListing) WaitFor(context.Context, string, time.Duration) error {
	return f.waitErrs[[2]int{f.category, f.page}]
}

func (f *fakeListing) Markup(context.Context) (string, error) {
	html := f.pages[f.category][f.page-1]
	if !f.hideNext && f.page < len(f.pages[f.category]) {
		html = strings.Replace(html, "</div></body>", nextControl+"</div></body>", 1)
	}
	return html, nil
}

func (f *fakeListing) ScrollBy(context.Context, int) error { return nil }
func (f *fakeListing) ScrollHeight(context.Context) (int64, error) { return 0, nil }

func (f *fakeListing) Close() error {
	f.closed = true
	return nil
}

// fakeDetail serves successive markups per link; the last one repeats.
// height returns the document height for the nth ScrollHeight call on the
// current page.
type fakeDetail struct {
	pages    map[string][]string
	height   func(call int) int64
	waitErrs map[string]error
	openErr  error

	current     string
	markupCalls int
	heightCalls int
	scrolls     int
	opened      []string
	closed      bool
}

func (f *fakeDetail) Open(_ context.Context, url string) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = append(f.opened, url)
	f.current = url
	f.markupCalls = 0
	f.heightCalls = 0
	return nil
}

func (f *fakeDetail) Click(context.Context, string) error { return nil }

func (f *fakeDetail) WaitFor(context.Context, string, time.Duration) error {
	return f.waitErrs[f.current]
}

func (f *fakeDetail) Markup(context.Context) (string, error) {
	seq := f.pages[f.current]
	idx := min(f.markupCalls, len(seq)-1)
	f.markupCalls++
	return seq[idx], nil
}

func (f *fakeDetail) ScrollBy(context.Context, int) error {
	f.scrolls++
	return nil
}

func (f *fakeDetail) ScrollHeight(context.Context) (int64, error) {
	h := f.height(f.heightCalls)
	f.heightCalls++
	return h, nil
}

func (f *fakeDetail) Close() error {
	f.closed = true
	return nil
}

func constantHeight(h int64) func(int) int64 {
	return func(int) int64 { return h }
}

func heightSequence(hs ...int64) func(int) int64 {
	return func(call int) int64 {
		return hs[min(call, len(hs)-1)]
	}
}

func listingMarkup(items ...domain.ItemSummary) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="box-delivery"><div class="n-header"></div><div class="n-list"><ul>`)
	for _, item := range items {
		fmt.Fprintf(&b,
			`<li><div><a class="avatar" href="%s"><img src="%s"></a></div><span class="none-quality-text">%s</span><div class="address">%s</div></li>`,
			item.Link, item.Avatar, item.Name, item.Address)
	}
	b.WriteString(`</ul></div></div></body></html>`)
	return b.String()
}

func detailMarkup(tag string, lines ...domain.MenuLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><div class="kind-restaurant">%s</div><div id="restaurant-item"><div><div>`, tag)
	for _, line := range lines {
		fmt.Fprintf(&b,
			`<div class="item-restaurant-row"><div class="inline"><img src="%s"></div><div class="item-restaurant-name">%s</div><div class="item-restaurant-desc">%s</div><div class="current-price">%.0f</div></div>`,
			line.Img, line.Name, line.Desc, line.Price)
	}
	b.WriteString(`</div></div></div></body></html>`)
	return b.String()
}
