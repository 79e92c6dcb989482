package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"cellscraper/config"
)

// ChromeBrowser implements Browser on a headless Chrome session driven with
// chromedp.
type ChromeBrowser struct {
	sel             config.Selectors
	pageLoadTimeout time.Duration

	browserCtx   context.Context
	cancelBrowse context.CancelFunc
	cancelAlloc  context.CancelFunc
}

// NewChromeBrowser starts a Chrome session. The session lives until Close.
func NewChromeBrowser(ctx context.Context, cfg *config.Config) *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocatorCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowse := chromedp.NewContext(allocatorCtx)

	return &ChromeBrowser{
		sel:             cfg.Selectors,
		pageLoadTimeout: cfg.PageLoadTimeout,
		browserCtx:      browserCtx,
		cancelBrowse:    cancelBrowse,
		cancelAlloc:     cancelAlloc,
	}
}

// Navigate opens url and waits for the first result card to render.
func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("."+b.sel.ResultCard, chromedp.ByQuery),
	)
}

// DismissCookieBanner clicks the consent button by its visible text.
func (b *ChromeBrowser) DismissCookieBanner(ctx context.Context) error {
	script := fmt.Sprintf(`(() => {
		for (const btn of document.querySelectorAll('button')) {
			if ((btn.textContent || '').includes(%q)) {
				btn.click();
				return true;
			}
		}
		return false;
	})();`, b.sel.CookieButton)

	var clicked bool
	if err := b.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("cookie banner not found")
	}
	return nil
}

// CardCount returns the number of rendered result cards.
func (b *ChromeBrowser) CardCount(ctx context.Context) (int, error) {
	script := fmt.Sprintf(`document.querySelectorAll('.%s').length`, b.sel.ResultCard)
	var count int
	err := b.run(ctx, chromedp.Evaluate(script, &count))
	return count, err
}

// Cards extracts name and link from every rendered result card.
func (b *ChromeBrowser) Cards(ctx context.Context) ([]CardResult, error) {
	script := fmt.Sprintf(`(() => {
		const out = [];
		for (const card of document.querySelectorAll('.%s')) {
			const name = card.querySelector('.%s');
			const a = (name || card).querySelector('.%s') || card.querySelector('.%s');
			out.push({
				name: a ? (a.textContent || '').trim() : '',
				link: a ? (a.href || '') : ''
			});
		}
		return out;
	})();`, b.sel.ResultCard, b.sel.CardName, b.sel.CardLink, b.sel.CardLink)

	var raw []map[string]string
	if err := b.run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, err
	}

	cards := make([]CardResult, 0, len(raw))
	for _, item := range raw {
		card := CardResult{Name: item["name"], Link: item["link"]}
		if card.Name == "" || card.Link == "" {
			card.Err = fmt.Errorf("result card missing name or link")
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// NextDisabled reports whether the next-page button carries the disabled
// attribute.
func (b *ChromeBrowser) NextDisabled(ctx context.Context) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const wrapper = document.querySelector('.%s');
		if (!wrapper) return true;
		const btn = wrapper.querySelector('.%s');
		return !btn || btn.disabled;
	})();`, b.sel.NextWrapper, b.sel.NextButton)

	var disabled bool
	err := b.run(ctx, chromedp.Evaluate(script, &disabled))
	return disabled, err
}

// ClickNext advances to the next results page.
func (b *ChromeBrowser) ClickNext(ctx context.Context) error {
	selector := fmt.Sprintf(".%s .%s", b.sel.NextWrapper, b.sel.NextButton)
	return b.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// Close releases the Chrome session and its allocator.
func (b *ChromeBrowser) Close() error {
	b.cancelBrowse()
	b.cancelAlloc()
	return nil
}

func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.browserCtx, b.pageLoadTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}
