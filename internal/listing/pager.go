package listing

import (
	"context"
	"time"

	"cellscraper/config"
	"cellscraper/internal/record"
	"cellscraper/logger"
	"cellscraper/pkg/errors"
)

// Pager drives the browser through every results page and collects the link
// index. It never parallelizes: page N+1 is only requested after page N is
// fully extracted.
type Pager struct {
	browser Browser
	cfg     *config.Config
	log     *logger.Logger

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewPager builds a pager over the given browser session.
func NewPager(browser Browser, cfg *config.Config) *Pager {
	return &Pager{
		browser: browser,
		cfg:     cfg,
		log:     logger.ForListing(),
		sleep:   time.Sleep,
	}
}

// Run walks the listing from the configured search URL to the last page and
// returns the collected index and a traversal report. The browser session is
// closed on return.
func (p *Pager) Run(ctx context.Context) (*record.LinkIndex, *record.ListingReport, error) {
	defer p.browser.Close()

	if err := p.browser.Navigate(ctx, p.cfg.SearchURL); err != nil {
		return nil, nil, errors.NewNetwork("listing", "failed to open search page", err)
	}

	ix := record.NewLinkIndex()
	report := &record.ListingReport{}

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if page == 1 {
			if err := p.browser.DismissCookieBanner(ctx); err != nil {
				p.log.Debug().Err(err).Msg("Cookie banner not dismissed")
			}
		}

		lastPage, err := p.waitForCards(ctx)
		if err != nil {
			return nil, nil, errors.NewNetwork("listing", "failed waiting for result cards", err)
		}

		cards, err := p.browser.Cards(ctx)
		if err != nil {
			return nil, nil, errors.NewNetwork("listing", "failed to extract result cards", err)
		}

		for _, card := range cards {
			if card.Err != nil {
				scrapeErr := errors.NewListingCard("skipping unreadable result card", card.Err)
				p.log.Warn().Err(scrapeErr).Int("page", page).Msg("Card skipped")
				continue
			}
			if seen := ix.Set(card.Name, card.Link); seen {
				report.Duplicates = append(report.Duplicates, card.Name)
			}
		}

		report.Pages = page
		p.log.Info().
			Int("page", page).
			Int("cards", len(cards)).
			Int("unique", ix.Len()).
			Int("duplicates", len(report.Duplicates)).
			Msg("Listing page extracted")

		if lastPage {
			break
		}
		if err := p.browser.ClickNext(ctx); err != nil {
			return nil, nil, errors.NewNetwork("listing", "failed to advance to next page", err)
		}
		p.sleep(p.cfg.StandardWait)
	}

	report.Total = ix.Len()
	return ix, report, nil
}

// waitForCards blocks until the page has settled. Interior pages must render
// the full per-page card count; the terminal page gets one longer settle wait
// and keeps whatever rendered. Returns whether this is the last page.
func (p *Pager) waitForCards(ctx context.Context) (bool, error) {
	deadline := time.Now().Add(p.cfg.PageLoadTimeout)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		disabled, err := p.browser.NextDisabled(ctx)
		if err != nil {
			return false, err
		}
		if disabled {
			p.sleep(p.cfg.LastPageWait)
			return true, nil
		}

		count, err := p.browser.CardCount(ctx)
		if err != nil {
			return false, err
		}
		if count == p.cfg.CellsPerPage {
			return false, nil
		}
		if !time.Now().Before(deadline) {
			p.log.Warn().
				Int("cards", count).
				Int("expected", p.cfg.CellsPerPage).
				Msg("Page never settled, extracting partial page")
			return false, nil
		}
		p.sleep(p.cfg.StandardWait)
	}
}
