// Package fetch retrieves product pages over plain HTTP and parses them into
// goquery documents, honoring a block window after the site rate-limits us.
package fetch

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cellscraper/helpers"
	"cellscraper/logger"
	"cellscraper/pkg/errors"
	"cellscraper/services/cache"
)

const blockKey = "fetch_blocked"

// Fetcher downloads product pages one at a time.
type Fetcher struct {
	timeout   time.Duration
	blockTime time.Duration
	cache     cache.CacheService
	log       *logger.Logger
}

// NewFetcher builds a Fetcher. The cache holds the rate-limit block marker;
// pass an in-memory cache when no shared one is configured.
func NewFetcher(timeout, blockTime time.Duration, c cache.CacheService) *Fetcher {
	return &Fetcher{
		timeout:   timeout,
		blockTime: blockTime,
		cache:     c,
		log:       logger.ForFetcher(),
	}
}

// Fetch downloads url and parses it. While a block window is live every call
// fails fast with a rate-limit error instead of touching the site.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if f.blocked() {
		return nil, errors.NewRateLimit("fetch", f.blockTime)
	}

	body, err := helpers.FetchWithRandomHeaders(ctx, url, f.timeout)
	if err != nil {
		var rl *helpers.ErrRateLimited
		if stderrors.As(err, &rl) {
			f.block()
			f.log.Warn().
				Str("url", url).
				Str("retry_after", rl.RetryAfter).
				Msg("Rate limited, blocking further fetches")
			return nil, errors.NewRateLimit("fetch", f.blockTime)
		}
		return nil, errors.NewNetwork("fetch", "request failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing("fetch", "response is not parseable HTML", err)
	}
	return doc, nil
}

func (f *Fetcher) blocked() bool {
	_, err := f.cache.Get(blockKey)
	return err == nil
}

func (f *Fetcher) block() {
	if err := f.cache.Set(blockKey, []byte("1"), f.blockTime); err != nil {
		f.log.Error().Err(err).Msg("Failed to record rate-limit block")
	}
}
