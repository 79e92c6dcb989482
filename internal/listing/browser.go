// Package listing walks the paginated search results in a real browser and
// builds the name-to-URL link index.
package listing

import "context"

// CardResult is one result card read from the listing page. A card that could
// not be read carries Err and is skipped by the pager.
type CardResult struct {
	Name string
	Link string
	Err  error
}

// Browser abstracts the driven browser session so the pager can be tested
// without Chrome.
type Browser interface {
	// Navigate opens the given URL and waits for the result list to appear.
	Navigate(ctx context.Context, url string) error

	// DismissCookieBanner clicks the consent button if present. Absence of
	// the banner is not an error.
	DismissCookieBanner(ctx context.Context) error

	// CardCount returns the number of result cards currently rendered.
	CardCount(ctx context.Context) (int, error)

	// Cards extracts the rendered result cards.
	Cards(ctx context.Context) ([]CardResult, error)

	// NextDisabled reports whether the next-page control is disabled.
	NextDisabled(ctx context.Context) (bool, error)

	// ClickNext advances to the next page.
	ClickNext(ctx context.Context) error

	// Close releases the browser session.
	Close() error
}
