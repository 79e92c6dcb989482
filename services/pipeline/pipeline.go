// Package pipeline sequences the scrape: listing discovery, per-record
// processing, and the final merge.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cellscraper/config"
	"cellscraper/internal/export"
	"cellscraper/internal/listing"
	"cellscraper/internal/parse"
	"cellscraper/internal/record"
	"cellscraper/logger"
	"cellscraper/pkg/errors"
)

// FetchFunc retrieves one product page. Satisfied by *fetch.Fetcher.Fetch.
type FetchFunc func(ctx context.Context, url string) (*goquery.Document, error)

// RecordPublisher is the subset of the publisher service the pipeline uses.
type RecordPublisher interface {
	Publish(key string, message []byte) error
	TrimStreams() error
}

// Pipeline runs the scrape end to end. Records are processed strictly one at
// a time in link-index order.
type Pipeline struct {
	cfg      *config.Config
	fetch    FetchFunc
	parser   *parse.PageParser
	exporter *export.Exporter
	pub      RecordPublisher
	log      *logger.Logger
}

// New builds a pipeline. pub may be nil when no publisher is configured.
func New(cfg *config.Config, fetch FetchFunc, parser *parse.PageParser, exporter *export.Exporter, pub RecordPublisher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetch:    fetch,
		parser:   parser,
		exporter: exporter,
		pub:      pub,
		log:      logger.ForPipeline(),
	}
}

// DiscoverLinks walks the listing with the given browser and persists the
// resulting link index.
func (p *Pipeline) DiscoverLinks(ctx context.Context, browser listing.Browser) (*record.LinkIndex, error) {
	pager := listing.NewPager(browser, p.cfg)
	ix, report, err := pager.Run(ctx)
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Int("pages", report.Pages).
		Int("total", report.Total).
		Int("duplicates", len(report.Duplicates)).
		Msg("Listing walk complete")
	if len(report.Duplicates) > 0 {
		p.log.Warn().Strs("names", report.Duplicates).Msg("Duplicate listing names overwritten")
	}

	if err := export.SaveLinks(p.cfg.LinksFile, ix); err != nil {
		return nil, err
	}
	p.log.Info().Str("file", p.cfg.LinksFile).Msg("Link index saved")
	return ix, nil
}

// ProcessRecords fetches, parses, and saves every record in index order. IDs
// are assigned from 1 by position; a resume cursor skips the prefix before
// the named record while IDs keep counting. Per-record failures are recorded
// and skipped, never fatal.
func (p *Pipeline) ProcessRecords(ctx context.Context, ix *record.LinkIndex, resumeFrom string) *record.ProcessReport {
	names := ix.Names()
	report := &record.ProcessReport{Total: len(names)}

	start := 0
	if resumeFrom != "" {
		for i, name := range names {
			if name == resumeFrom {
				start = i
				p.log.Info().Str("name", name).Int("id", i+1).Msg("Resuming")
				break
			}
		}
	}

	for i := start; i < len(names); i++ {
		if ctx.Err() != nil {
			p.log.Warn().Msg("Processing interrupted")
			break
		}

		name := names[i]
		id := i + 1
		url, _ := ix.URL(name)

		if p.exporter.RecordExists(name) && !p.cfg.ForceRefresh {
			p.log.Debug().Str("name", name).Msg("Already extracted, skipping")
			report.Skipped++
			continue
		}

		p.log.Info().Str("name", name).Msgf("[%d/%d] Processing", id, len(names))
		if err := p.processOne(ctx, name, url, id); err != nil {
			logger.LogError("pipeline", err, "[%d/%d] Failed: %s", id, len(names), name)
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Scraped++
	}

	return report
}

func (p *Pipeline) processOne(ctx context.Context, name, url string, id int) error {
	doc, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}

	catalog := catalogFromURL(url)
	rec, err := p.parser.ParseRecord(doc, name, catalog, id, url)
	if err != nil {
		return err
	}

	if err := p.exporter.SaveRecord(name, rec); err != nil {
		return err
	}

	if p.pub != nil {
		payload, err := json.Marshal(rec)
		if err != nil {
			return errors.NewExport("publish", "failed to encode record for publishing", err)
		}
		if err := p.pub.Publish(name, payload); err != nil {
			// Publishing is a side channel; the saved file is the source of truth.
			p.log.Warn().Str("name", name).Err(err).Msg("Publish failed")
		}
	}
	return nil
}

// MergeAll merges every saved record file into the configured dataset file.
func (p *Pipeline) MergeAll() (int, error) {
	count, err := p.exporter.Merge(p.cfg.MergedFile)
	if err != nil {
		return 0, err
	}
	p.log.Info().Int("records", count).Str("file", p.cfg.MergedFile).Msg("Merged dataset written")
	return count, nil
}

// RefreshPrices re-fetches every page in the index and overwrites only the
// price and link fields of the merged dataset. Per-record files are left
// untouched.
func (p *Pipeline) RefreshPrices(ctx context.Context, ix *record.LinkIndex) error {
	dataset, err := export.LoadDataset(p.cfg.MergedFile)
	if err != nil {
		return err
	}

	names := ix.Names()
	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		url, _ := ix.URL(name)

		entry, ok := dataset[name]
		if !ok {
			continue
		}

		doc, err := p.fetch(ctx, url)
		if err != nil {
			logger.LogError("pipeline", err, "[%d/%d] Price refresh failed: %s", i+1, len(names), name)
			continue
		}

		entry[record.FieldPrice] = p.parser.ParsePrice(doc)
		entry[record.FieldLink] = url
		p.log.Debug().Str("name", name).Msgf("[%d/%d] Price updated", i+1, len(names))
	}

	return export.SaveDataset(p.cfg.MergedFile, dataset)
}

// Run executes the full pipeline: link discovery (or reload), record
// processing, and merge. browser may be nil when SCRAPE_LINKS is off.
func (p *Pipeline) Run(ctx context.Context, browser listing.Browser) error {
	var ix *record.LinkIndex
	var err error

	if p.cfg.ScrapeLinks {
		ix, err = p.DiscoverLinks(ctx, browser)
	} else {
		ix, err = export.LoadLinks(p.cfg.LinksFile)
	}
	if err != nil {
		return err
	}

	if p.cfg.RefreshPrices {
		return p.RefreshPrices(ctx, ix)
	}

	report := p.ProcessRecords(ctx, ix, p.cfg.ResumeFrom)

	if _, err := p.MergeAll(); err != nil {
		return err
	}

	if p.pub != nil {
		if err := p.pub.TrimStreams(); err != nil {
			p.log.Warn().Err(err).Msg("Stream trim failed")
		}
	}

	p.log.Info().
		Int("total", report.Total).
		Int("scraped", report.Scraped).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failed)).
		Msg("Pipeline complete")
	if len(report.Failed) > 0 {
		p.log.Warn().Strs("names", report.Failed).Msg("Records failed during scraping")
	}
	return nil
}

// catalogFromURL derives the catalog number from the last URL path segment.
func catalogFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.ToUpper(trimmed)
}
