package record

// ListingReport summarizes one traversal of the search results.
type ListingReport struct {
	Pages      int
	Total      int
	Duplicates []string
}

// ProcessReport summarizes one per-record processing pass.
type ProcessReport struct {
	Total   int
	Scraped int
	Skipped int
	Failed  []string
}
