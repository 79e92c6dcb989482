package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents request-level failures (timeout, non-2xx, connect)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing and extraction errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeListingCard represents a single result card that could not be read
	ErrorTypeListingCard ErrorType = "listing_card"
	// ErrorTypeRateLimit represents rate limiting by the target site
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExport represents persistence-layer errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ScrapeError represents an error from one stage of the scrape
type ScrapeError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether retrying the same operation could succeed.
// Per-record failures are skipped rather than retried, but the publisher and
// fetch block cache use this to decide whether a block key is worth setting.
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeParsing, ErrorTypeListingCard:
		return false
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, stage, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeNetwork, stage, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, stage, message, err)
}

// NewListingCard creates a new listing card error
func NewListingCard(message string, err error) *ScrapeError {
	return New(ErrorTypeListingCard, "listing", message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(stage string, duration time.Duration) *ScrapeError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, stage, message, nil)
}

// NewExport creates a new export error
func NewExport(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeExport, stage, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "config", message, err)
}
