package usecase

import "time"

const (
	// DefaultSinkTimeout bounds a single sink write including retries.
	DefaultSinkTimeout = 30 * time.Second

	// DefaultListLimit is the page size used when none is requested.
	DefaultListLimit = 20

	// MaxListLimit caps the page size of account listings.
	MaxListLimit = 1000
)
