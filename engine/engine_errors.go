package engine

import "errors"

var (
	// ErrPartialData means a page fetch failed mid-aggregation. The whole
	// result is discarded; clients never receive a truncated cube.
	ErrPartialData = errors.New("aggregation aborted before all pages were fetched")

	ErrOpenFailed = errors.New("could not open app session")
)
