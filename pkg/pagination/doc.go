// Package pagination walks the cursor-paginated review listing.
//
// The listing exposes no page count. Each response carries an opaque cursor
// for the next page, so pages are fetched strictly one after another: the
// cursor for page N+1 is only known once page N has arrived.
//
// Example usage:
//
//	fetcher := pagination.NewFetcher(source, pagination.DefaultRetryConfig(), logger)
//	driver := pagination.NewDriver(fetcher, nil, pagination.DefaultPageDelay, logger)
//	out, err := driver.Run(ctx, firstPage, pagination.Options{
//		Request: req,
//		Budget:  pagination.Unbounded(),
//	})
//
// The Fetcher:
//   - Makes up to MaxRetries+1 attempts per page
//   - Waits BaseDelay * 2^attempt between attempts
//   - Treats an empty or missing batch like a failed request
//   - Reports exhaustion as OutcomeExhausted, never as an error
//
// The Driver:
//   - Starts at page 2 with the first page's unquoted cursor and batch
//   - Stops on budget reached, cursor exhausted or fetch exhausted
//   - Pauses DefaultPageDelay between pages
//   - Always returns what it collected, including on cancellation
//
// Known limitation: a page that is legitimately empty but still carries a
// cursor cannot be told apart from a rate-limited response. It is retried
// and, once retries run out, ends the walk as fetch_exhausted.
package pagination
