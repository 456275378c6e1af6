// Package instagram fetches Instagram post pages and media files.
//
// The Client sends browser-like headers, optionally attaches a stored session,
// paces requests through a ratelimit.Limiter and retries transient failures.
// Failures are returned as *errors.Error values typed by HTTP status:
//
//	client := instagram.NewClient(instagram.Options{Timeout: 30 * time.Second})
//	page, err := client.FetchPage(ctx, "https://www.instagram.com/p/BqdB0YHgOri/")
//	if errors.TypeOf(err) == errors.ErrorTypeNotFound {
//		// the post was removed
//	}
//
// The package also holds the JSON shapes embedded in post pages and helpers
// for working with post URLs and shortcodes.
package instagram
