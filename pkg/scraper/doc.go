// Package scraper ties the pieces of save-from-inst together.
//
// Lookup fetches a post page, classifies the embedded media and records the
// result in the lookup history. Download saves the files of a classified
// post through a bounded worker pool and writes a JSON sidecar next to them:
//
//	s, err := scraper.New(cfg, log, scraper.WithHistory(store))
//	record, err := s.Lookup(ctx, "https://www.instagram.com/p/BqdB0YHgOri/")
//	report, err := s.Download(ctx, record, nil)
//
// A single image or video is saved as <shortcode>.jpg or <shortcode>.mp4.
// Carousel slides are saved in order as <shortcode>_01.jpg, <shortcode>_02.mp4
// and so on. Files that already exist are skipped unless overwriting is
// enabled.
package scraper
