// Package extractor turns the HTML of an Instagram post page into a
// media.Record.
//
// The post page embeds its data as a script assignment:
//
//	<script>window._sharedData = {...};</script>
//
// Classify cuts the JSON literal out between the two markers, decodes it and
// reads entry_data.PostPage[0].graphql.shortcode_media. The __typename of
// that object decides the record kind:
//
//	GraphImage   -> media.KindImage    (display_url)
//	GraphVideo   -> media.KindVideo    (video_url)
//	GraphSidecar -> media.KindCarousel (children in document order)
//
// Any other typename is an error rather than an empty record. All failures
// are *ExtractionError values and can be matched with errors.Is against the
// Err* sentinels:
//
//	rec, err := extractor.Classify(page)
//	if errors.Is(err, extractor.ErrMarkerNotFound) {
//	    // not a post page, or the markup changed
//	}
package extractor
