package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gorobchenkoann/save-from-inst/pkg/instagram"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

// PageMeta holds the Open Graph tags of a post page
type PageMeta struct {
	Title       string
	Description string
	Image       string
}

// Describe reads the og: meta tags of a page. It is best effort: an
// unparseable page yields an empty PageMeta.
func Describe(rawPage string) PageMeta {
	var meta PageMeta

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return meta
	}

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		content, _ := s.Attr("content")
		content = strings.TrimSpace(content)

		switch property {
		case "og:title":
			meta.Title = content
		case "og:description":
			meta.Description = content
		case "og:image":
			meta.Image = content
		}
	})

	if meta.Title == "" {
		meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return meta
}

// Parse classifies a page and annotates the record with its source URL and
// caption. Classification errors are returned unchanged.
func Parse(rawPage, sourceURL string) (*media.Record, error) {
	rec, err := Classify(rawPage)
	if err != nil {
		return nil, err
	}

	rec.SourceURL = sourceURL
	if rec.Shortcode == "" {
		rec.Shortcode = instagram.ShortcodeFromURL(sourceURL)
	}

	meta := Describe(rawPage)
	rec.Caption = meta.Description
	if rec.Caption == "" {
		rec.Caption = meta.Title
	}

	return rec, nil
}
