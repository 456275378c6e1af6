package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

const metaPage = `<!DOCTYPE html><html><head>
<title>Post by someone</title>
<meta property="og:title" content="someone on Instagram" />
<meta property="og:description" content=" 12 likes - sunset " />
<meta property="og:image" content="https://cdn.example/x.jpg" />
</head><body>
<script type="text/javascript">window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"__typename":"GraphImage","display_url":"X"}}}]}};</script>
</body></html>`

func TestDescribe(t *testing.T) {
	meta := Describe(metaPage)

	assert.Equal(t, "someone on Instagram", meta.Title)
	assert.Equal(t, "12 likes - sunset", meta.Description)
	assert.Equal(t, "https://cdn.example/x.jpg", meta.Image)
}

func TestDescribeFallsBackToTitle(t *testing.T) {
	meta := Describe(`<html><head><title> Just a title </title></head></html>`)

	assert.Equal(t, "Just a title", meta.Title)
	assert.Empty(t, meta.Description)
}

func TestParseAnnotatesRecord(t *testing.T) {
	rec, err := Parse(metaPage, "https://www.instagram.com/p/BqdB0YHgOri/")
	require.NoError(t, err)

	assert.Equal(t, media.KindImage, rec.Kind)
	assert.Equal(t, "BqdB0YHgOri", rec.Shortcode)
	assert.Equal(t, "https://www.instagram.com/p/BqdB0YHgOri/", rec.SourceURL)
	assert.Equal(t, "12 likes - sunset", rec.Caption)
}

func TestParsePropagatesExtractionError(t *testing.T) {
	rec, err := Parse("<html></html>", "https://www.instagram.com/p/abc/")

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}
