package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItems(t *testing.T) {
	assert.Equal(t, []Slide{ImageSlide("i")}, NewImage("i").Items())
	assert.Equal(t, []Slide{VideoSlide("v")}, NewVideo("v").Items())

	slides := []Slide{VideoSlide("A"), ImageSlide("B"), VideoSlide("C")}
	rec := NewCarousel(slides)
	items := rec.Items()
	assert.Equal(t, slides, items)

	// Items must not alias the record's slides
	items[0] = ImageSlide("changed")
	assert.Equal(t, "A", rec.Slides[0].VideoURL)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewImage("x").Validate())
	assert.NoError(t, NewVideo("y").Validate())
	assert.NoError(t, NewCarousel([]Slide{ImageSlide("a")}).Validate())

	assert.Error(t, NewImage("").Validate())
	assert.Error(t, NewVideo("").Validate())
	assert.Error(t, NewCarousel(nil).Validate())
	assert.Error(t, NewCarousel([]Slide{VideoSlide("")}).Validate())
	assert.Error(t, (&Record{Kind: "story"}).Validate())
}

func TestSlideHelpers(t *testing.T) {
	assert.Equal(t, "mp4", VideoSlide("v").Extension())
	assert.Equal(t, "jpg", ImageSlide("i").Extension())
	assert.Equal(t, "v", VideoSlide("v").URL())
	assert.Equal(t, "i", ImageSlide("i").URL())
}
