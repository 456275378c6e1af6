// Package media defines the normalized description of an Instagram post's
// visual content: a single image, a single video, or an ordered carousel.
package media

import "fmt"

// Kind discriminates the variants of a Record.
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindCarousel Kind = "carousel"
)

// SlideKind discriminates carousel slides.
type SlideKind string

const (
	SlideImage SlideKind = "image"
	SlideVideo SlideKind = "video"
)

// Slide is a single carousel child. Exactly one of ImageURL/VideoURL is set,
// matching Kind.
type Slide struct {
	Kind     SlideKind `json:"kind"`
	ImageURL string    `json:"image_url,omitempty"`
	VideoURL string    `json:"video_url,omitempty"`
}

// URL returns the slide's media URL regardless of kind.
func (s Slide) URL() string {
	if s.Kind == SlideVideo {
		return s.VideoURL
	}
	return s.ImageURL
}

// Record is the tagged union produced by classification.
type Record struct {
	Kind     Kind    `json:"kind"`
	ImageURL string  `json:"image_url,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
	Slides   []Slide `json:"slides,omitempty"`

	// Informational fields, never used for classification.
	Shortcode string `json:"shortcode,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// NewImage builds an image record.
func NewImage(imageURL string) *Record {
	return &Record{Kind: KindImage, ImageURL: imageURL}
}

// NewVideo builds a video record.
func NewVideo(videoURL string) *Record {
	return &Record{Kind: KindVideo, VideoURL: videoURL}
}

// NewCarousel builds a carousel record. Slide order is kept as given.
func NewCarousel(slides []Slide) *Record {
	return &Record{Kind: KindCarousel, Slides: slides}
}

// ImageSlide builds an image slide.
func ImageSlide(imageURL string) Slide {
	return Slide{Kind: SlideImage, ImageURL: imageURL}
}

// VideoSlide builds a video slide.
func VideoSlide(videoURL string) Slide {
	return Slide{Kind: SlideVideo, VideoURL: videoURL}
}

// Items flattens the record into its slides: one for an image or video,
// every slide in order for a carousel.
func (r *Record) Items() []Slide {
	switch r.Kind {
	case KindImage:
		return []Slide{ImageSlide(r.ImageURL)}
	case KindVideo:
		return []Slide{VideoSlide(r.VideoURL)}
	case KindCarousel:
		items := make([]Slide, len(r.Slides))
		copy(items, r.Slides)
		return items
	default:
		return nil
	}
}

// Validate checks that the record is a well-formed variant.
func (r *Record) Validate() error {
	switch r.Kind {
	case KindImage:
		if r.ImageURL == "" {
			return fmt.Errorf("image record without image_url")
		}
	case KindVideo:
		if r.VideoURL == "" {
			return fmt.Errorf("video record without video_url")
		}
	case KindCarousel:
		if len(r.Slides) == 0 {
			return fmt.Errorf("carousel record without slides")
		}
		for i, s := range r.Slides {
			if s.URL() == "" {
				return fmt.Errorf("carousel slide %d has no url", i)
			}
		}
	default:
		return fmt.Errorf("unknown record kind %q", r.Kind)
	}
	return nil
}

// Extension returns the file extension used when saving a slide.
func (s Slide) Extension() string {
	if s.Kind == SlideVideo {
		return "mp4"
	}
	return "jpg"
}
