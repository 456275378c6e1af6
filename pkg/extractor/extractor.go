package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorobchenkoann/save-from-inst/pkg/instagram"
	"github.com/gorobchenkoann/save-from-inst/pkg/media"
)

const (
	// StartMarker precedes the embedded JSON payload on a post page
	StartMarker = "window._sharedData = "
	// EndMarker terminates the embedded JSON payload
	EndMarker = ";</script>"
)

// Classify locates the shared data payload in a post page and turns the post
// media record into a media.Record. Every failure is an *ExtractionError.
func Classify(rawPage string) (*media.Record, error) {
	payload, err := embeddedPayload(rawPage)
	if err != nil {
		return nil, err
	}

	var data instagram.SharedData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, &ExtractionError{Reason: ReasonInvalidJSON, Err: err}
	}

	sm, err := shortcodeMedia(&data)
	if err != nil {
		return nil, err
	}

	rec, err := classifyMedia(sm)
	if err != nil {
		return nil, err
	}
	rec.Shortcode = sm.Shortcode
	return rec, nil
}

// embeddedPayload returns the text between StartMarker and the first EndMarker
// that follows it.
func embeddedPayload(rawPage string) (string, error) {
	start := strings.Index(rawPage, StartMarker)
	if start < 0 {
		return "", &ExtractionError{Reason: ReasonMarkerNotFound, Detail: StartMarker}
	}

	rest := rawPage[start+len(StartMarker):]
	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return "", &ExtractionError{Reason: ReasonEndMarkerNotFound, Detail: EndMarker}
	}
	return rest[:end], nil
}

// shortcodeMedia walks entry_data.PostPage[0].graphql.shortcode_media
func shortcodeMedia(data *instagram.SharedData) (*instagram.ShortcodeMedia, error) {
	if data.EntryData == nil {
		return nil, missingField("entry_data")
	}
	if len(data.EntryData.PostPage) == 0 {
		return nil, missingField("entry_data.PostPage[0]")
	}
	page := data.EntryData.PostPage[0]
	if page.GraphQL == nil {
		return nil, missingField("entry_data.PostPage[0].graphql")
	}
	if page.GraphQL.ShortcodeMedia == nil {
		return nil, missingField("entry_data.PostPage[0].graphql.shortcode_media")
	}
	return page.GraphQL.ShortcodeMedia, nil
}

func classifyMedia(sm *instagram.ShortcodeMedia) (*media.Record, error) {
	switch sm.Typename {
	case instagram.TypenameImage:
		if sm.DisplayURL == "" {
			return nil, missingField("shortcode_media.display_url")
		}
		return media.NewImage(sm.DisplayURL), nil

	case instagram.TypenameVideo:
		if sm.VideoURL == "" {
			return nil, missingField("shortcode_media.video_url")
		}
		return media.NewVideo(sm.VideoURL), nil

	case instagram.TypenameSidecar:
		if sm.EdgeSidecarToChildren == nil {
			return nil, missingField("shortcode_media.edge_sidecar_to_children")
		}
		if len(sm.EdgeSidecarToChildren.Edges) == 0 {
			return nil, missingField("shortcode_media.edge_sidecar_to_children.edges")
		}
		slides := make([]media.Slide, 0, len(sm.EdgeSidecarToChildren.Edges))
		for i, edge := range sm.EdgeSidecarToChildren.Edges {
			slide, err := classifySlide(edge.Node, i)
			if err != nil {
				return nil, err
			}
			slides = append(slides, slide)
		}
		return media.NewCarousel(slides), nil

	case "":
		return nil, missingField("shortcode_media.__typename")

	default:
		return nil, &ExtractionError{Reason: ReasonUnknownMediaType, Detail: sm.Typename}
	}
}

// classifySlide maps a carousel child: GraphVideo is a video, anything else an image
func classifySlide(node instagram.Node, index int) (media.Slide, error) {
	if node.Typename == instagram.TypenameVideo {
		if node.VideoURL == "" {
			return media.Slide{}, missingField(fmt.Sprintf("edge_sidecar_to_children.edges[%d].node.video_url", index))
		}
		return media.VideoSlide(node.VideoURL), nil
	}
	if node.DisplayURL == "" {
		return media.Slide{}, missingField(fmt.Sprintf("edge_sidecar_to_children.edges[%d].node.display_url", index))
	}
	return media.ImageSlide(node.DisplayURL), nil
}
