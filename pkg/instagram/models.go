package instagram

// Typename values used by the post page payload
const (
	TypenameImage   = "GraphImage"
	TypenameVideo   = "GraphVideo"
	TypenameSidecar = "GraphSidecar"
)

// SharedData is the object assigned to window._sharedData on a post page
type SharedData struct {
	EntryData *EntryData `json:"entry_data"`
}

// EntryData holds the per-page entries of the shared data
type EntryData struct {
	PostPage []PostPage `json:"PostPage"`
}

// PostPage wraps the GraphQL payload for a single post
type PostPage struct {
	GraphQL *GraphQL `json:"graphql"`
}

// GraphQL contains the post media record
type GraphQL struct {
	ShortcodeMedia *ShortcodeMedia `json:"shortcode_media"`
}

// ShortcodeMedia describes a post's visual content
type ShortcodeMedia struct {
	Typename              string        `json:"__typename"`
	ID                    string        `json:"id"`
	Shortcode             string        `json:"shortcode"`
	DisplayURL            string        `json:"display_url"`
	VideoURL              string        `json:"video_url"`
	IsVideo               bool          `json:"is_video"`
	EdgeSidecarToChildren *SidecarEdges `json:"edge_sidecar_to_children"`
}

// SidecarEdges holds the ordered children of a carousel
type SidecarEdges struct {
	Edges []SidecarEdge `json:"edges"`
}

// SidecarEdge wraps a single carousel child
type SidecarEdge struct {
	Node Node `json:"node"`
}

// Node represents a single carousel child (photo or video)
type Node struct {
	Typename   string `json:"__typename"`
	ID         string `json:"id"`
	Shortcode  string `json:"shortcode"`
	DisplayURL string `json:"display_url"`
	VideoURL   string `json:"video_url"`
	IsVideo    bool   `json:"is_video"`
}
