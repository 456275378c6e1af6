package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"
)

// postPathPrefixes are the path segments that precede a shortcode
var postPathPrefixes = map[string]bool{
	"p":    true,
	"reel": true,
	"tv":   true,
}

// GetPostURL constructs the URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// ShortcodeFromURL extracts the post shortcode from a post URL such as
// https://www.instagram.com/p/BqdB0YHgOri/. It returns "" when the URL is not
// a post URL.
func ShortcodeFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if postPathPrefixes[segments[i]] && IsValidShortcode(segments[i+1]) {
			return segments[i+1]
		}
	}
	return ""
}

// IsPostURL reports whether rawURL points at an Instagram post
func IsPostURL(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return host == "instagram.com" && ShortcodeFromURL(rawURL) != ""
}

// IsValidShortcode checks that a shortcode only uses Instagram's base64url alphabet
func IsValidShortcode(shortcode string) bool {
	if shortcode == "" || len(shortcode) > 64 {
		return false
	}

	for _, char := range shortcode {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}

	return true
}
