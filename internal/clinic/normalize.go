package clinic

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases, and collapses internal whitespace.
// Used for session keys so "Front Desk" and " front  desk" address the same state.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// Slug turns a clinic name into the download file stem:
// lowercase, each space replaced by a hyphen. An empty name gives "clinic".
func Slug(name string) string {
	if strings.TrimSpace(name) == "" {
		return "clinic"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}

// DownloadFilename is the file name offered for a profile's generated HTML.
func DownloadFilename(p Profile) string {
	return Slug(p.Name) + "-seo.html"
}

// CountWords counts whitespace-separated words after stripping HTML tags.
func CountWords(html string) int {
	return len(strings.Fields(tagRegex.ReplaceAllString(html, " ")))
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)
