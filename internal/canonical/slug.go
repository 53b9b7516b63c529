package canonical

import (
	"regexp"
	"strings"
)

var (
	slugStrip  = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// Slugify derives the URL-safe slug for a title. It is pure: the same title
// always yields the same slug. The result may be empty when the title has no
// letters, digits or underscores.
func Slugify(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}
