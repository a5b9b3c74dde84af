// Package strings holds small text helpers shared by the two front
// doors: snippet truncation for tool output, search query sanitization
// and deep-link formatting.
package strings

import (
	"fmt"
	"strings"
)

// DefaultSnippetMaxLen is the default maximum length for object
// snippets in formatted output.
const DefaultSnippetMaxLen = 160

// MinTruncateLen is the smallest usable maxLen for TruncateSnippet.
// Anything shorter leaves no room for content plus "...".
const MinTruncateLen = 4

// TruncateSnippet flattens a snippet to a single line and truncates it
// to maxLen runes, appending "..." when content was cut. Newlines, tabs
// and runs of whitespace collapse into single spaces. Truncation counts
// runes, not bytes, so multi-byte characters are never split.
func TruncateSnippet(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// SanitizeQuery trims a search query and strips control characters that
// the upstream search index chokes on. The query text itself is passed
// through otherwise untouched.
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, q)
}

// ObjectLink formats the deep link that opens an object in the note
// application. Both ids are substituted verbatim.
func ObjectLink(spaceID, objectID string) string {
	return fmt.Sprintf("anytype://object?objectId=%s&spaceId=%s", objectID, spaceID)
}
