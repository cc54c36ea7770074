package render

import (
	"fmt"
	"strings"

	"github.com/lokhin/coursechat/internal/models"
)

// SourcesMarkdown formats a citation list as a markdown block suitable for
// appending below an answer. Returns "" when there are no citations.
func SourcesMarkdown(citations []models.Citation) string {
	if len(citations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("**Sources**\n\n")
	for i, c := range citations {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = c.SourceURL
		}
		fmt.Fprintf(&b, "%d. [%s](%s)", i+1, title, c.SourceURL)
		if c.RelevanceScore > 0 {
			fmt.Fprintf(&b, " (%.0f%%)", c.RelevanceScore*100)
		}
		b.WriteString("\n")
	}
	return b.String()
}
