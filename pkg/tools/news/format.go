package news

import (
	"fmt"
	"strings"
)

// NoResultsMessage is returned when every search came back empty.
const NoResultsMessage = "No news found. The server might be blocking the connection."

// Placeholders for missing article fields.
const (
	untitled      = "No title"
	unknownSource = "Unknown Source"
)

// FormatArticles renders one "- [date] title (source): body" line per
// article.
func FormatArticles(articles []Article) string {
	lines := make([]string, 0, len(articles))
	for _, a := range articles {
		lines = append(lines, formatArticle(a))
	}
	return strings.Join(lines, "\n")
}

func formatArticle(a Article) string {
	title := collapseSpace(a.Title)
	if title == "" {
		title = untitled
	}
	source := collapseSpace(a.Source)
	if source == "" {
		source = unknownSource
	}
	return fmt.Sprintf("- [%s] %s (%s): %s", collapseSpace(a.Date), title, source, collapseSpace(a.Body))
}

// collapseSpace joins all whitespace runs into single spaces so every
// article stays on one line.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
