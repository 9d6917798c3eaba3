package news

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseDuckDuckGoResults extracts articles from the HTML results page.
//
// Each organic result holds an a.result__a (title and redirect link),
// an optional a.result__url (display URL), an optional .result__timestamp
// and a .result__snippet. Ads live under div.result--ad and are skipped.
func parseDuckDuckGoResults(rawHTML string) ([]Article, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var articles []Article
	walkResults(doc, &articles)
	return articles, nil
}

// walkResults visits nodes in document order, opening a new article at
// every title link and filling in the fields that follow it.
func walkResults(n *html.Node, articles *[]Article) {
	if n.Type == html.ElementNode {
		if isSkippedElement(n) {
			return
		}

		switch {
		case n.Data == "a" && hasClass(n, "result__a"):
			link := unwrapRedirect(attr(n, "href"))
			*articles = append(*articles, Article{
				Title:  textContent(n),
				URL:    link,
				Source: sourceFromURL(link),
			})
			return
		case hasClass(n, "result__snippet"):
			if cur := current(articles); cur != nil {
				cur.Body = textContent(n)
			}
			return
		case hasClass(n, "result__timestamp"):
			if cur := current(articles); cur != nil {
				cur.Date = normalizeDate(textContent(n))
			}
			return
		case n.Data == "a" && hasClass(n, "result__url"):
			if cur := current(articles); cur != nil && cur.Source == "" {
				cur.Source = strings.TrimPrefix(strings.SplitN(textContent(n), "/", 2)[0], "www.")
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkResults(c, articles)
	}
}

// isSkippedElement reports whether the subtree is noise: scripts, styles
// and sponsored results.
func isSkippedElement(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "head":
		return true
	}
	return hasClass(n, "result--ad")
}

func current(articles *[]Article) *Article {
	if len(*articles) == 0 {
		return nil
	}
	return &(*articles)[len(*articles)-1]
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent concatenates the text below n with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return collapseSpace(b.String())
}

// unwrapRedirect extracts the target of a //duckduckgo.com/l/?uddg=... link.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	raw := href
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// normalizeDate keeps the calendar date of ISO timestamps and passes other
// text ("2 days ago") through.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}
