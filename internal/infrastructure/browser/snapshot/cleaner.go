package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
}

// DefaultCleanConfig keeps ids, classes, names and values, which is what is
// needed to tell whether a portal selector still matches.
var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe", "link", "meta",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority",
	},
	MaxOutputSize: 500_000,
}

// CleanHTML strips scripts, styles, comments and event handlers from a page
// dump. Unparseable input is returned unchanged.
func CleanHTML(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	cleanNode(doc, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return rawHTML
	}
	return truncate(sb.String(), cfg.MaxOutputSize)
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && isOneOf(c.Data, cfg.TagsToRemove...):
			n.RemoveChild(c)
		default:
			if c.Type == html.ElementNode {
				c.Attr = filterAttributes(c.Attr, cfg)
			}
			cleanNode(c, cfg)
		}
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		if strings.HasPrefix(attr.Key, "on") || isOneOf(attr.Key, cfg.AttrsToRemove...) {
			continue
		}
		kept = append(kept, attr)
	}
	return kept
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize] + "\n<!-- truncated -->"
	}
	return s
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
