package htmlparse

import (
	"strings"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove     []string
	AttrsToRemove    []string
	MaxOutputSize    int
	CustomAttrFilter func(attr html.Attribute) bool
}

// DefaultCleanConfig strips everything a human reviewer does not need from a failure snapshot.
var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe",
		"link", "meta", "head", "title",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
	},
	MaxOutputSize: 130_000,
}

// Clean returns the body of rawHTML without scripts, styles, comments and noisy attributes.
// Input that cannot be parsed, or has no body, is returned unchanged.
func Clean(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	body := findElement(doc, "body")
	if body == nil {
		return rawHTML
	}

	cleanNode(body, cfg)
	return truncate(render(body), cfg.MaxOutputSize)
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	n.Attr = filterAttributes(n.Attr, cfg)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(attrs []html.Attribute, cfg *CleanConfig) []html.Attribute {
	var kept []html.Attribute
	for _, attr := range attrs {
		if !shouldRemoveAttr(attr, cfg) {
			kept = append(kept, attr)
		}
	}
	return kept
}

func shouldRemoveAttr(attr html.Attribute, cfg *CleanConfig) bool {
	if isOneOf(attr.Key, cfg.AttrsToRemove...) {
		return true
	}
	key := attr.Key
	if strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "on") {
		return true
	}
	return cfg.CustomAttrFilter != nil && cfg.CustomAttrFilter(attr)
}

func render(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
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
