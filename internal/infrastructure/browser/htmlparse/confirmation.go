package htmlparse

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

var ErrNoConfirmation = errors.New("no confirmation details on page")

// Confirmation is what a portal shows after the final submit.
type Confirmation struct {
	ApplicationNumber string `json:"application_number,omitempty"`
	Faculty           string `json:"faculty_confirmation,omitempty"`
	Text              string `json:"submission_confirmation,omitempty"`
}

// ParseConfirmation reads the application number (the element following an "Application
// Number" or "Reference" label), the faculty line and the .confirmation-text block.
// It fails only when none of the three is present.
func ParseConfirmation(rawHTML string) (Confirmation, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Confirmation{}, err
	}

	c := Confirmation{
		ApplicationNumber: valueAfterLabel(doc, "Application Number", "Reference"),
		Faculty:           valueAfterLabel(doc, "Faculty"),
	}
	if n := findByClass(doc, "confirmation-text"); n != nil {
		c.Text = textOf(n)
	}

	if c == (Confirmation{}) {
		return c, ErrNoConfirmation
	}
	return c, nil
}

// ContainsText reports whether the visible text of rawHTML contains any of phrases,
// ignoring case.
func ContainsText(rawHTML string, phrases ...string) bool {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}
	text := strings.ToLower(textOf(doc))
	for _, p := range phrases {
		if p != "" && strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func valueAfterLabel(root *html.Node, labels ...string) string {
	var found string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && ownTextContains(n, labels) {
			for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
				if sib.Type == html.ElementNode {
					found = textOf(sib)
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func ownTextContains(n *html.Node, labels []string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		for _, l := range labels {
			if strings.Contains(c.Data, l) {
				return true
			}
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && isOneOf(class, strings.Fields(a.Val)...) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isOneOf(n.Data, "script", "style", "noscript") {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
