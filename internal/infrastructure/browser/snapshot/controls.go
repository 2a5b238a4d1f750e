package snapshot

import (
	"strings"

	"golang.org/x/net/html"
)

const maxControls = 500

// Control is one interactive element found in a page dump.
type Control struct {
	Tag      string `json:"tag"`
	Type     string `json:"type,omitempty"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Value    string `json:"value,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector"`
}

// ExtractControls lists inputs, selects, buttons, labels and links in
// document order so a checkpoint shows which selectors still resolve.
func ExtractControls(rawHTML string) []Control {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var out []Control
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(out) >= maxControls {
			return
		}
		if n.Type == html.ElementNode && isOneOf(n.Data, "input", "select", "textarea", "button", "a", "label") {
			if c, ok := controlFrom(n); ok {
				out = append(out, c)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func controlFrom(n *html.Node) (Control, bool) {
	c := Control{
		Tag:   n.Data,
		Type:  attr(n, "type"),
		ID:    attr(n, "id"),
		Name:  attr(n, "name"),
		Value: attr(n, "value"),
		Text:  collapse(textOf(n)),
	}
	_, c.Checked = lookupAttr(n, "checked")
	if n.Data == "a" && c.ID == "" && attr(n, "class") == "" {
		return Control{}, false
	}
	c.Selector = bestSelector(n, c)
	return c, true
}

func bestSelector(n *html.Node, c Control) string {
	switch {
	case c.ID != "":
		return "#" + c.ID
	case n.Data == "label" && attr(n, "for") != "":
		return "label[for='" + attr(n, "for") + "']"
	case c.Name != "":
		return n.Data + "[name='" + c.Name + "']"
	case attr(n, "placeholder") != "":
		return n.Data + "[placeholder=\"" + attr(n, "placeholder") + "\"]"
	case attr(n, "class") != "":
		return n.Data + "." + strings.Join(strings.Fields(attr(n, "class")), ".")
	default:
		return n.Data
	}
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
