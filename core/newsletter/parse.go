package newsletter

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML recovers a component list from stored HTML. It is the fallback
// for legacy newsletters saved before structured components existed, so it
// only recognizes the tags the renderer emits; anything else is skipped.
func ParseHTML(raw string) []Component {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var comps []Component
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if c, ok := parseElement(n); ok {
				c.Position = len(comps)
				comps = append(comps, c)
				return // children already consumed
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return comps
}

func parseElement(n *html.Node) (Component, bool) {
	switch n.Data {
	case "h1", "h2", "h3":
		c := Component{Type: TypeHeading, Text: textOf(n)}
		applyStyle(&c, attr(n, "style"))
		return c, true
	case "div", "p":
		text := textOf(n)
		if text == "" {
			return Component{}, false
		}
		c := Component{Type: TypeTextBlock, Text: text}
		applyStyle(&c, attr(n, "style"))
		return c, true
	case "img":
		return Component{Type: TypeImage, Src: attr(n, "src"), Alt: attr(n, "alt")}, true
	case "a":
		typ := TypeButton
		if attr(n, "class") == "calendar-button" {
			typ = TypeCalendarButton
		}
		c := Component{Type: typ, Href: attr(n, "href"), Label: textOf(n)}
		if typ == TypeButton {
			applyStyle(&c, attr(n, "style"))
		}
		return c, true
	case "hr":
		return Component{Type: TypeDivider}, true
	case "section":
		if attr(n, "class") == "form-section" {
			return Component{Type: TypeFormSection, FormID: attr(n, "data-form-id")}, true
		}
	}
	return Component{}, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func applyStyle(c *Component, style string) {
	for _, decl := range strings.Split(style, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "color":
			c.Color = val
		case "text-align":
			c.Align = val
		case "font-size":
			if px, err := strconv.Atoi(strings.TrimSuffix(val, "px")); err == nil {
				c.FontSize = px
			}
		}
	}
}
