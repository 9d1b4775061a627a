package newsletter

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderHTML turns a component list into the HTML fragment stored alongside
// the newsletter. The output intentionally sticks to the handful of tags
// ParseHTML understands so a render/parse round trip preserves structure.
func RenderHTML(components []Component) string {
	sorted := make([]Component, len(components))
	copy(sorted, components)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	var b strings.Builder
	for _, c := range sorted {
		renderComponent(&b, c)
	}
	return b.String()
}

func renderComponent(b *strings.Builder, c Component) {
	switch c.Type {
	case TypeHeading:
		fmt.Fprintf(b, "<h2%s>%s</h2>\n", styleAttr(c), html.EscapeString(c.Text))
	case TypeTextBlock:
		fmt.Fprintf(b, "<div%s>%s</div>\n", styleAttr(c), html.EscapeString(c.Text))
	case TypeImage:
		fmt.Fprintf(b, "<img src=%q alt=%q>\n", c.Src, c.Alt)
	case TypeButton:
		fmt.Fprintf(b, "<a href=%q class=\"button\"%s>%s</a>\n", c.Href, styleAttr(c), html.EscapeString(c.Label))
	case TypeCalendarButton:
		fmt.Fprintf(b, "<a href=%q class=\"calendar-button\">%s</a>\n", c.Href, html.EscapeString(c.Label))
	case TypeDivider:
		b.WriteString("<hr>\n")
	case TypeFormSection:
		fmt.Fprintf(b, "<section class=\"form-section\" data-form-id=%q></section>\n", c.FormID)
	}
}

func styleAttr(c Component) string {
	var parts []string
	if c.Color != "" {
		parts = append(parts, "color:"+c.Color)
	}
	if c.Align != "" {
		parts = append(parts, "text-align:"+c.Align)
	}
	if c.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("font-size:%dpx", c.FontSize))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(" style=%q", strings.Join(parts, ";"))
}
