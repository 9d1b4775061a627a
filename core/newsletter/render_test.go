package newsletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name       string
		components []Component
		want       string
	}{
		{
			name: "heading with styles",
			components: []Component{
				{Type: TypeHeading, Text: "Szeptemberi hírek", Color: "#333333", Align: "center", FontSize: 24},
			},
			want: "<h2 style=\"color:#333333;text-align:center;font-size:24px\">Szeptemberi hírek</h2>\n",
		},
		{
			name: "text escapes html",
			components: []Component{
				{Type: TypeTextBlock, Text: "a < b & c"},
			},
			want: "<div>a &lt; b &amp; c</div>\n",
		},
		{
			name: "positions decide order",
			components: []Component{
				{Type: TypeDivider, Position: 1},
				{Type: TypeTextBlock, Text: "first", Position: 0},
			},
			want: "<div>first</div>\n<hr>\n",
		},
		{
			name: "buttons and form section",
			components: []Component{
				{Type: TypeButton, Href: "https://example.com", Label: "Open"},
				{Type: TypeCalendarButton, Href: "https://cal.example.com", Label: "Add to calendar", Position: 1},
				{Type: TypeFormSection, FormID: "f-1", Position: 2},
			},
			want: "<a href=\"https://example.com\" class=\"button\">Open</a>\n" +
				"<a href=\"https://cal.example.com\" class=\"calendar-button\">Add to calendar</a>\n" +
				"<section class=\"form-section\" data-form-id=\"f-1\"></section>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderHTML(tt.components))
		})
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	original := []Component{
		{Type: TypeHeading, Position: 0, Text: "Hírlevél", Color: "#222222", Align: "left", FontSize: 28},
		{Type: TypeTextBlock, Position: 1, Text: "Kedves Szülők!", Align: "justify"},
		{Type: TypeImage, Position: 2, Src: "https://example.com/kep.png", Alt: "csoportkép"},
		{Type: TypeButton, Position: 3, Href: "https://example.com/esemeny", Label: "Részletek"},
		{Type: TypeDivider, Position: 4},
		{Type: TypeCalendarButton, Position: 5, Href: "https://example.com/ical", Label: "Naptárba"},
		{Type: TypeFormSection, Position: 6, FormID: "f-42"},
	}

	parsed := ParseHTML(RenderHTML(original))
	require.Len(t, parsed, len(original))
	assert.Equal(t, original, parsed)
}

func TestParseHTMLLegacyMarkup(t *testing.T) {
	// hand-written markup from the pre-builder era
	raw := `<h1>Title</h1>
<p style="color:red">Some paragraph</p>
<img src="/a.png">
<a href="/x">go</a>
<span>ignored</span>
<hr/>`

	got := ParseHTML(raw)
	require.Len(t, got, 5)
	assert.Equal(t, TypeHeading, got[0].Type)
	assert.Equal(t, "Title", got[0].Text)
	assert.Equal(t, TypeTextBlock, got[1].Type)
	assert.Equal(t, "red", got[1].Color)
	assert.Equal(t, TypeImage, got[2].Type)
	assert.Equal(t, TypeButton, got[3].Type)
	assert.Equal(t, TypeDivider, got[4].Type)
	for i, c := range got {
		assert.Equal(t, i, c.Position)
	}
}

func TestParseHTMLEmpty(t *testing.T) {
	assert.Empty(t, ParseHTML(""))
}
