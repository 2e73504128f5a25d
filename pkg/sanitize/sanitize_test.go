package sanitize_test

import (
	"strings"
	"testing"

	"github.com/aura-meetings/backend/pkg/sanitize"
)

func TestDescription_Empty(t *testing.T) {
	if got := sanitize.Description("   "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestDescription_PlainText(t *testing.T) {
	if got := sanitize.Description("  Quarterly planning  "); got != "Quarterly planning" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestDescription_KeepsPlainTextAsTyped(t *testing.T) {
	tests := []string{
		"Bring notes & questions",
		"Q&A: budget < forecast",
		"x > y",
		"Bob's \"quick\" sync",
		"Line one\nLine two",
	}
	for _, in := range tests {
		if got := sanitize.Description(in); got != in {
			t.Errorf("Description(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestDescription_EscapedMarkupStaysEscaped(t *testing.T) {
	in := "use &lt;script&gt; tags"
	if got := sanitize.Description(in); strings.Contains(got, "<script>") {
		t.Errorf("entity references must not be decoded into markup, got %q", got)
	}
}

func TestDescription_SafeHTML(t *testing.T) {
	input := "<p><strong>Agenda</strong> and <em>notes</em></p>"
	if got := sanitize.Description(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestDescription_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert(1)</script>"
	if got := sanitize.Description(input); got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestDescription_RemovesJavascriptHref(t *testing.T) {
	got := sanitize.Description(`<a href="javascript:alert(1)">Join</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestDescription_LinksGetNoFollow(t *testing.T) {
	got := sanitize.Description(`<a href="https://example.com/agenda">Agenda</a>`)
	if !strings.Contains(got, "https://example.com/agenda") || !strings.Contains(got, "nofollow") {
		t.Errorf("expected safe link with nofollow, got %q", got)
	}
}

func TestText_StripsMarkup(t *testing.T) {
	if got := sanitize.Text("<b>Design</b> review"); got != "Design review" {
		t.Errorf("got %q, want %q", got, "Design review")
	}
}

func TestText_KeepsEntities(t *testing.T) {
	if got := sanitize.Text("Q&A with Bob's team"); got != "Q&A with Bob's team" {
		t.Errorf("got %q", got)
	}
}
