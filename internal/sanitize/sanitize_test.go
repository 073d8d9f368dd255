package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLKeepsAllowlist(t *testing.T) {
	in := `<h2>Title</h2><p>Hello <strong>bold</strong> <em>it</em> <u>u</u><br></p><ul><li>one</li></ul>`
	assert.Equal(t, `<h2>Title</h2><p>Hello <strong>bold</strong> <em>it</em> <u>u</u><br/></p><ul><li>one</li></ul>`, HTML(in))
}

func TestHTMLRemovesDangerousContent(t *testing.T) {
	in := `<p onclick="steal()">Hi<script>alert(1)</script></p><iframe src="x"></iframe><form><input name="a"/><button>go</button></form>`
	assert.Equal(t, `<p>Hi</p>`, HTML(in))
}

func TestHTMLUnwrapsUnknownTags(t *testing.T) {
	in := `<div><span class="x">keep <b>me</b></span></div><!-- note -->`
	assert.Equal(t, `keep me`, HTML(in))
}

func TestHTMLFiltersLinks(t *testing.T) {
	out := HTML(`<a href="javascript:alert(1)" title="t">bad</a> <a href="https://vanilla.ai" target="_blank">ok</a> <a href="/news/1">rel</a>`)
	assert.NotContains(t, out, "javascript")
	assert.NotContains(t, out, "title=")
	assert.Contains(t, out, `<a>bad</a>`)
	assert.Contains(t, out, `<a href="https://vanilla.ai" target="_blank" rel="noopener noreferrer">ok</a>`)
	assert.Contains(t, out, `<a href="/news/1">rel</a>`)
}

func TestHTMLEmpty(t *testing.T) {
	assert.Equal(t, "", HTML("   "))
}

func TestText(t *testing.T) {
	assert.Equal(t, "Hello", Text(`<script>alert("x")</script>Hello`))
	assert.Equal(t, "click alert(1)", Text(`click javascript:alert(1)`))
	assert.Equal(t, `x "y"`, Text(`x onerror="y"`))
	assert.Equal(t, "GPT-4o & Claude", Text(`<b>GPT-4o</b> &amp; Claude`))
	assert.Equal(t, "plain", Text("  plain  "))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("<p>short</p>", 150))

	long := strings.Repeat("가", 200)
	got := Excerpt(long, 150)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 153, len([]rune(got)))

	assert.Equal(t, "a b", Excerpt("<p>a</p>\n\n<p>b</p>", 0))
}
