package htmlparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_RemovesScriptStyle(t *testing.T) {
	raw := `
<body>
    <div id="main">Hello</div>
    <script>alert("hi")</script>
    <style>.x {}</style>
</body>`

	out := Clean(raw, &DefaultCleanConfig)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<style")
	assert.Contains(t, out, `id="main"`)
}

func TestClean_RemovesComments(t *testing.T) {
	out := Clean(`<body><!-- secret --><div>Text</div></body>`, nil)

	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "Text")
}

func TestClean_Attributes(t *testing.T) {
	raw := `<body>
    <a href="https://example.com" class="link" id="x" data-x="1" aria-hidden="true" onclick="go()" style="color:red">Go</a>
    <img src="x.jpg" srcset="a,b,c" sizes="100w" loading="lazy">
</body>`

	out := Clean(raw, nil)

	for _, kept := range []string{`href="https://example.com"`, `class="link"`, `id="x"`, `src="x.jpg"`} {
		assert.Contains(t, out, kept)
	}
	for _, dropped := range []string{"data-x", "aria-hidden", "onclick", "style=", "srcset=", "sizes=", "loading="} {
		assert.NotContains(t, out, dropped)
	}
}

func TestClean_RemovesHead(t *testing.T) {
	raw := `<html><head><meta charset="utf-8"><link rel="stylesheet" href="x.css"></head><body><p>Hi</p></body></html>`

	out := Clean(raw, nil)

	assert.NotContains(t, out, "<meta")
	assert.NotContains(t, out, "<link")
	assert.Contains(t, out, "<p>Hi</p>")
}

func TestClean_Truncation(t *testing.T) {
	var big strings.Builder
	big.WriteString("<body>")
	for i := 0; i < 20000; i++ {
		big.WriteString("<div>test</div>")
	}
	big.WriteString("</body>")

	out := Clean(big.String(), nil)

	assert.LessOrEqual(t, len(out), 130_100)
	assert.Contains(t, out, "truncated")
}
