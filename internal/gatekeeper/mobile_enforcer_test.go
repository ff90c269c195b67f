package gatekeeper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnforceStripsScriptsAndStyles(t *testing.T) {
	m := NewMobileEnforcer()
	in := `<style>body { width: 1200px; }</style>
<script>alert("spam")</script>
<!-- seller template v3 -->
<div><b>Vintage camera</b>, works great.</div>
<div>Ships from a smoke-free home.</div>`

	out := m.Enforce(in)
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "1200px")
	assert.NotContains(t, out, "<!--")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "Vintage camera")
	assert.Contains(t, out, "font-size:16px")
	assert.Contains(t, out, "max-width:800px")
}

func TestEnforceDecodesEntities(t *testing.T) {
	m := NewMobileEnforcer()
	out := m.StripHTML("Ben &amp; Jerry&#39;s &lt;limited&gt; run&nbsp;&copy;")
	assert.Contains(t, out, "Ben & Jerry's")
	assert.Contains(t, out, "<limited>")
	// Unknown entities are dropped, not passed through.
	assert.NotContains(t, out, "&copy;")
}

func TestEnforceEmptyAfterStrip(t *testing.T) {
	m := NewMobileEnforcer()
	assert.Equal(t, "", m.Enforce("<style>.x{}</style><script>1</script>"))
}

func TestWrapSplitsParagraphs(t *testing.T) {
	m := NewMobileEnforcer()
	out := m.WrapInTemplate("First paragraph.\n\nSecond paragraph\nwith a line break.")
	assert.Equal(t, 2, strings.Count(out, "<p style="))
	assert.Contains(t, out, "with a line break")
	assert.Contains(t, out, "<br>")
}

func TestIsMobileSafe(t *testing.T) {
	m := NewMobileEnforcer()

	assert.True(t, m.IsMobileSafe("<p>Simple description</p>"))
	assert.False(t, m.IsMobileSafe(`<div style="width: 1200px">wide</div>`))
	assert.False(t, m.IsMobileSafe(`<span style="font-size: 10px">tiny</span>`))
	assert.False(t, m.IsMobileSafe(`<span style="font-size: 9pt">tiny</span>`))
	assert.False(t, m.IsMobileSafe("<table><tr><td>grid</td></tr></table>"))
	assert.False(t, m.IsMobileSafe("<style>.a{}</style><p>x</p>"))
	// 16px fonts and narrow widths are fine.
	assert.True(t, m.IsMobileSafe(`<span style="font-size: 16px; width: 400px">ok</span>`))
}
