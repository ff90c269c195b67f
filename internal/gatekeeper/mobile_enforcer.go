package gatekeeper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	htmlTag     = regexp.MustCompile(`<[^>]+>`)
	cssBlock    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlock = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlEntity  = regexp.MustCompile(`&[a-zA-Z]+;|&#\d+;`)
	multiNewl   = regexp.MustCompile(`\n{3,}`)
	multiBlank  = regexp.MustCompile(`[ \t]{2,}`)

	fixedWidth = regexp.MustCompile(`width\s*:\s*\d{4,}px`)
	fontSize   = regexp.MustCompile(`font-size\s*:\s*(\d+)(px|pt)`)
)

var entityMap = []struct{ entity, repl string }{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&apos;", "'"},
	{"&nbsp;", " "},
	{"&#39;", "'"},
	{"&#34;", `"`},
}

const mobileShellOpen = `<div style="max-width:800px;margin:0 auto;padding:16px;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;font-size:16px;line-height:1.6;color:#333;">`

// MobileEnforcer strips bloated HTML from descriptions and rewraps the text
// in a responsive shell. Most marketplace traffic is mobile; fixed-width
// markup and tiny fonts get buried in mobile search.
type MobileEnforcer struct{}

// NewMobileEnforcer returns an enforcer.
func NewMobileEnforcer() *MobileEnforcer { return &MobileEnforcer{} }

// Enforce converts an HTML description to the mobile-friendly form. Empty
// content (after stripping) yields an empty string.
func (m *MobileEnforcer) Enforce(htmlDescription string) string {
	text := m.StripHTML(htmlDescription)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return m.WrapInTemplate(text)
}

// StripHTML removes scripts, styles, comments, and all tags, decoding the
// common entity set and collapsing whitespace.
func (m *MobileEnforcer) StripHTML(html string) string {
	text := scriptBlock.ReplaceAllString(html, "")
	text = cssBlock.ReplaceAllString(text, "")
	text = htmlComment.ReplaceAllString(text, "")
	text = htmlTag.ReplaceAllString(text, "\n")

	for _, e := range entityMap {
		text = strings.ReplaceAll(text, e.entity, e.repl)
	}
	text = htmlEntity.ReplaceAllString(text, "")

	text = multiBlank.ReplaceAllString(text, " ")
	text = multiNewl.ReplaceAllString(text, "\n\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// WrapInTemplate wraps plain text paragraphs in the responsive shell.
func (m *MobileEnforcer) WrapInTemplate(plainText string) string {
	paragraphs := strings.Split(plainText, "\n\n")
	parts := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		clean := strings.ReplaceAll(para, "\n", "<br>")
		parts = append(parts, `<p style="margin:0 0 12px 0;">`+clean+`</p>`)
	}
	return mobileShellOpen + "\n" + strings.Join(parts, "\n") + "\n</div>"
}

// IsMobileSafe reports whether a description can go out untouched. It is a
// diagnostic; Enforce does not consult it.
func (m *MobileEnforcer) IsMobileSafe(html string) bool {
	lower := strings.ToLower(html)

	if match := fontSize.FindStringSubmatch(lower); match != nil {
		size, err := strconv.Atoi(match[1])
		if err == nil {
			if match[2] == "px" && size < 14 {
				return false
			}
			if match[2] == "pt" && size < 11 {
				return false
			}
		}
	}

	if fixedWidth.MatchString(lower) {
		return false
	}
	if strings.Contains(lower, "<table") {
		return false
	}
	if strings.Contains(lower, "<style") {
		return false
	}
	return true
}
