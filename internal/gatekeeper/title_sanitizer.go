// Package gatekeeper holds the pre-listing quality gates. Every gate is a
// pure computation: no store, no gateway.
package gatekeeper

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MaxTitleLength is the marketplace hard limit.
const MaxTitleLength = 80

var (
	junkChars    = regexp.MustCompile(`[!*~@#$%^&]{2,}`)
	specialChars = regexp.MustCompile(`[^\w\s\-&/.,'+()#]`)
	multiSpaces  = regexp.MustCompile(`\s{2,}`)
)

// Words that confuse search ranking and look spammy. Two-word phrases are
// matched across adjacent tokens.
var bannedWords = map[string]bool{
	"l@@k": true, "look!": true, "look!!": true, "wow": true, "wow!": true,
	"must see": true, "a+++": true, "a++": true, "nr": true,
	"no reserve": true, "free shipping": true, "fast shipping": true,
	"hot": true, "sexy": true, "rare!": true, "amazing": true,
	"incredible": true, "awesome": true, "perfect": true, "beautiful": true,
	"gorgeous": true, "stunning": true, "excellent!": true, "great!": true,
	"nice!": true, "cool!": true,
}

// Acronyms that stay uppercase when the rest of an all-caps title is folded
// to title case.
var knownAcronyms = map[string]bool{
	"nib": true, "nwt": true, "nwb": true, "nwot": true, "euc": true,
	"vgc": true, "guc": true, "oem": true, "oob": true, "usb": true,
	"hdmi": true, "led": true, "lcd": true, "dvd": true, "cd": true,
	"pc": true, "tv": true, "ac": true, "dc": true, "xl": true,
	"xxl": true, "xs": true, "sm": true, "md": true, "lg": true,
	"oz": true, "ml": true, "gb": true, "tb": true, "mb": true,
	"hp": true, "ps": true, "hd": true, "sd": true, "rgb": true,
	"ddr": true, "ssd": true, "hdd": true, "rpm": true, "mph": true,
	"nfl": true, "nba": true, "mlb": true, "nhl": true, "usa": true,
	"uk": true, "eu": true,
}

// TitleResult reports a sanitization pass.
type TitleResult struct {
	Original          string   `json:"original"`
	Sanitized         string   `json:"sanitized"`
	Changes           []string `json:"changes"`
	Length            int      `json:"length"`
	BrandModelInFront bool     `json:"brand_model_in_front"`
}

// TitleSanitizer cleans listing titles for search ranking: junk characters
// out, spam words out, ALL CAPS folded, brand and model front-loaded, hard
// 80-character cap.
type TitleSanitizer struct{}

// NewTitleSanitizer returns a sanitizer.
func NewTitleSanitizer() *TitleSanitizer { return &TitleSanitizer{} }

// Sanitize runs the full pipeline. Brand and model may be empty.
func (s *TitleSanitizer) Sanitize(title, brand, model string) TitleResult {
	original := title
	var changes []string

	cleaned := stripJunk(title)
	if cleaned != title {
		changes = append(changes, "Removed junk characters")
	}
	title = cleaned

	cleaned = removeBannedWords(title)
	if cleaned != title {
		changes = append(changes, "Removed spam words")
	}
	title = cleaned

	cleaned = normalizeCase(title)
	if cleaned != title {
		changes = append(changes, "Normalized casing")
	}
	title = cleaned

	if brand != "" || model != "" {
		cleaned = frontLoadBrandModel(title, brand, model)
		if cleaned != title {
			changes = append(changes, "Moved brand/model to front")
		}
		title = cleaned
	}

	cleaned = enforceLength(title)
	if cleaned != title {
		changes = append(changes, fmt.Sprintf("Trimmed to %d chars", MaxTitleLength))
	}
	title = cleaned

	title = strings.TrimSpace(multiSpaces.ReplaceAllString(title, " "))

	if len(changes) == 0 {
		changes = append(changes, "No changes needed")
	}

	return TitleResult{
		Original:          original,
		Sanitized:         title,
		Changes:           changes,
		Length:            len([]rune(title)),
		BrandModelInFront: brandModelInFront(title, brand, model),
	}
}

func stripJunk(title string) string {
	title = junkChars.ReplaceAllString(title, "")
	title = specialChars.ReplaceAllString(title, "")
	return strings.TrimSpace(multiSpaces.ReplaceAllString(title, " "))
}

func removeBannedWords(title string) string {
	words := strings.Fields(title)
	var result []string
	for i := 0; i < len(words); {
		if i+1 < len(words) {
			pair := strings.ToLower(words[i] + " " + words[i+1])
			if bannedWords[pair] {
				i += 2
				continue
			}
		}
		lower := strings.ToLower(words[i])
		if bannedWords[lower] || bannedWords[strings.TrimRight(lower, "!")] {
			i++
			continue
		}
		result = append(result, words[i])
		i++
	}
	return strings.Join(result, " ")
}

func normalizeCase(title string) string {
	words := strings.Fields(title)
	result := make([]string, 0, len(words))
	for _, word := range words {
		clean := strings.Trim(word, ".,!-()#")
		if isAllCapsWord(clean) {
			if knownAcronyms[strings.ToLower(clean)] {
				result = append(result, strings.ToUpper(word))
			} else {
				result = append(result, capitalize(word))
			}
		} else {
			result = append(result, word)
		}
	}
	return strings.Join(result, " ")
}

func isAllCapsWord(w string) bool {
	if len([]rune(w)) <= 1 {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
		if unicode.ToUpper(r) != r {
			return false
		}
	}
	return true
}

func capitalize(w string) string {
	runes := []rune(strings.ToLower(w))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}

func frontLoadBrandModel(title, brand, model string) string {
	var prefixParts []string
	remaining := title

	if brand != "" {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(brand))
		remaining = strings.TrimSpace(re.ReplaceAllString(remaining, ""))
		prefixParts = append(prefixParts, brand)
	}
	if model != "" {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(model))
		remaining = strings.TrimSpace(re.ReplaceAllString(remaining, ""))
		prefixParts = append(prefixParts, model)
	}

	remaining = strings.TrimSpace(multiSpaces.ReplaceAllString(remaining, " "))
	remaining = strings.TrimLeft(remaining, "-–— ")

	if len(prefixParts) > 0 {
		prefix := strings.Join(prefixParts, " ")
		if remaining == "" {
			return prefix
		}
		return prefix + " " + remaining
	}
	return remaining
}

func enforceLength(title string) string {
	runes := []rune(title)
	if len(runes) <= MaxTitleLength {
		return title
	}
	truncated := string(runes[:MaxTitleLength])
	if idx := strings.LastIndex(truncated, " "); idx > MaxTitleLength/2 {
		return strings.TrimRight(truncated[:idx], " ")
	}
	return strings.TrimRight(truncated, " ")
}

func brandModelInFront(title, brand, model string) bool {
	runes := []rune(title)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	front := strings.ToLower(string(runes))
	if brand != "" && !strings.Contains(front, strings.ToLower(brand)) {
		return false
	}
	if model != "" && !strings.Contains(front, strings.ToLower(model)) {
		return false
	}
	return true
}
