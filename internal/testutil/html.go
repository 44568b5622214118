package testutil

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tagPattern    = regexp.MustCompile(`<(/?)([a-z]+)[^<>]*>`)
	entityPattern = regexp.MustCompile(`^&(amp|lt|gt|quot|#39|#[0-9]+);`)
)

// VisibleLength is the rune count Telegram sees once HTML markup is parsed.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// CheckHTML reports unbalanced tags and bare ampersands in a message sent in HTML parse mode.
func CheckHTML(s string) error {
	var open []string
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if m[1] == "" {
			open = append(open, m[2])
			continue
		}
		if len(open) == 0 || open[len(open)-1] != m[2] {
			return fmt.Errorf("unexpected closing tag </%s>", m[2])
		}
		open = open[:len(open)-1]
	}
	if len(open) > 0 {
		return fmt.Errorf("unclosed tags %v", open)
	}

	stripped := tagPattern.ReplaceAllString(s, "")
	if strings.ContainsAny(stripped, "<>") {
		return fmt.Errorf("stray angle bracket")
	}
	for i := strings.IndexByte(stripped, '&'); i >= 0; {
		if !entityPattern.MatchString(stripped[i:]) {
			return fmt.Errorf("bare ampersand at byte %d", i)
		}
		next := strings.IndexByte(stripped[i+1:], '&')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil
}
