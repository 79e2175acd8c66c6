package ocr

import (
	"regexp"
	"strings"
)

// reRuleNoise matches table borders and underlines tesseract reports as words.
var reRuleNoise = regexp.MustCompile(`^[_\-=|~.]{3,}$`)

// JoinFragments trims each fragment, drops empty ones and joins the rest with a
// single space, keeping their order.
func JoinFragments(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// linesToFragments splits plain engine output into one fragment per non-empty line.
func linesToFragments(out string) []string {
	out = strings.ReplaceAll(out, "\r\n", "\n")
	var frags []string
	for _, ln := range strings.Split(out, "\n") {
		// tesseract ends output with a form feed
		if f := strings.TrimSpace(strings.Trim(ln, "\f")); f != "" {
			frags = append(frags, f)
		}
	}
	return frags
}
