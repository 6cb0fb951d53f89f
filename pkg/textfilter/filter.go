// Package textfilter prepares model output and game numbers for display.
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	fenceRegex    = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	headingRegex  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	bulletRegex   = regexp.MustCompile(`(?m)^\s*[*+-]\s+`)
	emphasisRegex = regexp.MustCompile(`(\*\*|__|\*|_|` + "`" + `)([^*_` + "`" + `\n]+)(\*\*|__|\*|_|` + "`" + `)`)
	spaceRegex    = regexp.MustCompile(`[ \t]+`)
	blankRegex    = regexp.MustCompile(`\n{3,}`)
)

// Clean strips markdown from model prose so it reads as plain text in a
// terminal. Bullets become "• ". Paragraph breaks are kept.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	result := strings.ReplaceAll(text, "\r\n", "\n")
	result = fenceRegex.ReplaceAllString(result, "")
	result = headingRegex.ReplaceAllString(result, "")
	result = bulletRegex.ReplaceAllString(result, "• ")
	result = emphasisRegex.ReplaceAllString(result, "$2")
	result = spaceRegex.ReplaceAllString(result, " ")

	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	result = strings.Join(lines, "\n")
	result = blankRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// Truncate shortens text to at most n runes, ending with an ellipsis when cut.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if n <= 0 {
		return ""
	}
	if len(runes) <= n {
		return text
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

var (
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

// Title title-cases a name, e.g. "port azure" -> "Port Azure".
func Title(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// Currency formats an amount with grouping, e.g. 12500 -> "$12,500".
func Currency(amount int) string {
	if amount < 0 {
		return printer.Sprintf("-$%d", -amount)
	}
	return printer.Sprintf("$%d", amount)
}

// Number formats an integer with grouping.
func Number(n int) string {
	return printer.Sprintf("%d", n)
}
