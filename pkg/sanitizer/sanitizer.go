package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reStatusSeparators = regexp.MustCompile(`[\s\-]+`)
	reTrimUnderscores  = regexp.MustCompile(`_+`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func upper(s string) string {
	return strings.ToUpper(s)
}

// dropInvisible removes whitespace and control runes. Provider identifiers never
// contain them, but copy-pasted test payloads often do.
func dropInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// SanitizeIdentifier cleans order ids, payment keys, tids and pg_tokens.
// Case is preserved.
func SanitizeIdentifier(input string) string {
	return Pipeline{trim, dropInvisible}.Apply(input)
}

// SanitizeProvider lowercases a provider name: " Toss " becomes "toss".
func SanitizeProvider(input string) string {
	return Pipeline{trim, dropInvisible, lower}.Apply(input)
}

// SanitizeProviderStatus canonicalizes a provider status code:
// "done" becomes "DONE", "success-payment" becomes "SUCCESS_PAYMENT".
func SanitizeProviderStatus(input string) string {
	p := Pipeline{
		trim,
		func(s string) string { return reStatusSeparators.ReplaceAllString(s, "_") },
		collapseUnderscores,
		upper,
	}
	return p.Apply(input)
}
