// Package textutil holds the Unicode handling shared by the analysers:
// script detection for the Telugu block and the normal form used for
// token and pattern matching.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Telugu block bounds.
const (
	teluguFirst = '\u0C00'
	teluguLast  = '\u0C7F'
)

// IsTelugu reports whether r is in the Telugu Unicode block.
func IsTelugu(r rune) bool { return r >= teluguFirst && r <= teluguLast }

// ContainsTelugu reports whether any rune of s is Telugu.
func ContainsTelugu(s string) bool {
	for _, r := range s {
		if IsTelugu(r) {
			return true
		}
	}
	return false
}

// TeluguShare is the fraction of non-space runes that are Telugu.
// Empty or all-space input yields 0.
func TeluguShare(s string) float64 {
	var telugu, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if IsTelugu(r) {
			telugu++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(telugu) / float64(total)
}

// IsBlank reports whether s has no non-space runes.
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }

// Clean repairs invalid UTF-8 and composes to NFC.
func Clean(s string) string {
	return norm.NFC.String(strings.ToValidUTF8(s, ""))
}

// isWordRune keeps Telugu vowel signs and viramas (Mn/Mc) inside words.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// Tokens splits s into lower-cased NFC words. Punctuation, symbols and
// whitespace separate words.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(Clean(s)), func(r rune) bool {
		return !isWordRune(r)
	})
}

// Normalize returns the tokens of s joined by single spaces and padded with
// one space on each side, so that " word" marks a word start.
func Normalize(s string) string {
	toks := Tokens(s)
	if len(toks) == 0 {
		return " "
	}
	return " " + strings.Join(toks, " ") + " "
}

// NormalizePhrase normalises a dictionary entry without padding.
func NormalizePhrase(s string) string {
	return strings.Join(Tokens(s), " ")
}

// IsLatin reports whether s contains no Telugu runes. Used to choose
// word-start matching for English dictionary entries.
func IsLatin(s string) bool { return !ContainsTelugu(s) }

// RuneLen counts runes.
func RuneLen(s string) int { return len([]rune(s)) }
