package lexer

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// misspellings lists frequent keyword typos seen in student code.
var misspellings = map[string]string{
	"el":      "else",
	"Els":     "else",
	"elese":   "else",
	"esle":    "else",
	"fi":      "if",
	"fro":     "for",
	"fore":    "for",
	"whiel":   "while",
	"wile":    "while",
	"whyle":   "while",
	"witch":   "switch",
	"swtich":  "switch",
	"swicth":  "switch",
	"casse":   "case",
	"brake":   "break",
	"brk":     "break",
	"retrn":   "return",
	"reutrn":  "return",
	"retur":   "return",
	"defualt": "default",
	"defalt":  "default",
	"printF":  "printf",
	"pintf":   "printf",
	"scan":    "scanf",
	"scanF":   "scanf",
	"scnaf":   "scanf",
	"pnt":     "print",
	"prnit":   "print",
	"pinrt":   "print",
}

// commonNames are ordinary identifiers that happen to sit close to a keyword.
var commonNames = map[string]bool{
	"true":    true,
	"false":   true,
	"NULL":    true,
	"nullptr": true,
	"main":    true,
	"string":  true,
}

// maxSuggestions caps the number of keywords offered for one identifier.
const maxSuggestions = 2

// SuggestKeywords returns keywords that word is probably a misspelling of.
// It returns nil when word is a keyword or nothing is close enough.
func SuggestKeywords(word string) []string {
	if _, ok := keywords[word]; ok {
		return nil
	}
	if kw, ok := misspellings[word]; ok {
		return []string{kw}
	}
	if utf8.RuneCountInString(word) >= 8 || commonNames[word] {
		return nil
	}

	var out []string
	for _, kw := range sortedKeywords {
		if len(kw) <= 2 {
			continue
		}
		if similar(word, kw) {
			out = append(out, kw)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

// sortedKeywords gives SuggestKeywords a deterministic scan order.
var sortedKeywords = func() []string {
	ks := Keywords()
	sort.Strings(ks)
	return ks
}()

// similar reports whether a and b differ by at most two edits counted as
// positional mismatches plus the length difference. Words of three letters
// or fewer only match exactly.
func similar(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		return false
	}
	if len(a) <= 3 || len(b) <= 3 {
		return a == b
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	mismatches := diff
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			mismatches++
		}
	}
	return mismatches <= 2
}

// illegalCharHint returns a fix-it hint for a character C does not accept.
func illegalCharHint(ch rune) string {
	switch ch {
	case '@':
		return "use '*' for multiplication"
	case '#':
		return "'#' is only valid in preprocessor directives at the start of a line"
	case '$':
		return "identifiers must start with a letter or '_'"
	case '\\':
		return "'\\' is only valid inside strings and characters as an escape"
	case '`':
		return "use double quotes for strings and single quotes for characters"
	}
	switch {
	case strings.ContainsRune("áéíóúÁÉÍÓÚüÜ", ch):
		return "accented characters are not valid in C identifiers"
	case strings.ContainsRune("¿¡ñÑ", ch):
		return "special characters such as '¿', '¡' or 'ñ' are not valid in C"
	case ch > 127:
		return "Unicode characters outside standard ASCII are not valid in C"
	}
	return "check the syntax around this character"
}
