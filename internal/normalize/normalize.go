// Package normalize canonicalizes Arabic message text so that obfuscated
// abuse (tashkeel, tatweel, look-alike letters, stretched characters) matches
// the same blacklist entries and reads the same to the AI layer as the plain
// form.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tatweel (kashida) is not a combining mark, so the Mn strip misses it.
const tatweel = 'ـ'

var stripMarks = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
)

var letterVariants = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
	"ة", "ه",
	"ى", "ي",
)

// Normalize deep-cleans Arabic text:
//
//  1. NFKD decomposition, then strip combining marks (tashkeel, decorative
//     strike-through and similar layered codepoints).
//  2. Remove tatweel.
//  3. Collapse interchangeable letter variants (hamza-bearing alef forms to
//     plain alef, ta marbuta to ha, alef maqsura to ya).
//  4. Drop everything that is not an Arabic-block letter or whitespace.
//  5. Collapse runs of 3+ identical characters down to one.
//  6. Collapse and trim whitespace.
//
// The result is deterministic and idempotent; invalid or empty input yields
// an empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	cleaned, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Malformed UTF-8; fall back to the raw input rather than failing.
		cleaned = text
	}

	cleaned = letterVariants.Replace(cleaned)

	filtered := make([]rune, 0, len(cleaned))
	for _, r := range cleaned {
		if r == tatweel {
			continue
		}
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			filtered = append(filtered, r)
		case unicode.IsSpace(r):
			filtered = append(filtered, ' ')
		}
	}

	// A run of 3 or more identical characters collapses to a single one;
	// doubled letters are legitimate and stay.
	var b strings.Builder
	b.Grow(len(filtered))
	for i := 0; i < len(filtered); {
		j := i
		for j < len(filtered) && filtered[j] == filtered[i] {
			j++
		}
		if j-i >= 3 {
			b.WriteRune(filtered[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(filtered[k])
			}
		}
		i = j
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
