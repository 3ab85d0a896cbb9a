// Package normalize folds French address text into comparable tokens.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ligatures    = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae")
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9]+`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// streetTypes expands the abbreviations used by the sales registry for the
// leading street type token.
var streetTypes = map[string]string{
	"r":    "rue",
	"av":   "avenue",
	"ave":  "avenue",
	"bd":   "boulevard",
	"bld":  "boulevard",
	"boul": "boulevard",
	"ch":   "chemin",
	"che":  "chemin",
	"imp":  "impasse",
	"pl":   "place",
	"all":  "allee",
	"rte":  "route",
	"qu":   "quai",
	"crs":  "cours",
	"sq":   "square",
	"pas":  "passage",
	"pass": "passage",
	"fg":   "faubourg",
	"fbg":  "faubourg",
	"sen":  "sentier",
	"res":  "residence",
	"lot":  "lotissement",
	"prom": "promenade",
	"vla":  "villa",
	"ham":  "hameau",
	"cite": "cite",
}

// saints expands abbreviations allowed anywhere in a street name.
var saints = map[string]string{
	"st":  "saint",
	"ste": "sainte",
}

// Fold lowercases s and strips diacritics ("Église" -> "eglise").
func Fold(s string) string {
	s = ligatures.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Words folds s and splits it on anything that is not a letter or digit.
func Words(s string) []string {
	folded := nonAlnumRe.ReplaceAllString(Fold(s), " ")
	return strings.Fields(folded)
}

// Address normalizes free-text address input for use as a cache key:
// folded, punctuation reduced to spaces, whitespace collapsed.
func Address(s string) string {
	return strings.Join(Words(s), " ")
}

// Whitespace trims s and collapses internal whitespace runs to one space
// without altering case or accents.
func Whitespace(s string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(s, " "))
}

// StreetToken reduces a street name to a lowercase alphanumeric token with
// the street type abbreviation expanded: "AV DE L'ÉGLISE" -> "avenuedeleglise".
func StreetToken(street string) string {
	words := Words(street)
	if len(words) == 0 {
		return ""
	}
	if full, ok := streetTypes[words[0]]; ok && len(words) > 1 {
		words[0] = full
	}
	for i, w := range words {
		if full, ok := saints[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, "")
}
