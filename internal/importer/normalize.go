package importer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field normalizers. Every function here is pure and total: no input can
// raise a fault, and numeric results are nil (never NaN) when unparsable.

// numberRe matches the first decimal number in a cell, e.g. "24.5%" -> 24.5.
var numberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// cleanField normalizes a raw cell: NBSP -> space, then trim. Production
// exports routinely carry U+00A0 copied out of spreadsheet UIs.
func cleanField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}

// foldTransform strips combining marks so that accented shelf names match
// their plain-ASCII spellings.
var foldTransform = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldKey builds the canonical case-insensitive lookup key for shelf names
// and category labels.
func foldKey(s string) string {
	folded, _, err := transform.String(foldTransform, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// extractNumeric returns the first decimal number found in s, or nil for
// empty cells and the conventional "-" placeholder.
func extractNumeric(s string) *float64 {
	s = cleanField(s)
	if s == "" || s == "-" {
		return nil
	}
	m := numberRe.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// priceStripper drops currency symbols and thousands separators before
// numeric extraction.
var priceStripper = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "")

// parsePrice parses a price cell. Price is a required product field, so an
// unparsable cell yields 0 rather than nil.
func parsePrice(s string) float64 {
	v := extractNumeric(priceStripper.Replace(s))
	if v == nil {
		return 0
	}
	return *v
}

// strainTypeAliases maps separator-stripped uppercase spellings onto the
// canonical strain type labels.
var strainTypeAliases = map[string]string{
	"S":            "Sativa",
	"SATIVA":       "Sativa",
	"I":            "Indica",
	"INDICA":       "Indica",
	"H":            "Hybrid",
	"HYBRID":       "Hybrid",
	"SH":           "Sativa Hybrid",
	"SATIVAHYBRID": "Sativa Hybrid",
	"HYBRIDSATIVA": "Sativa Hybrid",
	"IH":           "Indica Hybrid",
	"INDICAHYBRID": "Indica Hybrid",
	"HYBRIDINDICA": "Indica Hybrid",
}

// typeSeparators are stripped before the alias lookup so "S/H", "s-h" and
// "Sativa Hybrid" all land on the same key.
var typeSeparators = strings.NewReplacer(" ", "", "-", "", "/", "", "_", "", ".", "")

// normalizeStrainType canonicalizes free-form strain type cells. Unknown and
// empty values default to Hybrid. The function is idempotent on its own
// output: every canonical label normalizes to itself.
func normalizeStrainType(s string) string {
	key := strings.ToUpper(typeSeparators.Replace(cleanField(s)))
	if canonical, ok := strainTypeAliases[key]; ok {
		return canonical
	}
	return "Hybrid"
}

// Boolean flag vocabularies. The three flags share the generic truthy words
// but each accepts its own spelled-out forms; membership is case-insensitive
// on the trimmed cell.
var (
	soldOutWords  = boolVocab("sold out", "soldout", "sold")
	lastJarWords  = boolVocab("last jar", "lastjar", "last")
	lowStockWords = boolVocab("low stock", "lowstock", "low")
)

func boolVocab(extra ...string) map[string]struct{} {
	set := map[string]struct{}{
		"1": {}, "x": {}, "y": {}, "yes": {}, "true": {}, "t": {},
	}
	for _, w := range extra {
		set[w] = struct{}{}
	}
	return set
}

// parseBool reports whether the trimmed, lowercased cell is a member of the
// given vocabulary. Anything else, including empty cells, is false.
func parseBool(s string, vocab map[string]struct{}) bool {
	_, ok := vocab[strings.ToLower(cleanField(s))]
	return ok
}
