package importer

import (
	"math"
	"strconv"
	"testing"
)

/*
TestExtractNumeric verifies the numeric extraction semantics:

  - Empty cells and the "-" placeholder yield nil.
  - The first decimal number wins, regardless of surrounding text.
  - The result is never NaN.
*/
func TestExtractNumeric(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{name: "empty", in: "", want: nil},
		{name: "dash_placeholder", in: "-", want: nil},
		{name: "whitespace_only", in: "   ", want: nil},
		{name: "plain_int", in: "24", want: ptr(24)},
		{name: "plain_decimal", in: "24.5", want: ptr(24.5)},
		{name: "percent_suffix", in: "24.5%", want: ptr(24.5)},
		{name: "label_prefix", in: "THC: 19.2%", want: ptr(19.2)},
		{name: "first_number_wins", in: "18.5 - 22.1", want: ptr(18.5)},
		{name: "no_number", in: "n/a", want: nil},
		{name: "nbsp_padding", in: " 21.0 ", want: ptr(21.0)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := extractNumeric(tc.in)
			switch {
			case tc.want == nil && got != nil:
				t.Fatalf("extractNumeric(%q) = %v, want nil", tc.in, *got)
			case tc.want != nil && got == nil:
				t.Fatalf("extractNumeric(%q) = nil, want %v", tc.in, *tc.want)
			case tc.want != nil && *got != *tc.want:
				t.Fatalf("extractNumeric(%q) = %v, want %v", tc.in, *got, *tc.want)
			}
			if got != nil && math.IsNaN(*got) {
				t.Fatalf("extractNumeric(%q) produced NaN", tc.in)
			}
		})
	}
}

// TestExtractNumericRoundTrip checks that formatting a non-negative decimal
// and extracting it recovers the value within floating-point tolerance.
func TestExtractNumericRoundTrip(t *testing.T) {
	t.Parallel()
	values := []float64{0, 0.1, 1, 3.5, 19.75, 24.5, 100, 9999.99}
	for _, v := range values {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		got := extractNumeric(s)
		if got == nil {
			t.Fatalf("extractNumeric(%q) = nil", s)
		}
		if math.Abs(*got-v) > 1e-9 {
			t.Fatalf("extractNumeric(%q) = %v, want %v", s, *got, v)
		}
	}
}

/*
TestParsePrice verifies that currency symbols and thousands separators are
stripped before extraction and that unparsable prices degrade to 0, since
price is a required product field.
*/
func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{name: "dollar", in: "$35.00", want: 35},
		{name: "bare", in: "12.5", want: 12.5},
		{name: "thousands", in: "$1,250.00", want: 1250},
		{name: "euro", in: "€20", want: 20},
		{name: "empty", in: "", want: 0},
		{name: "dash", in: "-", want: 0},
		{name: "garbage", in: "call for price", want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := parsePrice(tc.in); got != tc.want {
				t.Fatalf("parsePrice(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

/*
TestNormalizeStrainType verifies the alias table, the separator stripping,
and the Hybrid default for unknown or empty input.
*/
func TestNormalizeStrainType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "s", want: "Sativa"},
		{in: "SATIVA", want: "Sativa"},
		{in: "sativa", want: "Sativa"},
		{in: "i", want: "Indica"},
		{in: "Indica", want: "Indica"},
		{in: "h", want: "Hybrid"},
		{in: "hybrid", want: "Hybrid"},
		{in: "s/h", want: "Sativa Hybrid"},
		{in: "sativa hybrid", want: "Sativa Hybrid"},
		{in: "hybrid-sativa", want: "Sativa Hybrid"},
		{in: "i/h", want: "Indica Hybrid"},
		{in: "indica_hybrid", want: "Indica Hybrid"},
		{in: "hybrid indica", want: "Indica Hybrid"},
		{in: "", want: "Hybrid"},
		{in: "whatever", want: "Hybrid"},
		{in: " SATIVA ", want: "Sativa"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := normalizeStrainType(tc.in); got != tc.want {
				t.Fatalf("normalizeStrainType(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestNormalizeStrainTypeIdempotent checks that canonical output is a fixed
// point: normalizing twice never changes the result.
func TestNormalizeStrainTypeIdempotent(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"s", "S/H", "indica", "hybrid", "junk", "", "Sativa Hybrid",
		"Indica Hybrid", "Hybrid", "Sativa", "Indica", "i-h", "24.5%",
	}
	for _, in := range inputs {
		once := normalizeStrainType(in)
		twice := normalizeStrainType(once)
		if once != twice {
			t.Fatalf("normalizeStrainType not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

/*
TestParseBool verifies the three flag vocabularies: each accepts the shared
truthy words plus its own spelled-out forms, and the sets overlap without
being identical.
*/
func TestParseBool(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		vocab map[string]struct{}
		want  bool
	}{
		{name: "yes_sold_out", in: "yes", vocab: soldOutWords, want: true},
		{name: "x_sold_out", in: "X", vocab: soldOutWords, want: true},
		{name: "spelled_sold_out", in: "Sold Out", vocab: soldOutWords, want: true},
		{name: "spelled_last_jar", in: "last jar", vocab: lastJarWords, want: true},
		{name: "spelled_low_stock", in: "LOW", vocab: lowStockWords, want: true},
		{name: "cross_vocab_miss", in: "sold out", vocab: lastJarWords, want: false},
		{name: "cross_vocab_miss_2", in: "low", vocab: soldOutWords, want: false},
		{name: "empty", in: "", vocab: soldOutWords, want: false},
		{name: "no", in: "no", vocab: soldOutWords, want: false},
		{name: "padded", in: " true ", vocab: lowStockWords, want: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := parseBool(tc.in, tc.vocab); got != tc.want {
				t.Fatalf("parseBool(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

// TestFoldKey covers the case-insensitive, diacritic-stripped shelf keys.
func TestFoldKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Top Shelf", want: "top shelf"},
		{in: "TOP SHELF", want: "top shelf"},
		{in: "  Top Shelf  ", want: "top shelf"},
		{in: "Crème", want: "creme"},
		{in: "3.5g Flower", want: "3.5g flower"},
	}
	for _, tc := range tests {
		if got := foldKey(tc.in); got != tc.want {
			t.Fatalf("foldKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
