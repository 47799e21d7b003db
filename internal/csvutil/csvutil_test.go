package csvutil

import (
	"reflect"
	"strings"
	"testing"
)

/*
TestParseLineLoose exercises the tolerant line splitter on both well-formed
and dirty inputs. The loose parser must never fail; malformed quoting
degrades into literal characters.
*/
func TestParseLineLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"empty_line", "", []string{""}},
		{"empty_fields", ",,", []string{"", "", ""}},
		{"quoted_comma", `"Blue, Dream",24.5`, []string{"Blue, Dream", "24.5"}},
		{"escaped_quote", `"say ""hi""",x`, []string{`say "hi"`, "x"}},
		{"inner_quote_unquoted", `5"4,x`, []string{`5"4`, "x"}},
		{"unterminated_quote", `"oops,still going`, []string{"oops,still going"}},
		{"quote_then_text", `"a"b,c`, []string{`a"b`, "c"}},
		{"quote_space_before_comma", `"a" ,b`, []string{"a ", "b"}},
		{"trailing_comma", "a,b,", []string{"a", "b", ""}},
		{"whitespace_kept", " a , b ", []string{" a ", " b "}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseLineLoose(tc.line)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseLineLoose(%q) = %q, want %q", tc.line, got, tc.want)
			}
		})
	}
}

/*
TestReadRows covers header handling (BOM, whitespace, empty columns), the
short/long row rules, and blank line skipping.
*/
func TestReadRows(t *testing.T) {
	t.Parallel()

	input := "\uFEFFName, THC%,,Notes\r\n" +
		"Blue Dream,24.5,ignored,\"fresh, tasty\"\r\n" +
		"\r\n" +
		"OG Kush,21\r\n" +
		"Gelato,19,x,hi,overflow\r\n"

	header, rows, err := ReadRows(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}

	wantHeader := []string{"Name", "THC%", "", "Notes"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Fatalf("header = %q, want %q", header, wantHeader)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank line skipped)", len(rows))
	}

	want := []map[string]string{
		{"Name": "Blue Dream", "THC%": "24.5", "Notes": "fresh, tasty"},
		{"Name": "OG Kush", "THC%": "21", "Notes": ""},
		{"Name": "Gelato", "THC%": "19", "Notes": "hi"},
	}
	for i, w := range want {
		if !reflect.DeepEqual(rows[i], w) {
			t.Errorf("row %d = %v, want %v", i, rows[i], w)
		}
	}
}

func TestReadRowsEmptyInput(t *testing.T) {
	t.Parallel()

	if _, _, err := ReadRows(strings.NewReader("")); err == nil {
		t.Fatal("ReadRows on empty input succeeded, want error")
	}
}

func TestReadRowsHeaderOnly(t *testing.T) {
	t.Parallel()

	header, rows, err := ReadRows(strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(header, []string{"a", "b"}) || len(rows) != 0 {
		t.Fatalf("header = %v rows = %v, want header only", header, rows)
	}
}

// Missing final newline must not drop the last row.
func TestReadRowsNoTrailingNewline(t *testing.T) {
	t.Parallel()

	_, rows, err := ReadRows(strings.NewReader("a,b\n1,2"))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["a"] != "1" || rows[0]["b"] != "2" {
		t.Fatalf("rows = %v, want the final unterminated row", rows)
	}
}
