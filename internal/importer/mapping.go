package importer

// fieldMapping maps field identifier -> CSV column name. It is the inverted
// form of the caller's csvColumn -> field mapping, built once per run so row
// lookups are a single map access.
type fieldMapping map[string]string

// invertMapping flips csvColumn -> field into field -> csvColumn. When two
// columns map onto the same field, the later column (in Go map iteration
// order this is unspecified, so ties are broken by column name) wins; the
// mapping dialog prevents duplicates in practice.
func invertMapping(columnMapping map[string]string) fieldMapping {
	fm := make(fieldMapping, len(columnMapping))
	for col, field := range columnMapping {
		if field == "" {
			continue
		}
		if prev, ok := fm[field]; ok && prev >= col {
			continue
		}
		fm[field] = col
	}
	return fm
}

// lookup returns the raw cell value for field, or "" when the field is
// unmapped or the row lacks the column. Normalizers treat "" as absent, so
// there is no failure mode here.
func (fm fieldMapping) lookup(row RawRow, field string) string {
	col, ok := fm[field]
	if !ok {
		return ""
	}
	return row[col]
}
