package importer

import "strings"

// shelfIndex resolves category labels to shelf ids for one run. The index
// starts from the caller-supplied shelves and grows monotonically as shelves
// are created mid-run; shelves are never renamed or removed.
//
// Lookup keys are folded (case-insensitive, diacritics stripped), and every
// label that resolves once is memoized so later rows with the same label are
// guaranteed the same id regardless of which fallback produced the first hit.
type shelfIndex struct {
	pool        *idPool
	allowCreate bool
	byName      map[string]string // foldKey(shelf name) -> shelf id
	byLabel     map[string]string // foldKey(raw label)  -> shelf id (memo)
	created     []Shelf
}

func newShelfIndex(existing []Shelf, allowCreate bool, pool *idPool) *shelfIndex {
	ix := &shelfIndex{
		pool:        pool,
		allowCreate: allowCreate,
		byName:      make(map[string]string, len(existing)),
		byLabel:     make(map[string]string),
	}
	for _, s := range existing {
		ix.byName[foldKey(s.Name)] = s.ID
	}
	return ix
}

// isShake classifies a prepackaged item: anything whose name contains
// "shake" (case-insensitive) files onto a shake shelf.
func isShake(itemName string) bool {
	return strings.Contains(strings.ToLower(itemName), "shake")
}

// canonicalLabel builds the primary prepackaged matching key from a weight
// label: a "g" suffix is inserted when absent and the shake/flower word is
// appended, so "3.5" becomes "3.5g Flower".
func canonicalLabel(label string, shake bool) string {
	if !strings.HasSuffix(strings.ToLower(label), "g") {
		label += "g"
	}
	if shake {
		return label + " Shake"
	}
	return label + " Flower"
}

// resolve maps a row's category label to a shelf id. On a miss with creation
// allowed it synthesizes a shelf named after the raw label. The second
// return value lists every label that was attempted, for skip diagnostics;
// ok is false only when nothing matched and creation is disallowed (or the
// label is empty).
func (ix *shelfIndex) resolve(mode Mode, label string, shake bool) (id string, attempted []string, ok bool) {
	if label == "" {
		return "", nil, false
	}
	if id, ok := ix.byLabel[foldKey(label)]; ok {
		return id, nil, true
	}

	candidates := ix.candidates(mode, label, shake)
	for _, c := range candidates {
		if id, ok := ix.byName[foldKey(c)]; ok {
			ix.byLabel[foldKey(label)] = id
			return id, nil, true
		}
	}
	if !ix.allowCreate {
		return "", candidates, false
	}

	s := Shelf{ID: ix.pool.get(), Name: label}
	ix.byName[foldKey(s.Name)] = s.ID
	ix.byLabel[foldKey(label)] = s.ID
	ix.created = append(ix.created, s)
	return s.ID, nil, true
}

// candidates returns the match keys in attempt order. Bulk mode is a single
// exact match; prepackaged mode tries the canonical label first, then the
// raw label, then the label with a "g" suffix toggled.
func (ix *shelfIndex) candidates(mode Mode, label string, shake bool) []string {
	if mode != ModePrepackaged {
		return []string{label}
	}
	out := []string{canonicalLabel(label, shake), label}
	if strings.HasSuffix(strings.ToLower(label), "g") {
		out = append(out, strings.TrimSpace(label[:len(label)-1]))
	} else {
		out = append(out, label+"g")
	}
	return out
}
