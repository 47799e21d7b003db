// Package importer implements the CSV menu-import pipeline: it maps arbitrary
// tabular rows onto the fixed menu schema, resolves each row's category label
// to a shelf (creating one when permitted), normalizes field values into
// strain or product records, and streams progress back to the caller while
// supporting mid-run cancellation.
//
// The package performs no file or database I/O of its own. Callers supply the
// already-parsed rows (see internal/csvutil) and receive a RunResult; reading
// CSV files and persisting the outcome are the caller's concern.
package importer

// Mode selects the import semantics: bulk flower menus produce Strain
// records, prepackaged menus produce Product records with shake/flower
// shelf classification.
type Mode string

const (
	ModeBulk        Mode = "bulk"
	ModePrepackaged Mode = "prepackaged"
)

// Valid reports whether m is one of the supported import modes.
func (m Mode) Valid() bool { return m == ModeBulk || m == ModePrepackaged }

// Field identifiers a column mapping may target. Unknown field names in a
// mapping are carried but never read.
const (
	FieldName     = "name"
	FieldShelf    = "shelf"
	FieldGrower   = "grower"
	FieldBrand    = "brand"
	FieldTHC      = "thc"
	FieldTerpenes = "terpenes"
	FieldPrice    = "price"
	FieldType     = "type"
	FieldSoldOut  = "soldout"
	FieldLastJar  = "lastjar"
	FieldLowStock = "lowstock"
	FieldNotes    = "notes"
)

// RawRow is one parsed CSV row: column name -> cell value. Rows are
// read-only inputs; the importer retains them only inside SkippedRow
// diagnostics.
type RawRow map[string]string

// Shelf is a named container records are filed into. Identity is the ID;
// shelf names are unique case-insensitively within one run.
type Shelf struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Record is the tagged union over the two menu record variants. Concrete
// types are *Strain and *Product.
type Record interface {
	RecordID() string
	RecordName() string
}

// Strain is a bulk-flower menu record. Numeric fields are nil when the
// source cell could not be parsed, never NaN.
type Strain struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Grower   string   `json:"grower,omitempty"`
	THC      *float64 `json:"thc"`
	Terpenes *float64 `json:"terpenes"`
	Type     string   `json:"type"`
	SoldOut  bool     `json:"soldOut"`
	LastJar  bool     `json:"lastJar"`
	Notes    string   `json:"notes,omitempty"`
}

func (s *Strain) RecordID() string   { return s.ID }
func (s *Strain) RecordName() string { return s.Name }

// Product is a prepackaged menu record. Price is required and defaults to 0
// when unparsable; the other numeric fields are nil when unparsable.
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	THC      *float64 `json:"thc"`
	Terpenes *float64 `json:"terpenes"`
	Price    float64  `json:"price"`
	Type     string   `json:"type"`
	SoldOut  bool     `json:"soldOut"`
	LowStock bool     `json:"lowStock"`
	Notes    string   `json:"notes,omitempty"`
}

func (p *Product) RecordID() string   { return p.ID }
func (p *Product) RecordName() string { return p.Name }

// SkippedRow records one unrecoverable row. RowIndex is 1-based and includes
// the header line, so the first data row is index 2.
type SkippedRow struct {
	RowIndex int    `json:"rowIndex"`
	RowData  RawRow `json:"rowData"`
	Reason   string `json:"reason"`
}

// Stats summarizes a completed run. ShakeCount and FlowerCount are only
// populated in prepackaged mode.
type Stats struct {
	TotalProcessed int `json:"totalProcessed"`
	TotalSkipped   int `json:"totalSkipped"`
	ShakeCount     int `json:"shakeCount,omitempty"`
	FlowerCount    int `json:"flowerCount,omitempty"`
}

// RunResult is the sole terminal artifact of a successful run. It is built
// exactly once, at run end; cancelled or failed runs never produce one.
type RunResult struct {
	ShelfAssignments map[string][]Record `json:"shelfAssignments"`
	CreatedShelves   []Shelf             `json:"createdShelves"`
	SkippedRows      []SkippedRow        `json:"skippedRows"`
	Stats            Stats               `json:"stats"`
}

// Request carries everything one run needs. ColumnMapping maps CSV column
// name -> field identifier (see the Field* constants).
type Request struct {
	Rows               []RawRow          `json:"rows"`
	ColumnMapping      map[string]string `json:"columnMapping"`
	Mode               Mode              `json:"mode"`
	ExistingShelves    []Shelf           `json:"existingDestinations"`
	AllowCreateShelves bool              `json:"allowCreateDestinations"`
}

// Progress is the live state of a run as of its most recent chunk.
type Progress struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Stage     string `json:"stage"`
}
