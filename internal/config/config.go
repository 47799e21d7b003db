// Package config defines the JSON-serializable job model for the menu
// import CLI. A job file names the CSV source, the column mapping, the
// import mode and shelf inventory, runtime tuning knobs, and the optional
// result sink and metrics backend.
//
// Decoding is performed by the standard library; the model is intentionally
// small and explicit so job files can be versioned next to the menus they
// import.
//
// Example (trimmed):
//
//	{
//	  "job":  "august-menu",
//	  "source":  { "path": "menus/august.csv" },
//	  "mapping": { "Strain Name": "name", "Category": "shelf", "THC%": "thc" },
//	  "mode": "bulk",
//	  "shelves": [ { "id": "top", "name": "Top Shelf" } ],
//	  "allow_create_shelves": true,
//	  "storage": { "kind": "sqlite", "db": { "dsn": "menu.db" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/TheBurd/mango-cannabis-flower-menu-builder-sub000/internal/importer"
)

// Job is the top-level object decoded from a job file.
type Job struct {
	// Job names the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source locates the CSV input.
	Source Source `json:"source"`

	// Mapping maps CSV column name -> record field identifier
	// (importer.Field* constants).
	Mapping map[string]string `json:"mapping"`

	// Mode selects bulk or prepackaged semantics.
	Mode importer.Mode `json:"mode"`

	// Shelves is the pre-existing shelf inventory.
	Shelves []importer.Shelf `json:"shelves"`

	// AllowCreateShelves permits the run to synthesize shelves for
	// unmatched categories.
	AllowCreateShelves bool `json:"allow_create_shelves"`

	// Runtime tunes chunking and cancellation.
	Runtime RuntimeConfig `json:"runtime"`

	// Storage optionally persists the run result. Kind "" disables
	// persistence.
	Storage Storage `json:"storage"`

	// Metrics optionally selects a metrics backend.
	Metrics Metrics `json:"metrics"`
}

// Source locates the CSV input file.
type Source struct {
	Path string `json:"path"`
}

// RuntimeConfig controls chunk size and the post-cancel grace period.
// Zero values select the importer defaults.
type RuntimeConfig struct {
	ChunkSize     int `json:"chunk_size"`
	CancelGraceMS int `json:"cancel_grace_ms"`
}

// Storage selects the result sink.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", "mysql", "mssql",
	// or "" for no persistence.
	Kind string `json:"kind"`

	DB DBConfig `json:"db"`
}

// DBConfig configures the selected database sink.
type DBConfig struct {
	// DSN is the backend-specific connection string.
	DSN string `json:"dsn"`

	// TablePrefix optionally prefixes the result tables
	// (shelves/records/skipped_rows).
	TablePrefix string `json:"table_prefix"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	// Backend is "pushgateway", "datadog", or "" / "none".
	Backend string `json:"backend"`

	PushgatewayURL string `json:"pushgateway_url"`
	DogstatsdAddr  string `json:"dogstatsd_addr"`
}

// Load reads and decodes a job file.
func Load(path string) (Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open job config: %w", err)
	}
	defer f.Close()

	var j Job
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode job config: %w", err)
	}
	return j, nil
}
