// Package scanfile reads extraction documents: the per-photograph field
// values an extractor produced, as JSON or TOML.
package scanfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"sleeve/internal/identification"
	"sleeve/internal/services"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

//go:embed scan.schema.json
var schemaSource []byte

const schemaURL = "sleeve/scan.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// record is the flat on-disk shape of one scan.
type record struct {
	ID            string `json:"id" toml:"id"`
	Barcode       string `json:"barcode" toml:"barcode"`
	CatalogNumber string `json:"catalog_number" toml:"catalog_number"`
	Matrix        string `json:"matrix" toml:"matrix"`
	CopyrightLine string `json:"copyright_line" toml:"copyright_line"`
}

type tomlDocument struct {
	Scans []record `toml:"scan"`
}

// FormatForPath picks the format from the file extension. Unknown
// extensions are read as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Load reads the scans in path.
func Load(path string) ([]identification.Scan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "scanfile", "load", path, err)
		}
		return nil, services.Wrap(services.ErrStorage, "scanfile", "load", path, err)
	}
	return Parse(data, FormatForPath(path))
}

// Parse decodes a document. Scans without an id are assigned a random one;
// ids must be unique within the document.
func Parse(data []byte, format Format) ([]identification.Scan, error) {
	var (
		records []record
		err     error
	)
	switch format {
	case FormatJSON:
		records, err = parseJSON(data)
	case FormatTOML:
		records, err = parseTOML(data)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scanfile", "parse", string(format), err)
	}

	scans := make([]identification.Scan, 0, len(records))
	seen := make(map[string]int, len(records))
	for idx, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = uuid.NewString()
		}
		if first, ok := seen[id]; ok {
			return nil, services.Wrap(services.ErrValidation, "scanfile", "parse",
				fmt.Sprintf("scan id %q repeated at positions %d and %d", id, first+1, idx+1), nil)
		}
		seen[id] = idx
		scans = append(scans, identification.Scan{
			ID: id,
			Fields: identification.RawScanFields{
				Barcode:       rec.Barcode,
				CatalogNumber: rec.CatalogNumber,
				Matrix:        rec.Matrix,
				CopyrightLine: rec.CopyrightLine,
			},
		})
	}
	return scans, nil
}

func parseJSON(data []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("document does not match scan schema: %w", err)
	}

	if trimmed[0] == '[' {
		var records []record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode scans: %w", err)
		}
		return records, nil
	}
	var single record
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("decode scan: %w", err)
	}
	return []record{single}, nil
}

func parseTOML(data []byte) ([]record, error) {
	var doc tomlDocument
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	return doc.Scans, nil
}
