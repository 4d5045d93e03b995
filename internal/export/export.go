// Package export writes the ebook aggregate as indented JSON and checks it
// against the embedded export schema.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/ebookstudio/internal/ebook"
)

//go:embed schema.json
var schemaJSON []byte

// ErrNoDocument is returned when there is nothing to export.
var ErrNoDocument = errors.New("no document to export")

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load export schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile export schema: %w", err)
	}
	return schema, nil
})

// Schema returns the raw export schema.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// Export renders doc as indented JSON and validates the result.
func Export(doc *ebook.Ebook) ([]byte, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ebook: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks data against the export schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode export for validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("export failed schema validation: %w", err)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases title and joins its words with dashes.
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// Filename returns the export file name for title at t.
func Filename(title string, t time.Time) string {
	return fmt.Sprintf("ebook-%s-%s.json", Slug(title), t.UTC().Format("20060102-150405"))
}

// WriteFile exports doc into dir and returns the written path.
func WriteFile(dir string, doc *ebook.Ebook, now time.Time) (string, error) {
	data, err := Export(doc)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(doc.Title, now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
