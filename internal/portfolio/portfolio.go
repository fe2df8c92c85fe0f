// Package portfolio serves the static profile document shown on the site.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is the decoded portfolio file; its shape belongs to the frontend.
type Document map[string]any

// Source reads the portfolio document from disk on every call so edits show
// up without a restart.
type Source struct {
	path string
}

// NewSource returns a Source reading path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Load reads and decodes the whole document.
func (s *Source) Load() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read portfolio data: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode portfolio data: %w", err)
	}
	return doc, nil
}

// Section returns one top-level key, or nil when it is absent.
func (s *Source) Section(name string) (any, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc[name], nil
}
