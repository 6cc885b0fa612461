package anna

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveResults writes books as indented JSON to path, replacing any previous
// file.
func SaveResults(path string, books []*Book) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// LoadResults reads a results file written by SaveResults
func LoadResults(path string) ([]*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var books []*Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return books, nil
}
