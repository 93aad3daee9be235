// Package decode turns raw uploaded bytes into generic values the
// normalizer understands. It makes no assumptions about document schema;
// CSV cells are type-inferred so "42", "true" and "3.5" compare like the
// numbers and booleans they represent.
package decode

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/verdict/internal/core"
)

// ParseJSON decodes arbitrary JSON into generic values.
func ParseJSON(content []byte) (any, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// ParseYAML decodes arbitrary YAML into generic values.
func ParseYAML(content []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return v, nil
}

// ParseCSV decodes header-based CSV into one record per row. Rows shorter
// than the header leave the trailing columns absent; empty cells become
// nil.
func ParseCSV(content []byte) ([]core.Record, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // tolerate ragged rows

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("invalid CSV: missing header row")
	}

	header := rows[0]
	records := make([]core.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(core.Record, len(header))
		for i, key := range header {
			if i >= len(row) {
				break
			}
			record[key] = inferValue(row[i])
		}
		records = append(records, record)
	}
	return records, nil
}

// ParseAuto picks a decoder by filename extension. CSV results are wrapped
// as a generic list so every decoder feeds the normalizer the same way.
func ParseAuto(filename string, content []byte) (any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err := ParseCSV(content)
		if err != nil {
			return nil, err
		}
		payload := make([]any, len(records))
		for i, r := range records {
			payload[i] = map[string]any(r)
		}
		return payload, nil
	case ".yaml", ".yml":
		return ParseYAML(content)
	case ".json", "":
		return ParseJSON(content)
	default:
		return nil, fmt.Errorf("unsupported file type '%s' (expected .json, .yaml or .csv)", filepath.Ext(filename))
	}
}

// inferValue converts a CSV cell to the most specific type it looks like:
// bool, then integer, then float, then string. Empty cells are nil.
func inferValue(cell string) any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}

	if !strings.ContainsAny(cell, ".eE") {
		if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}

	return cell
}
