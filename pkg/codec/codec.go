// Package codec encodes circuit documents as JSON or YAML.
//
// JSON is the canonical form. YAML documents are decoded into a generic map
// first and then mapped onto domain.Document with mapstructure, which lets the
// same path accept tool arguments and configuration fragments.
package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/circuitry/pkg/domain"
)

// Format selects a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown document format %q", s)
	}
}

// Encode serializes doc.
func Encode(doc *domain.Document, f Format) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if f != YAML {
		return append(data, '\n'), nil
	}

	// Route through the JSON form so endpoints and points keep their pair shape.
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode document as yaml: %w", err)
	}
	return out, nil
}

// Decode parses a document.
func Decode(data []byte, f Format) (*domain.Document, error) {
	if f != YAML {
		var doc domain.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		return &doc, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return DecodeMap(raw)
}

// DecodeMap maps a generic value tree (YAML, JSON objects, tool arguments)
// onto a document.
func DecodeMap(raw map[string]any) (*domain.Document, error) {
	var doc domain.Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       pairHook,
		WeaklyTypedInput: true,
		Result:           &doc,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

var (
	endpointType = reflect.TypeOf(domain.Endpoint{})
	pointType    = reflect.TypeOf(domain.Point{})
)

// pairHook turns two-element sequences into Endpoint and Point values.
func pairHook(from, to reflect.Type, data any) (any, error) {
	if to != endpointType && to != pointType {
		return data, nil
	}
	pair, ok := data.([]any)
	if !ok {
		return data, nil
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("want a pair, got %d values", len(pair))
	}
	a, err := number(pair[0])
	if err != nil {
		return nil, err
	}
	b, err := number(pair[1])
	if err != nil {
		return nil, err
	}
	if to == endpointType {
		return domain.Endpoint{Component: int(a), Slot: int(b)}, nil
	}
	return domain.Point{X: a, Y: b}, nil
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}

// ReadFile loads a document, picking the format from the extension.
func ReadFile(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile stores a document, picking the format from the extension.
func WriteFile(path string, doc *domain.Document) error {
	data, err := Encode(doc, FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
