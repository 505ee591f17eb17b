package domain

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Document is the normalized form of a JSON:API response.
// Data mirrors the shape of the source primary data: a map for a single resource,
// a slice for a collection.
type Document struct {
	Data     any            `json:"data"     yaml:"data"`
	Errors   []any          `json:"errors"   yaml:"errors"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// EmptyDocument returns the document produced for a response without content.
func EmptyDocument() *Document {
	return &Document{
		Data:     map[string]any{},
		Errors:   []any{},
		Metadata: map[string]any{},
	}
}

// IsCollection reports whether the primary data is a sequence of resources.
func (d *Document) IsCollection() bool {
	_, ok := d.Data.([]any)
	return ok
}

// Identifier names a resource within a document.
type Identifier struct {
	Type string
	ID   string
}

// String returns "type/id".
func (i Identifier) String() string {
	return i.Type + "/" + i.ID
}

// IdentifierOf extracts the (type, id) pair from a resource or resource identifier object.
// Numeric and string ids normalize to the same string. Returns false when the value is
// not an object, type is not a string, or id is missing or null.
func IdentifierOf(value any) (Identifier, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return Identifier{}, false
	}

	typ, ok := obj["type"].(string)
	if !ok {
		return Identifier{}, false
	}

	id, ok := normalizeID(obj["id"])
	if !ok {
		return Identifier{}, false
	}

	return Identifier{Type: typ, ID: id}, true
}

// normalizeID renders an id value as a string. Numbers are rendered by value, so
// 1, 1.0 and 1e0 all become "1" whether they arrive as json.Number or float64.
func normalizeID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, true
	case json.Number:
		return normalizeNumber(id), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case uint64:
		return strconv.FormatUint(id, 10), true
	case bool:
		return strconv.FormatBool(id), true
	default:
		return "", false
	}
}

// normalizeNumber renders a JSON number the way a float64 id is rendered. Integers
// that fit in int64 and digit strings too long for float64 keep their exact digits.
func normalizeNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}

	text := n.String()
	if isDigits(text) {
		return text
	}

	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return text
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
