// Package jsonapi decodes JSON:API response documents into normalized documents.
//
// The entry point for HTTP responses is [ParseResponse], which classifies the status
// code, short-circuits empty responses and otherwise parses and decodes the body.
// [Decode] works on an already parsed value. All functions are stateless and safe for
// concurrent use.
package jsonapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// ParseJSON parses a response body into a generic value.
// Numbers are kept as json.Number so ids and amounts survive unchanged.
// A blank body parses as an empty object. Anything that is not a JSON object or
// array at the top level is rejected with a *domain.ParseError.
func ParseJSON(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, domain.NewParseErrorWithCause(string(body), err)
	}

	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, domain.NewParseError(string(body), "unexpected data after top-level value")
	}

	switch value.(type) {
	case map[string]any, []any:
		return value, nil
	default:
		return nil, domain.NewParseError(string(body), fmt.Sprintf("top-level value is %s", describeKind(value)))
	}
}

// describeKind names the JSON kind of a parsed value.
func describeKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// encodeForMessage renders a parsed value back to JSON for error messages.
func encodeForMessage(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}
