package commands

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// documentOutput is the printed form of a decoded document.
type documentOutput struct {
	Data   any             `json:"data"             yaml:"data"`
	Errors []any           `json:"errors"           yaml:"errors"`
	Meta   map[string]any  `json:"meta"             yaml:"meta"`
	Report *jsonapi.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

func newDocumentOutput(doc *domain.Document, report *jsonapi.Report) documentOutput {
	return documentOutput{
		Data:   doc.Data,
		Errors: doc.Errors,
		Meta:   doc.Metadata,
		Report: report,
	}
}

// plainDocumentOutput drops the MarshalYAML method so it can be encoded directly.
type plainDocumentOutput documentOutput

// MarshalYAML prints json.Number values as YAML numbers instead of quoted strings.
func (o documentOutput) MarshalYAML() (any, error) {
	o.Data = plainNumbers(o.Data)
	o.Meta, _ = plainNumbers(o.Meta).(map[string]any)

	if o.Errors != nil {
		errs := make([]any, len(o.Errors))
		for i, e := range o.Errors {
			errs[i] = plainNumbers(e)
		}

		o.Errors = errs
	}

	return plainDocumentOutput(o), nil
}

// plainNumbers returns a copy of v with every json.Number replaced by an int64,
// or a float64 when it has a fraction or overflows.
func plainNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		if f, err := t.Float64(); err == nil {
			return f
		}

		return t.String()
	case map[string]any:
		if t == nil {
			return t
		}

		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainNumbers(e)
		}

		return out
	case []any:
		if t == nil {
			return t
		}

		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainNumbers(e)
		}

		return out
	default:
		return v
	}
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// write encodes v to w in the requested format.
func write(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}

		return enc.Close()
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))

	return err
}
