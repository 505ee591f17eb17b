package acl

import (
	"context"
	"fmt"
	"maps"

	"github.com/goccy/go-json"

	"github.com/jsamuelsen/jsonapi-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
	"github.com/jsamuelsen/jsonapi-gateway/internal/jsonapi"
)

// BaseAdapter provides request and translation plumbing for ACL adapters.
// Embed it in service-specific adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a base adapter. An empty serviceName falls back to the
// client's service name.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	if serviceName == "" && client != nil {
		serviceName = client.ServiceName()
	}

	return BaseAdapter{
		client:      client,
		serviceName: serviceName,
	}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name of the upstream service.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Fetch GETs path and decodes the response into a document.
//
// Client failures become *domain.TransportError. Classified statuses become
// *domain.ResponseError and malformed bodies *domain.ParseError.
func (a *BaseAdapter) Fetch(ctx context.Context, path, operation string) (*domain.Document, jsonapi.Report, error) {
	resp, err := a.client.Get(ctx, path)
	if err != nil {
		return nil, jsonapi.Report{}, MapClientError(err, a.serviceName, operation)
	}

	return jsonapi.ParseResponseWithReport(resp.StatusCode, resp.Body)
}

// Bind converts a decoded resource (or any JSON-shaped value) into T by re-encoding it.
func Bind[T any](value any) (*T, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding resource: %w", err)
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("binding resource: %w", err)
	}

	return &result, nil
}

// FlattenResource lifts a decoded resource's attributes, including merged
// relationships, next to its id and type: {"id", "type", ...attributes}. The id and
// type always win over attributes of the same name. Values that are not resources
// are returned unchanged.
func FlattenResource(resource any) any {
	m, ok := resource.(map[string]any)
	if !ok {
		return resource
	}

	attributes, _ := m["attributes"].(map[string]any)

	flat := make(map[string]any, len(attributes)+2)
	maps.Copy(flat, attributes)

	if id, ok := domain.IdentifierOf(m); ok {
		flat["id"] = id.ID
		flat["type"] = id.Type
	}

	return flat
}

// BindResource binds a decoded resource into T after flattening it, so that T can
// declare id, type, attributes and relationships as sibling fields.
func BindResource[T any](resource any) (*T, error) {
	return Bind[T](FlattenResource(resource))
}

// BindResources binds every resource of a document's data after flattening it.
// A single resource binds as a collection of one and nil as an empty collection.
func BindResources[T any](data any) ([]*T, error) {
	switch v := data.(type) {
	case nil:
		return []*T{}, nil
	case []any:
		flat := make([]any, len(v))
		for i, item := range v {
			flat[i] = FlattenResource(item)
		}

		return BindSlice[T](flat)
	default:
		return BindSlice[T](FlattenResource(v))
	}
}

// BindSlice binds each element of a collection's data into T. A single resource is
// treated as a collection of one and nil as an empty collection.
func BindSlice[T any](data any) ([]*T, error) {
	var items []any

	switch v := data.(type) {
	case nil:
		return []*T{}, nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	return TranslateSlice(items, func(item *any) (*T, error) {
		return Bind[T](*item)
	})
}

// Translator translates an external value into a domain value, validating it on the way.
type Translator[External any, Domain any] func(ext *External) (*Domain, error)

// TranslateSlice applies translate to every item. The first failure aborts the batch.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]*D, error) {
	result := make([]*D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}

// ErrorObject is a JSON:API error object.
type ErrorObject struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   string         `json:"code,omitempty"`
	Title  string         `json:"title,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Source *ErrorSource   `json:"source,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// ErrorSource points at the part of the request an error refers to.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// Message returns the detail, falling back to the title and then the code.
func (e ErrorObject) Message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Title != "":
		return e.Title
	default:
		return e.Code
	}
}

// ErrorObjects reads a document's errors member into typed error objects.
// Entries that are not objects are skipped.
func ErrorObjects(doc *domain.Document) []ErrorObject {
	if doc == nil {
		return nil
	}

	result := make([]ErrorObject, 0, len(doc.Errors))

	for _, item := range doc.Errors {
		if _, ok := item.(map[string]any); !ok {
			continue
		}

		obj, err := Bind[ErrorObject](item)
		if err != nil {
			continue
		}

		result = append(result, *obj)
	}

	return result
}
