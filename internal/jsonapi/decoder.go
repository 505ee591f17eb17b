package jsonapi

import (
	"maps"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// Report summarizes relationship resolution for a single decode.
type Report struct {
	// Resources is the number of primary resources visited.
	Resources int `json:"resources"`

	// Merged is the number of resources whose attributes received relationships.
	Merged int `json:"merged"`

	// Linkages is the number of resource identifier objects looked up.
	Linkages int `json:"linkages"`

	// Unresolved is the number of identifiers with no match in included.
	Unresolved int `json:"unresolved"`
}

// UnresolvedRatio returns Unresolved/Linkages, or 0 when nothing was looked up.
func (r Report) UnresolvedRatio() float64 {
	if r.Linkages == 0 {
		return 0
	}

	return float64(r.Unresolved) / float64(r.Linkages)
}

// Decode normalizes a parsed JSON:API document. See DecodeWithReport.
func Decode(raw any) (*domain.Document, error) {
	doc, _, err := DecodeWithReport(raw)
	return doc, err
}

// DecodeWithReport normalizes a parsed JSON:API document and reports how many
// relationship linkages were resolved.
//
// Every primary resource that has an attributes object gets its relationships
// resolved against the included resources and merged into a copy of its attributes;
// relationship names win over attributes with the same name. Linkages without a
// match are dropped. Resources without attributes are returned untouched.
// The shape of the primary data (single resource or collection) is preserved and
// raw is never modified.
func DecodeWithReport(raw any) (*domain.Document, Report, error) {
	var report Report

	root, ok := raw.(map[string]any)
	if !ok {
		return nil, report, domain.NewParseError(encodeForMessage(raw),
			"top-level value is "+describeKind(raw)+", expected an object")
	}

	included := indexIncluded(root["included"])

	data := root["data"]
	switch primary := data.(type) {
	case nil:
		data = map[string]any{}
	case map[string]any:
		data = mergeRelationships(primary, included, &report)
	case []any:
		resources := make([]any, len(primary))
		for i, item := range primary {
			if resource, ok := item.(map[string]any); ok {
				resources[i] = mergeRelationships(resource, included, &report)
				continue
			}
			resources[i] = item
		}
		data = resources
	}

	return &domain.Document{
		Data:     data,
		Errors:   errorsOf(root["errors"]),
		Metadata: metadataOf(root["meta"]),
	}, report, nil
}

// mergeRelationships returns resource with its resolved relationships merged into
// a copy of its attributes.
func mergeRelationships(resource map[string]any, included includedIndex, report *Report) map[string]any {
	report.Resources++

	attributes, ok := resource["attributes"].(map[string]any)
	if !ok {
		return resource
	}

	resolved := buildRelationships(resource, included, report)

	merged := make(map[string]any, len(attributes)+len(resolved))
	maps.Copy(merged, attributes)
	maps.Copy(merged, resolved)

	out := maps.Clone(resource)
	out["attributes"] = merged
	report.Merged++

	return out
}

// buildRelationships resolves each relationship linkage of resource.
// To-many linkages keep their order and drop unmatched entries; a relationship is
// present in the result only when at least one identifier matched.
func buildRelationships(resource map[string]any, included includedIndex, report *Report) map[string]any {
	relationships, _ := resource["relationships"].(map[string]any)
	built := make(map[string]any, len(relationships))

	for name, value := range relationships {
		relationship, ok := value.(map[string]any)
		if !ok {
			continue
		}

		switch linkage := relationship["data"].(type) {
		case []any:
			matched := make([]any, 0, len(linkage))
			for _, identifier := range linkage {
				if related, ok := included.resolve(identifier, report); ok {
					matched = append(matched, related)
				}
			}
			if len(matched) > 0 {
				built[name] = matched
			}

		case map[string]any:
			if len(linkage) == 0 {
				continue
			}
			if related, ok := included.resolve(linkage, report); ok {
				built[name] = related
			}
		}
	}

	return built
}

// includedIndex maps identifiers to included resources, first occurrence wins.
type includedIndex map[domain.Identifier]map[string]any

func indexIncluded(value any) includedIndex {
	items, _ := value.([]any)
	index := make(includedIndex, len(items))

	for _, item := range items {
		resource, ok := item.(map[string]any)
		if !ok {
			continue
		}

		id, ok := domain.IdentifierOf(resource)
		if !ok {
			continue
		}

		if _, seen := index[id]; !seen {
			index[id] = resource
		}
	}

	return index
}

func (idx includedIndex) resolve(identifier any, report *Report) (map[string]any, bool) {
	report.Linkages++

	id, ok := domain.IdentifierOf(identifier)
	if ok {
		if resource, found := idx[id]; found {
			return resource, true
		}
	}

	report.Unresolved++

	return nil, false
}

func errorsOf(value any) []any {
	if errs, ok := value.([]any); ok {
		return errs
	}

	return []any{}
}

func metadataOf(value any) map[string]any {
	if meta, ok := value.(map[string]any); ok {
		return meta
	}

	return map[string]any{}
}
