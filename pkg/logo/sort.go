package logo

import (
	"strings"
)

// SortDirection is the ordering direction of a sort expression.
type SortDirection string

// Sort directions accepted by the API.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec orders results by one or more fields in a single direction.
// An empty Direction means ascending.
type SortSpec struct {
	Fields    []string
	Direction SortDirection
}

// SortBy sorts on a single field. Direction defaults to ascending.
func SortBy(field string, direction ...SortDirection) *SortSpec {
	return SortByFields([]string{field}, direction...)
}

// SortByFields sorts on several fields sharing one direction.
func SortByFields(fields []string, direction ...SortDirection) *SortSpec {
	spec := &SortSpec{Fields: append([]string(nil), fields...)}
	if len(direction) > 0 {
		spec.Direction = direction[0]
	}

	return spec
}

// SortSpecFromTuple accepts the four literal shapes [field], [field, dir],
// [fields, dir] and [fields], as found in decoded JSON or YAML.
func SortSpecFromTuple(tuple []interface{}) (*SortSpec, error) {
	if len(tuple) == 0 || len(tuple) > 2 {
		return nil, malformed("sort", "expected 1 or 2 elements, got %d", len(tuple))
	}

	spec := &SortSpec{}

	switch head := tuple[0].(type) {
	case string:
		spec.Fields = []string{head}
	default:
		values, ok := listValues(head)
		if !ok {
			return nil, malformed("sort", "first element must be a field or a list of fields, got %T", head)
		}

		for _, value := range values {
			field, isString := value.(string)
			if !isString {
				return nil, malformed("sort", "field list entries must be strings, got %T", value)
			}

			spec.Fields = append(spec.Fields, field)
		}
	}

	if len(tuple) == 2 {
		direction, ok := tuple[1].(string)
		if !ok {
			return nil, malformed("sort", "direction must be a string, got %T", tuple[1])
		}

		spec.Direction = SortDirection(direction)
	}

	if _, err := spec.normalize(); err != nil {
		return nil, err
	}

	return spec, nil
}

// normalize validates the spec and resolves the default direction.
func (s *SortSpec) normalize() (SortDirection, error) {
	if len(s.Fields) == 0 {
		return "", malformed("sort", "at least one field is required")
	}

	for _, field := range s.Fields {
		if strings.TrimSpace(field) == "" {
			return "", malformed("sort", "field names must not be empty")
		}
	}

	switch s.Direction {
	case "":
		return SortAsc, nil
	case SortAsc, SortDesc:
		return s.Direction, nil
	default:
		return "", malformed("sort", "direction must be %q or %q, got %q", SortAsc, SortDesc, s.Direction)
	}
}

// CompileSort renders spec as "FIELD1,FIELD2:direction".
func CompileSort(spec *SortSpec) (string, error) {
	if spec == nil {
		return "", malformed("sort", "sort spec is nil")
	}

	direction, err := spec.normalize()
	if err != nil {
		return "", err
	}

	return strings.Join(spec.Fields, ",") + ":" + string(direction), nil
}
