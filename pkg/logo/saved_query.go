package logo

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// savedQuery is the YAML shape of a stored query.
type savedQuery struct {
	Fields   []string    `yaml:"fields"`
	Sort     interface{} `yaml:"sort"`
	Limit    *int        `yaml:"limit"`
	Offset   *int        `yaml:"offset"`
	Criteria yaml.Node   `yaml:"criteria"`
}            `yaml:"sort"`
	Limit    *int                   `yaml:"limit"`
	Offset   *int                   `yaml:"offset"`
	Criteria yaml.Node              `yaml:"criteria"`
}

// ParseQueryYAML decodes a stored query such as
//
//	fields: [CODE, TITLE]
//	sort: [[TITLE, CODE], desc]
//	limit: 10
//	criteria:
//	  price: {gte: 100, lte: 500}
//	  tags: [A, B]
//
// Criteria values follow the same shape rules as CriteriaFromMap and sort
// accepts a bare field name or any of the SortSpecFromTuple shapes. Unquoted
// YAML timestamps such as 2024-01-01 become date literals; quote them to
// compare against a string.
func ParseQueryYAML(data []byte) (*QueryOptions, error) {
	var raw savedQuery

	err := yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing saved query: %w", err)
	}

	opts := &QueryOptions{
		Fields: raw.Fields,
		Limit:  raw.Limit,
		Offset: raw.Offset,
	}

	if raw.Criteria.Kind != 0 {
		criteria, err := criteriaFromNode(&raw.Criteria)
		if err != nil {
			return nil, err
		}

		if len(criteria) > 0 {
			opts.Criteria, err = CriteriaFromMap(criteria)
			if err != nil {
				return nil, err
			}
		}
	}

	switch sort := raw.Sort.(type) {
	case nil:
	case string:
		opts.Sort = SortBy(sort)
	case []interface{}:
		opts.Sort, err = SortSpecFromTuple(sort)
		if err != nil {
			return nil, err
		}
	default:
		return nil, malformed("sort", "unsupported sort shape %T", raw.Sort)
	}

	return opts, nil
}

func criteriaFromNode(node *yaml.Node) (map[string]interface{}, error) {
	value, err := nodeValue(node)
	if err != nil {
		return nil, err
	}

	switch typed := value.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return typed, nil
	default:
		return nil, malformed("criteria", "criteria must be a mapping, got %T", value)
	}
}

// nodeValue decodes node like yaml.v3 does into interface{}, except that
// timestamps are kept as time.Time.
func nodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			value, err := nodeValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}

			out[node.Content[i].Value] = value
		}

		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))

		for _, child := range node.Content {
			value, err := nodeValue(child)
			if err != nil {
				return nil, err
			}

			out = append(out, value)
		}

		return out, nil
	case yaml.ScalarNode:
		if node.ShortTag() == "!!timestamp" {
			var t time.Time

			err := node.Decode(&t)
			if err != nil {
				return nil, fmt.Errorf("parsing date %q: %w", node.Value, err)
			}

			return t, nil
		}

		var value interface{}

		err := node.Decode(&value)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", node.Value, err)
		}

		return value, nil
	default:
		return nil, nil
	}
}
