package logo

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// alwaysFalse is emitted for an empty "in" list so that the field still
// narrows the result set instead of silently dropping out.
const alwaysFalse = "(1 eq 0)"

// Criteria maps a logical field name to its condition. Absent keys add no
// predicate.
type Criteria map[string]FieldValue

// FieldNameFunc resolves a logical field name to the canonical API field.
type FieldNameFunc func(key string) string

// FieldMap is a per-entity lookup table from logical to canonical field names.
type FieldMap map[string]string

// FieldNameOf returns the canonical name for key, or key itself when the
// map does not know it.
func (m FieldMap) FieldNameOf(key string) string {
	if name, ok := m[key]; ok && name != "" {
		return name
	}

	return key
}

// Func returns m as a FieldNameFunc.
func (m FieldMap) Func() FieldNameFunc {
	return m.FieldNameOf
}

// identity is used when no FieldNameFunc is supplied.
func identity(key string) string {
	return key
}

// CompileCriteria renders criteria as a filter expression. Per-field groups
// are emitted in ascending order of their logical key and joined with "and".
// Empty criteria compile to "".
func CompileCriteria(criteria Criteria, fieldNameOf FieldNameFunc) (string, error) {
	if len(criteria) == 0 {
		return "", nil
	}

	if fieldNameOf == nil {
		fieldNameOf = identity
	}

	keys := make([]string, 0, len(criteria))
	for key := range criteria {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	groups := make([]string, 0, len(keys))

	for _, key := range keys {
		value := criteria[key]
		if value == nil {
			continue
		}

		field := fieldNameOf(key)
		if field == "" {
			return "", malformed(key, "field name resolves to an empty string")
		}

		group, err := compileField(key, field, value)
		if err != nil {
			return "", err
		}

		groups = append(groups, group)
	}

	return strings.Join(groups, " and "), nil
}

// compileField renders every clause for one field.
func compileField(key, field string, value FieldValue) (string, error) {
	var clauses []string

	switch typed := value.(type) {
	case Scalar:
		clause, err := comparison(key, field, OpEq, typed.Value)
		if err != nil {
			return "", err
		}

		clauses = append(clauses, clause)
	case *Scalar:
		if typed == nil {
			return "", malformed(key, "nil scalar")
		}

		return compileField(key, field, *typed)
	case OrList:
		clause, err := orChain(key, field, []interface{}(typed))
		if err != nil {
			return "", err
		}

		clauses = append(clauses, clause)
	case OperatorSet:
		if typed.empty() {
			return "", malformed(key, "operator set has no recognized operator (eq, like, gte, lte, in)")
		}

		for _, op := range operatorOrder {
			operand := typed.get(op)
			if operand == nil {
				continue
			}

			var (
				clause string
				err    error
			)

			if op == OpIn {
				values, ok := listValues(operand)
				if !ok {
					values = []interface{}{operand}
				}

				clause, err = orChain(key, field, values)
			} else {
				clause, err = comparison(key, field, op, operand)
			}

			if err != nil {
				return "", err
			}

			clauses = append(clauses, clause)
		}
	case *OperatorSet:
		if typed == nil {
			return "", malformed(key, "nil operator set")
		}

		return compileField(key, field, *typed)
	default:
		return "", malformed(key, "unsupported field value %T", value)
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}

	return "(" + strings.Join(clauses, " and ") + ")", nil
}

func comparison(key, field string, op Operator, operand interface{}) (string, error) {
	if !isScalar(operand) {
		return "", malformed(key, "%s operand must be a scalar, got %T", op, operand)
	}

	literal, err := Literal(operand)
	if err != nil {
		return "", withField(err, key)
	}

	return field + " " + string(op) + " " + literal, nil
}

// orChain renders values as a parenthesized chain of eq clauses.
func orChain(key, field string, values []interface{}) (string, error) {
	if len(values) == 0 {
		return alwaysFalse, nil
	}

	clauses := make([]string, 0, len(values))

	for _, value := range values {
		clause, err := comparison(key, field, OpEq, value)
		if err != nil {
			return "", err
		}

		clauses = append(clauses, clause)
	}

	return "(" + strings.Join(clauses, " or ") + ")", nil
}

// withField attaches the field name to a CriteriaError raised by Literal.
func withField(err error, key string) error {
	if criteriaErr, ok := err.(*CriteriaError); ok && criteriaErr.Field == "" {
		return &CriteriaError{Field: key, Reason: criteriaErr.Reason}
	}

	return err
}

// ClassifyFieldValue discriminates a dynamically shaped value: scalars
// become Scalar, lists become OrList and maps carrying operator keys become
// OperatorSet. Anything else is malformed.
func ClassifyFieldValue(key string, value interface{}) (FieldValue, error) {
	switch typed := value.(type) {
	case FieldValue:
		return typed, nil
	case nil:
		return nil, malformed(key, "nil value")
	}

	if isScalar(value) {
		if _, err := Literal(value); err != nil {
			return nil, withField(err, key)
		}

		return Scalar{Value: value}, nil
	}

	if values, ok := listValues(value); ok {
		for _, element := range values {
			if !isScalar(element) {
				return nil, malformed(key, "list element must be a scalar, got %T", element)
			}
		}

		return OrList(values), nil
	}

	operators, ok := stringKeyedMap(value)
	if !ok {
		return nil, malformed(key, "unsupported value type %T", value)
	}

	return operatorSetFromMap(key, operators)
}

func operatorSetFromMap(key string, operators map[string]interface{}) (FieldValue, error) {
	var set OperatorSet

	for name, operand := range operators {
		switch Operator(name) {
		case OpEq:
			set.Eq = operand
		case OpLike:
			set.Like = operand
		case OpGte:
			set.Gte = operand
		case OpLte:
			set.Lte = operand
		case OpIn:
			if operand == nil {
				continue
			}

			if values, isList := listValues(operand); isList {
				if values == nil {
					values = []interface{}{}
				}

				operand = values
			}

			set.In = operand
		default:
			return nil, malformed(key, "unknown operator %q", name)
		}
	}

	if set.empty() {
		return nil, malformed(key, "operator set has no recognized operator (eq, like, gte, lte, in)")
	}

	return set, nil
}

// stringKeyedMap converts map[string]X and YAML's map[interface{}]interface{}
// into map[string]interface{}.
func stringKeyedMap(value interface{}) (map[string]interface{}, bool) {
	if typed, ok := value.(map[string]interface{}); ok {
		return typed, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map {
		return nil, false
	}

	result := make(map[string]interface{}, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		mapKey := iter.Key().Interface()

		name, ok := mapKey.(string)
		if !ok {
			name = fmt.Sprint(mapKey)
		}

		result[name] = iter.Value().Interface()
	}

	return result, true
}

// CriteriaFromMap classifies every entry of raw. Nil values are treated as
// absent keys.
func CriteriaFromMap(raw map[string]interface{}) (Criteria, error) {
	criteria := make(Criteria, len(raw))

	for key, value := range raw {
		if value == nil {
			continue
		}

		fieldValue, err := ClassifyFieldValue(key, value)
		if err != nil {
			return nil, err
		}

		criteria[key] = fieldValue
	}

	return criteria, nil
}
