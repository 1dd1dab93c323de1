package logo

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator is a comparison keyword of the filter grammar.
type Operator string

// Filter grammar operators.
const (
	OpEq   Operator = "eq"
	OpLike Operator = "like"
	OpGte  Operator = "gte"
	OpLte  Operator = "lte"
	OpIn   Operator = "in"
)

// operatorOrder is the fixed emission order for OperatorSet keys.
var operatorOrder = []Operator{OpEq, OpLike, OpGte, OpLte, OpIn}

// FieldValue describes the condition on a single field. It is one of
// Scalar, OperatorSet or OrList.
type FieldValue interface {
	isFieldValue()
}

// Scalar compiles to "FIELD eq value".
type Scalar struct {
	Value interface{}
}

// OperatorSet holds zero or more operators on one field. A nil member is
// absent. In accepts a single value or a slice.
type OperatorSet struct {
	Eq   interface{}
	Like interface{}
	Gte  interface{}
	Lte  interface{}
	In   interface{}
}

// OrList matches any of its values; it is equivalent to an "in" operator.
type OrList []interface{}

func (Scalar) isFieldValue()      {}
func (OperatorSet) isFieldValue() {}
func (OrList) isFieldValue()      {}

// Eq builds a Scalar condition.
func Eq(value interface{}) Scalar {
	return Scalar{Value: value}
}

// Like builds a "like" condition.
func Like(pattern interface{}) OperatorSet {
	return OperatorSet{Like: pattern}
}

// Between builds an inclusive range condition. Either bound may be nil.
func Between(gte, lte interface{}) OperatorSet {
	return OperatorSet{Gte: gte, Lte: lte}
}

// In builds an "in" condition. With no values it matches nothing.
func In(values ...interface{}) OperatorSet {
	if values == nil {
		values = []interface{}{}
	}

	return OperatorSet{In: values}
}

// AnyOf builds an OrList.
func AnyOf(values ...interface{}) OrList {
	if values == nil {
		return OrList{}
	}

	return OrList(values)
}

// get returns the operand stored for op.
func (s OperatorSet) get(op Operator) interface{} {
	switch op {
	case OpEq:
		return s.Eq
	case OpLike:
		return s.Like
	case OpGte:
		return s.Gte
	case OpLte:
		return s.Lte
	case OpIn:
		return s.In
	default:
		return nil
	}
}

// empty reports whether no operator is present.
func (s OperatorSet) empty() bool {
	for _, op := range operatorOrder {
		if s.get(op) != nil {
			return false
		}
	}

	return true
}

// Date layouts used when rendering time.Time literals.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Literal renders a scalar as a filter grammar literal. Strings are
// single-quoted with embedded quotes doubled; numbers, booleans, decimals
// and dates are emitted bare.
func Literal(value interface{}) (string, error) {
	switch typed := value.(type) {
	case string:
		return QuoteString(typed), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case json.Number:
		if _, err := typed.Float64(); err != nil {
			return "", malformed("", "invalid number literal %q", typed.String())
		}

		return typed.String(), nil
	case float32:
		return formatFloat(float64(typed), 32)
	case float64:
		return formatFloat(typed, 64)
	case time.Time:
		return formatTime(typed), nil
	case *time.Time:
		if typed == nil {
			return "", malformed("", "nil time value")
		}

		return formatTime(*typed), nil
	case decimal.Decimal:
		return typed.String(), nil
	case uuid.UUID:
		return QuoteString(typed.String()), nil
	case nil:
		return "", malformed("", "nil is not a scalar value")
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return QuoteString(rv.String()), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float(), rv.Type().Bits())
	default:
		return "", malformed("", "unsupported scalar type %T", value)
	}
}

// QuoteString wraps s in single quotes, doubling any embedded quote.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// UnquoteString reverses QuoteString. The boolean is false when s is not a
// well-formed quoted literal.
func UnquoteString(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}

	inner := s[1 : len(s)-1]

	var builder strings.Builder

	for i := 0; i < len(inner); i++ {
		if inner[i] != '\'' {
			builder.WriteByte(inner[i])

			continue
		}

		if i+1 >= len(inner) || inner[i+1] != '\'' {
			return "", false
		}

		builder.WriteByte('\'')
		i++
	}

	return builder.String(), true
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", malformed("", "non-finite number %v", f)
	}

	return strconv.FormatFloat(f, 'f', -1, bits), nil
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}

	return t.Format(dateTimeLayout)
}

// isScalar reports whether value is rendered by Literal rather than being a
// list or an operator object.
func isScalar(value interface{}) bool {
	switch value.(type) {
	case string, bool, json.Number, time.Time, *time.Time, decimal.Decimal, uuid.UUID:
		return true
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return true
	default:
		return false
	}
}

// listValues expands a slice or array into its elements. The boolean is
// false when value is not a list. uuid.UUID is an array but is a scalar.
func listValues(value interface{}) ([]interface{}, bool) {
	switch typed := value.(type) {
	case []interface{}:
		return typed, true
	case OrList:
		return []interface{}(typed), true
	case uuid.UUID:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	// []byte is not a meaningful filter list.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	values := make([]interface{}, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}

	return values, true
}
