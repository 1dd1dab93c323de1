package logo_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logoapi/pkg/logo"
)

var testFields = logo.FieldMap{
	"code":   "CODE",
	"title":  "TITLE",
	"price":  "PRICE",
	"status": "STATUS",
	"tags":   "TAGS",
	"date":   "DATE",
}

//nolint:funlen
func TestCompileCriteria_Scalars(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{name: "string", value: "ABC", expected: "CODE eq 'ABC'"},
		{name: "empty string", value: "", expected: "CODE eq ''"},
		{name: "int", value: 42, expected: "CODE eq 42"},
		{name: "negative int64", value: int64(-7), expected: "CODE eq -7"},
		{name: "uint", value: uint8(9), expected: "CODE eq 9"},
		{name: "float", value: 12.5, expected: "CODE eq 12.5"},
		{name: "bool true", value: true, expected: "CODE eq true"},
		{name: "bool false", value: false, expected: "CODE eq false"},
		{name: "json number", value: json.Number("1e3"), expected: "CODE eq 1e3"},
		{name: "decimal", value: decimal.RequireFromString("19.95"), expected: "CODE eq 19.95"},
		{name: "uuid", value: id, expected: "CODE eq '0f8fad5b-d9cb-469f-a165-70867728950e'"},
		{
			name:     "date",
			value:    time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			expected: "CODE eq 2024-03-01",
		},
		{
			name:     "date time",
			value:    time.Date(2024, time.March, 1, 13, 45, 10, 0, time.UTC),
			expected: "CODE eq 2024-03-01T13:45:10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := logo.CompileCriteria(logo.Criteria{"code": logo.Eq(tt.value)}, testFields.Func())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter)
		})
	}
}

func TestCompileCriteria_QuoteRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{"O'Brien", "''", "'", "a''b'c", "no quotes"}

	for _, input := range inputs {
		filter, err := logo.CompileCriteria(logo.Criteria{"title": logo.Eq(input)}, testFields.Func())
		require.NoError(t, err)

		literal := strings.TrimPrefix(filter, "TITLE eq ")
		assert.Equal(t, strings.Count(input, "'")*2+2, strings.Count(literal, "'"))

		decoded, ok := logo.UnquoteString(literal)
		require.True(t, ok, literal)
		assert.Equal(t, input, decoded)
	}
}

func TestUnquoteString_Malformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "'", "abc", "'a'b'", "'abc"} {
		_, ok := logo.UnquoteString(input)
		assert.False(t, ok, input)
	}
}

func TestCompileCriteria_Empty(t *testing.T) {
	t.Parallel()

	filter, err := logo.CompileCriteria(logo.Criteria{}, nil)
	require.NoError(t, err)
	assert.Empty(t, filter)

	filter, err = logo.CompileCriteria(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, filter)

	filter, err = logo.CompileCriteria(logo.Criteria{"code": nil}, nil)
	require.NoError(t, err)
	assert.Empty(t, filter)
}

//nolint:funlen
func TestCompileCriteria_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria logo.Criteria
		expected string
	}{
		{
			name:     "range",
			criteria: logo.Criteria{"price": logo.Between(100, 500)},
			expected: "(PRICE gte 100 and PRICE lte 500)",
		},
		{
			name:     "lower bound only",
			criteria: logo.Criteria{"price": logo.Between(100, nil)},
			expected: "PRICE gte 100",
		},
		{
			name:     "in",
			criteria: logo.Criteria{"status": logo.In(1, 2, 3)},
			expected: "(STATUS eq 1 or STATUS eq 2 or STATUS eq 3)",
		},
		{
			name:     "in typed slice",
			criteria: logo.Criteria{"status": logo.OperatorSet{In: []int{1, 2, 3}}},
			expected: "(STATUS eq 1 or STATUS eq 2 or STATUS eq 3)",
		},
		{
			name:     "in single value",
			criteria: logo.Criteria{"status": logo.OperatorSet{In: 4}},
			expected: "(STATUS eq 4)",
		},
		{
			name:     "or list",
			criteria: logo.Criteria{"tags": logo.AnyOf("A", "B")},
			expected: "(TAGS eq 'A' or TAGS eq 'B')",
		},
		{
			name:     "empty in",
			criteria: logo.Criteria{"status": logo.In()},
			expected: "(1 eq 0)",
		},
		{
			name:     "empty or list",
			criteria: logo.Criteria{"tags": logo.AnyOf()},
			expected: "(1 eq 0)",
		},
		{
			name:     "like",
			criteria: logo.Criteria{"code": logo.Like("A%")},
			expected: "CODE like 'A%'",
		},
		{
			name: "operator order is fixed",
			criteria: logo.Criteria{"price": logo.OperatorSet{
				In: []interface{}{1, 2}, Lte: 9, Gte: 0, Like: "1%", Eq: 5,
			}},
			expected: "(PRICE eq 5 and PRICE like '1%' and PRICE gte 0 and PRICE lte 9 and (PRICE eq 1 or PRICE eq 2))",
		},
		{
			name: "fields sorted by key and joined with and",
			criteria: logo.Criteria{
				"title": logo.Eq("X"),
				"code":  logo.Eq("A"),
				"price": logo.Between(1, 2),
			},
			expected: "CODE eq 'A' and (PRICE gte 1 and PRICE lte 2) and TITLE eq 'X'",
		},
		{
			name:     "unknown key passes through",
			criteria: logo.Criteria{"WAREHOUSE": logo.Eq(1)},
			expected: "WAREHOUSE eq 1",
		},
		{
			name:     "pointer values",
			criteria: logo.Criteria{"code": &logo.Scalar{Value: "A"}, "price": &logo.OperatorSet{Gte: 1}},
			expected: "CODE eq 'A' and PRICE gte 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := logo.CompileCriteria(tt.criteria, testFields.Func())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter)

			again, err := logo.CompileCriteria(tt.criteria, testFields.Func())
			require.NoError(t, err)
			assert.Equal(t, filter, again)
		})
	}
}

//nolint:funlen
func TestCompileCriteria_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		criteria logo.Criteria
		field    string
	}{
		{name: "empty operator set", criteria: logo.Criteria{"price": logo.OperatorSet{}}, field: "price"},
		{name: "nil scalar value", criteria: logo.Criteria{"code": logo.Eq(nil)}, field: "code"},
		{name: "map scalar", criteria: logo.Criteria{"code": logo.Eq(map[string]int{"a": 1})}, field: "code"},
		{name: "list operand for gte", criteria: logo.Criteria{"price": logo.OperatorSet{Gte: []int{1}}}, field: "price"},
		{name: "nested list", criteria: logo.Criteria{"tags": logo.AnyOf([]string{"A"})}, field: "tags"},
		{name: "nan", criteria: logo.Criteria{"price": logo.Eq(0.0 / zero())}, field: "price"},
		{name: "nil scalar pointer", criteria: logo.Criteria{"code": (*logo.Scalar)(nil)}, field: "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := logo.CompileCriteria(tt.criteria, testFields.Func())
			require.Error(t, err)
			require.ErrorIs(t, err, logo.ErrMalformedCriteria)
			assert.Equal(t, logo.KindMalformedCriteria, logo.KindOf(err))

			var criteriaErr *logo.CriteriaError
			require.ErrorAs(t, err, &criteriaErr)
			assert.Equal(t, tt.field, criteriaErr.Field)
		})
	}
}

func zero() float64 { return 0 }

func TestCompileCriteria_EmptyFieldName(t *testing.T) {
	t.Parallel()

	blank := func(string) string { return "" }

	_, err := logo.CompileCriteria(logo.Criteria{"code": logo.Eq(1)}, blank)
	require.ErrorIs(t, err, logo.ErrMalformedCriteria)
}

//nolint:funlen
func TestCriteriaFromMap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      map[string]interface{}
		expected string
		wantErr  bool
	}{
		{
			name:     "scalar",
			raw:      map[string]interface{}{"code": "A"},
			expected: "CODE eq 'A'",
		},
		{
			name:     "list",
			raw:      map[string]interface{}{"tags": []string{"A", "B"}},
			expected: "(TAGS eq 'A' or TAGS eq 'B')",
		},
		{
			name:     "operator object",
			raw:      map[string]interface{}{"price": map[string]interface{}{"gte": 100, "lte": 500}},
			expected: "(PRICE gte 100 and PRICE lte 500)",
		},
		{
			name:     "in object",
			raw:      map[string]interface{}{"status": map[string]interface{}{"in": []interface{}{1, 2, 3}}},
			expected: "(STATUS eq 1 or STATUS eq 2 or STATUS eq 3)",
		},
		{
			name:     "yaml style map",
			raw:      map[string]interface{}{"price": map[interface{}]interface{}{"gte": 1}},
			expected: "PRICE gte 1",
		},
		{
			name:     "nil is absent",
			raw:      map[string]interface{}{"code": nil, "title": "T"},
			expected: "TITLE eq 'T'",
		},
		{
			name:    "unknown operator",
			raw:     map[string]interface{}{"price": map[string]interface{}{"gt": 1}},
			wantErr: true,
		},
		{
			name:    "empty operator object",
			raw:     map[string]interface{}{"price": map[string]interface{}{}},
			wantErr: true,
		},
		{
			name:    "list of objects",
			raw:     map[string]interface{}{"tags": []interface{}{map[string]interface{}{"eq": 1}}},
			wantErr: true,
		},
		{
			name:    "unsupported type",
			raw:     map[string]interface{}{"code": struct{}{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			criteria, err := logo.CriteriaFromMap(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, logo.ErrMalformedCriteria)

				return
			}

			require.NoError(t, err)

			filter, err := logo.CompileCriteria(criteria, testFields.Func())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter)
		})
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	type code string

	literal, err := logo.Literal(code("X'Y"))
	require.NoError(t, err)
	assert.Equal(t, "'X''Y'", literal)

	when := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)
	literal, err = logo.Literal(&when)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", literal)

	_, err = logo.Literal([]byte("x"))
	require.ErrorIs(t, err, logo.ErrMalformedCriteria)
}
