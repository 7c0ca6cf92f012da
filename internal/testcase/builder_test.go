package testcase

import (
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
)

func seededBuilder() *Builder {
	return NewBuilder(core.NewSeededAlphanumericSource(7, 11))
}

func TestResolveNameSynthesized(t *testing.T) {
	testCases := []struct {
		name    string
		fc      FormContext
		draft   Draft
		pattern string
	}{
		{
			name:    "column scoped uses column",
			fc:      FormContext{Table: ordersTable(), ColumnScoped: true},
			draft:   Draft{Column: "email", TestTypeID: "columnValuesToBeUnique"},
			pattern: `^email_column_values_to_be_unique_[0-9A-Za-z]{4}$`,
		},
		{
			name:    "table scoped uses table name",
			fc:      FormContext{Table: ordersTable()},
			draft:   Draft{Column: "email", TestTypeID: "tableRowCountToBeBetween"},
			pattern: `^orders_table_row_count_to_be_between_[0-9A-Za-z]{4}$`,
		},
		{
			name:    "blank user name is ignored",
			fc:      FormContext{Table: ordersTable()},
			draft:   Draft{TestName: "   ", TestTypeID: "tableRowCountToBeBetween"},
			pattern: `^orders_table_row_count_to_be_between_[0-9A-Za-z]{4}$`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := seededBuilder().ResolveName(tc.fc, tc.draft)
			assert.Regexp(t, regexp.MustCompile(tc.pattern), got)
			assert.Equal(t, got, seededBuilder().ResolveName(tc.fc, tc.draft), "same seed must give the same name")
		})
	}
}

func TestResolveNameUsesTrimmedUserName(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-blank names are used trimmed", prop.ForAll(
		func(name string, pad int) bool {
			padding := strings.Repeat(" ", pad)
			d := Draft{TestName: padding + name + padding, TestTypeID: "columnValuesToBeUnique"}
			return seededBuilder().ResolveName(FormContext{Table: ordersTable()}, d) == name
		},
		gen.Identifier(),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestBuildEntityLink(t *testing.T) {
	b := seededBuilder()
	table := ordersTable()

	payload, err := b.Build(FormContext{Table: table, ColumnScoped: true},
		Draft{Column: "email", TestName: "t", TestTypeID: "columnValuesToBeUnique"}, nil, nil)
	require.NoError(t, err)
	link, err := core.ParseEntityLink(payload.EntityLink)
	require.NoError(t, err)
	assert.Equal(t, "svc.db.sales.orders.email", link.Target())

	payload, err = b.Build(FormContext{Table: table},
		Draft{Column: "email", TestName: "t", TestTypeID: "tableRowCountToBeBetween"}, nil, nil)
	require.NoError(t, err)
	link, err = core.ParseEntityLink(payload.EntityLink)
	require.NoError(t, err)
	assert.Equal(t, "svc.db.sales.orders", link.Target())
	assert.False(t, link.IsColumn())
}

func TestBuildPayload(t *testing.T) {
	def := inSetDefinition()
	d := Draft{
		Column:     "email",
		TestName:   "  email_in_set ",
		TestTypeID: def.FullyQualifiedName,
		Params:     map[string]ParameterInput{"allowedValues": List("a", "b", "c")},
	}

	payload, err := seededBuilder().Build(FormContext{Table: ordersTable(), ColumnScoped: true}, d, &def, NewDescriptionEditor("checks email domains"))
	require.NoError(t, err)

	assert.Equal(t, "email_in_set", payload.Name)
	assert.Equal(t, "columnValuesToBeInSet", payload.TestDefinition)
	assert.Equal(t, "checks email domains", payload.Description)
	assert.Equal(t, "", payload.TestSuite)
	assert.Equal(t, []domain.TestCaseParameterValue{{Name: "allowedValues", Value: `["a","b","c"]`}}, payload.ParameterValues)
}

func TestBuildScalarParametersInDefinitionOrder(t *testing.T) {
	def := rowCountDefinition()
	d := Draft{
		TestName:   "rows",
		TestTypeID: def.FullyQualifiedName,
		Params: map[string]ParameterInput{
			"maxValue": Scalar("10"),
			"extra":    Scalar("x"),
			"minValue": Scalar("1"),
		},
	}

	payload, err := seededBuilder().Build(FormContext{Table: ordersTable()}, d, &def, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.TestCaseParameterValue{
		{Name: "minValue", Value: "1"},
		{Name: "maxValue", Value: "10"},
		{Name: "extra", Value: "x"},
	}, payload.ParameterValues)
	assert.Equal(t, "", payload.Description)
}

func TestBuildRejectsMismatchedShape(t *testing.T) {
	inSet := inSetDefinition()
	rowCount := rowCountDefinition()

	testCases := []struct {
		name  string
		def   *domain.TestDefinition
		input ParameterInput
	}{
		{"scalar for array definition", &inSet, Scalar("a")},
		{"list for scalar definition", &rowCount, List("1", "2")},
		{"list without definition", nil, List("1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Draft{TestName: "x", TestTypeID: "t", Params: map[string]ParameterInput{"p": tc.input}}
			_, err := seededBuilder().Build(FormContext{Table: ordersTable()}, d, tc.def, nil)
			require.Error(t, err)
			assert.True(t, IsParameterShapeError(err))

			draft := seededBuilder().BuildDraft(FormContext{Table: ordersTable()}, d, tc.def, nil)
			require.NotNil(t, draft)
			assert.Empty(t, draft.ParameterValues)
		})
	}
}

func TestBuildEmptyScalarInArrayModeIsEmptyList(t *testing.T) {
	def := inSetDefinition()
	d := Draft{TestName: "x", TestTypeID: def.FullyQualifiedName, Params: map[string]ParameterInput{"allowedValues": Scalar("")}}

	payload, err := seededBuilder().Build(FormContext{Table: ordersTable()}, d, &def, nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", payload.ParameterValues[0].Value)
}
