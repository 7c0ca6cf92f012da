package testcase

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

var testNamePattern = regexp.MustCompile(`^[\w\s\-.'&()]{1,128}$`)

type stubCaseSource struct {
	cases map[string][]domain.TestCase
	err   error
	calls int
}

func (s *stubCaseSource) TestCasesFor(_ context.Context, entityLink string) ([]domain.TestCase, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.cases[entityLink], nil
}

func columnSnapshot(d Draft, source TestCaseSource) Snapshot {
	fc := FormContext{Table: ordersTable(), ColumnScoped: true}
	defs := []domain.TestDefinition{uniqueDefinition(), inSetDefinition()}
	return Snapshot{
		Context:     fc,
		Draft:       d,
		Definitions: defs,
		Active:      SelectDefinition(nil, d.TestTypeID, defs),
		TestCases:   source,
	}
}

func TestRulesFieldErrors(t *testing.T) {
	testCases := []struct {
		name      string
		draft     Draft
		wantField string
		wantMsg   string
	}{
		{"missing column", Draft{TestTypeID: "columnValuesToBeUnique"}, FieldColumn, msgColumnRequired},
		{"unknown column", Draft{Column: "nope", TestTypeID: "columnValuesToBeUnique"}, FieldColumn, msgColumnUnknown},
		{"missing test type", Draft{Column: "email"}, FieldTestTypeID, msgTestTypeRequired},
		{"unavailable test type", Draft{Column: "email", TestTypeID: "tableRowCountToBeBetween"}, FieldTestTypeID, msgTestTypeUnknown},
		{"bad name characters", Draft{Column: "email", TestName: "bad/name", TestTypeID: "columnValuesToBeUnique"}, FieldTestName, msgNamePattern},
		{"required parameter", Draft{Column: "email", TestTypeID: "columnValuesToBeInSet"}, "params.allowedValues", "Allowed Values is required."},
		{"scalar for list parameter", Draft{Column: "email", TestTypeID: "columnValuesToBeInSet",
			Params: map[string]ParameterInput{"allowedValues": Scalar("a")}}, "params.allowedValues", "allowedValues " + msgParamList},
	}

	rules := NewRuleSet(testNamePattern)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := rules.Evaluate(context.Background(), columnSnapshot(tc.draft, &stubCaseSource{}))
			assert.True(t, errs.HasErrors())
			assert.Contains(t, errs[tc.wantField], tc.wantMsg)
		})
	}
}

func TestRulesValidDraft(t *testing.T) {
	d := Draft{
		Column:     "email",
		TestName:   "email in set (EU) & more",
		TestTypeID: "columnValuesToBeInSet",
		Params:     map[string]ParameterInput{"allowedValues": List("a")},
	}
	errs := NewRuleSet(testNamePattern).Evaluate(context.Background(), columnSnapshot(d, &stubCaseSource{}))
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
}

func TestRulesNameCollision(t *testing.T) {
	link := "<#E::table::svc.db.sales.orders::columns::email>"
	source := &stubCaseSource{cases: map[string][]domain.TestCase{
		link: {{Name: "dup_test", EntityLink: link}},
	}}
	rules := NewRuleSet(testNamePattern)

	testCases := []struct {
		name    string
		input   string
		collide bool
	}{
		{"exact", "dup_test", true},
		{"trimmed before compare", "  dup_test ", true},
		{"case sensitive", "Dup_Test", false},
		{"different name", "fresh_test", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Draft{Column: "email", TestName: tc.input, TestTypeID: "columnValuesToBeUnique"}
			errs := rules.Evaluate(context.Background(), columnSnapshot(d, source))
			if tc.collide {
				assert.Equal(t, []string{msgNameExists}, errs[FieldTestName])
			} else {
				assert.Empty(t, errs[FieldTestName])
			}
		})
	}

	// A column-level name does not collide with another column.
	d := Draft{Column: "id", TestName: "dup_test", TestTypeID: "columnValuesToBeUnique"}
	errs := rules.Evaluate(context.Background(), columnSnapshot(d, source))
	assert.Empty(t, errs[FieldTestName])
}

func TestRulesAsyncSkippedAfterSyncFailure(t *testing.T) {
	source := &stubCaseSource{}
	d := Draft{Column: "email", TestName: "bad/name", TestTypeID: "columnValuesToBeUnique"}

	NewRuleSet(testNamePattern).Evaluate(context.Background(), columnSnapshot(d, source))
	assert.Equal(t, 0, source.calls)
}

func TestRulesUniquenessFetchFailureIsNotBlocking(t *testing.T) {
	source := &stubCaseSource{err: errors.New("catalog down")}
	d := Draft{Column: "email", TestName: "dup_test", TestTypeID: "columnValuesToBeUnique"}

	errs := NewRuleSet(testNamePattern).Evaluate(context.Background(), columnSnapshot(d, source))
	assert.False(t, errs.HasErrors())
	assert.Equal(t, 1, source.calls)
}

func TestRulesCustomRule(t *testing.T) {
	rules := NewRuleSet(nil)
	rules.Add(FieldTestName, func(value string, _ Snapshot) error {
		if value == "reserved" {
			return errors.New("reserved name")
		}
		return nil
	})

	d := Draft{Column: "email", TestName: "reserved", TestTypeID: "columnValuesToBeUnique"}
	errs := rules.Evaluate(context.Background(), columnSnapshot(d, nil))
	assert.Equal(t, []string{"reserved name"}, errs[FieldTestName])

	var verr error = &ValidationError{Fields: errs}
	assert.ErrorIs(t, verr, ErrValidation)
	assert.Contains(t, verr.Error(), FieldTestName)
}
