package testcase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/nebula-dq/internal/domain"
)

// Field keys used in FieldErrors.
const (
	FieldColumn      = "column"
	FieldTestName    = "testName"
	FieldTestTypeID  = "testTypeId"
	fieldParamPrefix = "params."
)

// Messages shown next to a field.
const (
	msgColumnRequired   = "Column is required."
	msgColumnUnknown    = "Column does not exist on this table."
	msgNamePattern      = "Name must contain only letters, numbers, underscores, hyphens, periods, parentheses, and ampersands."
	msgNameExists       = "Name already exists."
	msgTestTypeRequired = "Test Type is required."
	msgTestTypeUnknown  = "Test Type is not available for this entity."
	msgParamList        = "must be a list of values."
	msgParamScalar      = "must be a single value."
)

// ErrValidation wraps every ValidationError.
var ErrValidation = errors.New("test case validation failed")

// FieldErrors maps a field key to its messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// HasErrors reports whether any field failed.
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// ValidationError carries the per-field errors that blocked a submit.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: invalid fields %s", ErrValidation, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TestCaseSource returns the existing test cases attached to an entity link.
type TestCaseSource interface {
	TestCasesFor(ctx context.Context, entityLink string) ([]domain.TestCase, error)
}

// Snapshot is the read-only form state the rules look at.
type Snapshot struct {
	Context     FormContext
	Draft       Draft
	Definitions []domain.TestDefinition
	Active      *domain.TestDefinition
	TestCases   TestCaseSource
}

// RuleFunc is a synchronous predicate over a field value and the form snapshot.
type RuleFunc func(value string, snap Snapshot) error

// AsyncRuleFunc checks a field against data fetched at validation time.
type AsyncRuleFunc func(ctx context.Context, value string, snap Snapshot) error

// RuleSet is the validation table, keyed by field.
type RuleSet struct {
	fields   []string
	sync     map[string][]RuleFunc
	async    map[string][]AsyncRuleFunc
	validate *validator.Validate
}

// NewRuleSet builds the standard test case rules. namePattern is the shared
// entity-name convention; nil skips the pattern check.
func NewRuleSet(namePattern *regexp.Regexp) *RuleSet {
	rs := &RuleSet{
		sync:     make(map[string][]RuleFunc),
		async:    make(map[string][]AsyncRuleFunc),
		validate: validator.New(),
	}
	_ = rs.validate.RegisterValidation("entity_name", func(fl validator.FieldLevel) bool {
		return namePattern == nil || namePattern.MatchString(fl.Field().String())
	})

	rs.Add(FieldColumn, rs.columnRequired)
	rs.Add(FieldColumn, columnExists)
	rs.Add(FieldTestName, rs.namePattern)
	rs.AddAsync(FieldTestName, uniqueName)
	rs.Add(FieldTestTypeID, rs.testTypeRequired)
	rs.Add(FieldTestTypeID, testTypeAvailable)
	return rs
}

// Add registers a synchronous rule for field.
func (rs *RuleSet) Add(field string, fn RuleFunc) {
	rs.track(field)
	rs.sync[field] = append(rs.sync[field], fn)
}

// AddAsync registers a rule that may fetch data.
func (rs *RuleSet) AddAsync(field string, fn AsyncRuleFunc) {
	rs.track(field)
	rs.async[field] = append(rs.async[field], fn)
}

func (rs *RuleSet) track(field string) {
	if _, ok := rs.sync[field]; ok {
		return
	}
	if _, ok := rs.async[field]; ok {
		return
	}
	rs.fields = append(rs.fields, field)
}

// Evaluate runs every rule and the parameter checks. For each field the sync
// rules run first; async rules only run when the field passed them.
func (rs *RuleSet) Evaluate(ctx context.Context, snap Snapshot) FieldErrors {
	errs := FieldErrors{}
	for _, field := range rs.fields {
		value := fieldValue(snap.Draft, field)
		failed := false
		for _, rule := range rs.sync[field] {
			if err := rule(value, snap); err != nil {
				errs.Add(field, err.Error())
				failed = true
				break
			}
		}
		if failed {
			continue
		}
		for _, rule := range rs.async[field] {
			if err := rule(ctx, value, snap); err != nil {
				errs.Add(field, err.Error())
				break
			}
		}
	}
	checkParameters(snap, errs)
	return errs
}

func fieldValue(d Draft, field string) string {
	switch field {
	case FieldColumn:
		return d.Column
	case FieldTestName:
		return d.TestName
	case FieldTestTypeID:
		return d.TestTypeID
	}
	if name, ok := strings.CutPrefix(field, fieldParamPrefix); ok {
		return d.Params[name].Scalar
	}
	return ""
}

// --- Rules ---

func (rs *RuleSet) columnRequired(value string, snap Snapshot) error {
	if !snap.Context.ColumnScoped {
		return nil
	}
	if rs.validate.Var(value, "required") != nil {
		return errors.New(msgColumnRequired)
	}
	return nil
}

func columnExists(value string, snap Snapshot) error {
	if !snap.Context.ColumnScoped || value == "" {
		return nil
	}
	if _, ok := snap.Context.Table.ColumnByName(value); !ok {
		return errors.New(msgColumnUnknown)
	}
	return nil
}

func (rs *RuleSet) namePattern(value string, _ Snapshot) error {
	if rs.validate.Var(value, "omitempty,entity_name") != nil {
		return errors.New(msgNamePattern)
	}
	return nil
}

// uniqueName compares the name that will be submitted (trimmed) against the
// names already attached to the same entity link, case-sensitively.
func uniqueName(ctx context.Context, value string, snap Snapshot) error {
	name := strings.TrimSpace(value)
	if name == "" || snap.TestCases == nil {
		return nil
	}
	link := EntityLinkFor(snap.Context, snap.Draft).String()
	existing, err := snap.TestCases.TestCasesFor(ctx, link)
	if err != nil {
		customLog.Warnf("Testcase: could not check name '%s' for uniqueness on %s: %v", name, link, err)
		return nil
	}
	for _, tc := range existing {
		if tc.Name == name {
			return errors.New(msgNameExists)
		}
	}
	return nil
}

func (rs *RuleSet) testTypeRequired(value string, _ Snapshot) error {
	if rs.validate.Var(value, "required") != nil {
		return errors.New(msgTestTypeRequired)
	}
	return nil
}

// testTypeAvailable only applies once definitions were fetched; with an empty
// list (fetch failed or pending) the selection is trusted.
func testTypeAvailable(value string, snap Snapshot) error {
	if len(snap.Definitions) == 0 {
		return nil
	}
	for _, def := range snap.Definitions {
		if def.FullyQualifiedName == value {
			return nil
		}
	}
	return errors.New(msgTestTypeUnknown)
}

// checkParameters validates the parameter sub-form against the active definition.
func checkParameters(snap Snapshot, errs FieldErrors) {
	def := snap.Active
	if def == nil {
		return
	}
	arrayMode := usesArrayEncoding(def)

	for _, pd := range def.ParameterDefinition {
		input, ok := snap.Draft.Params[pd.Name]
		if pd.Required && (!ok || input.IsEmpty()) {
			label := pd.DisplayName
			if label == "" {
				label = pd.Name
			}
			errs.Add(fieldParamPrefix+pd.Name, label+" is required.")
		}
	}

	for _, name := range parameterOrder(def, snap.Draft.Params) {
		if _, err := encodeParameter(arrayMode, snap.Draft.Params[name]); err != nil {
			msg := msgParamScalar
			if arrayMode {
				msg = msgParamList
			}
			errs.Add(fieldParamPrefix+name, name+" "+msg)
		}
	}
}
